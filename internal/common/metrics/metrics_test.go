package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T) string {
	t.Helper()
	w := httptest.NewRecorder()
	Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	return w.Body.String()
}

func TestMiddlewareUsesRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware())
	r.GET("/api/v1/staking/list/:wallet_address", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/staking/list/0xabc", nil))
	require.Equal(t, http.StatusOK, w.Code)

	body := scrape(t)
	assert.Contains(t, body, `path="/api/v1/staking/list/:wallet_address"`)
	assert.NotContains(t, body, "0xabc")
}

func TestLedgerSeriesAreExported(t *testing.T) {
	SetLedgerGauge("active_stakes", 4)
	RecordReward("signup_referral", decimal.NewFromInt(3))
	RecordSettlement("stake_created", "committed")
	RecordJobRun("ledger_gauges", true)

	body := scrape(t)
	assert.Contains(t, body, `referral_staking_ledger_state{metric="active_stakes"} 4`)
	assert.Contains(t, body, `referral_staking_ledger_rewards_issued_tokens_total{reward_type="signup_referral"} 3`)
	assert.Contains(t, body, `referral_staking_ledger_settlements_total{event="stake_created",outcome="committed"} 1`)
	assert.Contains(t, body, `referral_staking_jobs_runs_total{job="ledger_gauges",success="true"} 1`)
}
