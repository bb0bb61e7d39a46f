package jobs

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"referral-staking-backend/internal/common/metrics"
	"referral-staking-backend/internal/domain/ledger"
)

type fakeTotals struct {
	dayStart time.Time
	err      error
}

func (f *fakeTotals) GetDashboardTotals(ctx context.Context, dayStart, now time.Time) (*ledger.DashboardTotals, error) {
	f.dayStart = dayStart
	if f.err != nil {
		return nil, f.err
	}
	return &ledger.DashboardTotals{
		TotalUsers:   12,
		ActiveStakes: 5,
		TotalStaked:  decimal.RequireFromString("1234.5"),
	}, nil
}

type fakeCleaner struct{ maxKeys int }

func (f *fakeCleaner) Cleanup(maxKeys int) { f.maxKeys = maxKeys }

func scrape(t *testing.T) string {
	t.Helper()
	w := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	return w.Body.String()
}

func TestRefreshLedgerGauges(t *testing.T) {
	totals := &fakeTotals{}
	s := NewScheduler(totals, nil)
	s.now = func() time.Time { return time.Date(2025, 3, 9, 22, 10, 0, 0, time.UTC) }

	require.NoError(t, s.RefreshLedgerGauges(context.Background()))
	assert.Equal(t, time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC), totals.dayStart)

	body := scrape(t)
	assert.Contains(t, body, `referral_staking_ledger_state{metric="users"} 12`)
	assert.Contains(t, body, `referral_staking_ledger_state{metric="stakes_active"} 5`)
	assert.Contains(t, body, `referral_staking_ledger_state{metric="total_staked"} 1234.5`)
}

func TestRunRecordsOutcome(t *testing.T) {
	s := NewScheduler(&fakeTotals{err: errors.New("db down")}, nil)

	s.run(ledgerGaugesJob, s.RefreshLedgerGauges)

	assert.Contains(t, scrape(t), `referral_staking_jobs_runs_total{job="ledger_gauges",success="false"}`)
}

func TestRegister(t *testing.T) {
	cleaner := &fakeCleaner{}
	s := NewScheduler(&fakeTotals{}, cleaner)

	require.NoError(t, s.Register("@every 1m"))
	assert.Len(t, s.cron.Entries(), 2)

	s.cron.Entries()[1].Job.Run()
	assert.Equal(t, maxLimiterKeys, cleaner.maxKeys)

	assert.Error(t, NewScheduler(&fakeTotals{}, nil).Register("not a spec"))
}

func TestStartStop(t *testing.T) {
	s := NewScheduler(&fakeTotals{}, nil)
	require.NoError(t, s.Register("@every 1h"))
	s.Start()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
	assert.NoError(t, ctx.Err())
}
