package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.True(t, decimal.NewFromInt(3).Equal(cfg.Rewards.SignupBonus))
	assert.True(t, decimal.RequireFromString("0.05").Equal(cfg.Rewards.StakeBonusRate))
	assert.True(t, decimal.RequireFromString("0.95").Equal(cfg.Rewards.LockedShare))
	assert.Equal(t, 365, cfg.Rewards.TermDays)
	assert.Equal(t, 30*time.Second, cfg.Redis.StatsTTL)
	assert.Equal(t, "@every 1m", cfg.Jobs.MetricsRefreshSpec)
	assert.Empty(t, cfg.Admin.JWTSecret)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("POSTGRES_HOST", "db")
	t.Setenv("POSTGRES_DB", "ledger")
	t.Setenv("REDIS_HOST", "cache")
	t.Setenv("REDIS_PORT", "6380")
	t.Setenv("REFERRER_BONUS_RATE", "0.1")
	t.Setenv("STRICT_WALLET_VALIDATION", "true")

	cfg := Load()

	require.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "host=db port=5432 user=postgres password=postgres dbname=ledger sslmode=disable", cfg.Postgres.GetDSN())
	assert.Equal(t, "cache:6380", cfg.RedisAddr())
	assert.True(t, decimal.RequireFromString("0.1").Equal(cfg.Rewards.ReferrerBonusRate))
	assert.True(t, cfg.Wallet.StrictValidation)
}

func TestLoadPanicsOnBadDecimal(t *testing.T) {
	t.Setenv("SIGNUP_BONUS", "three")
	assert.Panics(t, func() { Load() })
}
