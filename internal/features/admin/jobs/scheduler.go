package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"referral-staking-backend/internal/common/logger"
	"referral-staking-backend/internal/common/metrics"
	"referral-staking-backend/internal/domain/ledger"
)

const (
	ledgerGaugesJob = "ledger_gauges"
	limiterCleanup  = "rate_limiter_cleanup"

	jobTimeout = 30 * time.Second

	// maxLimiterKeys caps the per-IP bucket map between cleanups.
	maxLimiterKeys = 10000
)

// TotalsSource provides the aggregates published as gauges.
type TotalsSource interface {
	GetDashboardTotals(ctx context.Context, dayStart, now time.Time) (*ledger.DashboardTotals, error)
}

// Cleaner is implemented by the rate limiter.
type Cleaner interface {
	Cleanup(maxKeys int)
}

// Scheduler runs periodic maintenance jobs.
type Scheduler struct {
	cron    *cron.Cron
	totals  TotalsSource
	limiter Cleaner
	now     func() time.Time
	log     zerolog.Logger
}

func NewScheduler(totals TotalsSource, limiter Cleaner) *Scheduler {
	return &Scheduler{
		cron:    cron.New(),
		totals:  totals,
		limiter: limiter,
		now:     time.Now,
		log:     logger.Component("jobs"),
	}
}

// Register schedules the gauge refresh on the given cron expression. The limiter is
// cleaned up hourly.
func (s *Scheduler) Register(spec string) error {
	if _, err := s.cron.AddFunc(spec, func() { s.run(ledgerGaugesJob, s.RefreshLedgerGauges) }); err != nil {
		return err
	}
	if s.limiter != nil {
		if _, err := s.cron.AddFunc("@hourly", func() {
			s.run(limiterCleanup, func(context.Context) error {
				s.limiter.Cleanup(maxLimiterKeys)
				return nil
			})
		}); err != nil {
			return err
		}
	}
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Int("jobs", len(s.cron.Entries())).Msg("Scheduler started")
}

// Stop waits for running jobs or until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.log.Warn().Msg("Scheduler stop timed out")
	}
}

func (s *Scheduler) run(name string, job func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	start := time.Now()
	err := job(ctx)
	metrics.RecordJobRun(name, err == nil)
	if err != nil {
		s.log.Error().Err(err).Str("job", name).Msg("Job failed")
		return
	}
	s.log.Debug().Str("job", name).Dur("took", time.Since(start)).Msg("Job finished")
}

// RefreshLedgerGauges publishes the global ledger aggregates.
func (s *Scheduler) RefreshLedgerGauges(ctx context.Context) error {
	now := s.now().UTC()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	t, err := s.totals.GetDashboardTotals(ctx, dayStart, now)
	if err != nil {
		return err
	}

	tokenBalance, _ := t.TotalTokenBalance.Float64()
	staked, _ := t.TotalStaked.Float64()
	earned, _ := t.TotalEarned.Float64()

	metrics.SetLedgerGauge("users", float64(t.TotalUsers))
	metrics.SetLedgerGauge("referrals", float64(t.TotalReferrals))
	metrics.SetLedgerGauge("stakes_active", float64(t.ActiveStakes))
	metrics.SetLedgerGauge("stakes_unlocked", float64(t.UnlockedStakes))
	metrics.SetLedgerGauge("stakes_unlockable", float64(t.UnlockableStakes))
	metrics.SetLedgerGauge("rewards", float64(t.TotalRewards))
	metrics.SetLedgerGauge("token_balance", tokenBalance)
	metrics.SetLedgerGauge("total_staked", staked)
	metrics.SetLedgerGauge("total_earned", earned)
	return nil
}
