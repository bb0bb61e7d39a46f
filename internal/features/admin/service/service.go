package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	apperrors "referral-staking-backend/internal/common/errors"
	"referral-staking-backend/internal/common/logger"
	"referral-staking-backend/internal/domain/ledger"
	"referral-staking-backend/internal/features/admin/models"
	stakingservice "referral-staking-backend/internal/features/staking/service"
)

const (
	topListSize  = 10
	reportMonths = 12
)

type adminService struct {
	repo     ledger.AdminRepository
	unlocker StakeUnlocker
	now      func() time.Time
	log      zerolog.Logger
}

func NewAdminService(repo ledger.AdminRepository, unlocker StakeUnlocker, now func() time.Time) AdminService {
	if now == nil {
		now = time.Now
	}
	return &adminService{
		repo:     repo,
		unlocker: unlocker,
		now:      now,
		log:      logger.Component("admin"),
	}
}

func newPage[T any](items []T, total int, p ledger.Page) *models.PageResponse[T] {
	if items == nil {
		items = []T{}
	}
	return &models.PageResponse[T]{Items: items, Total: total, Page: p.Page, PageSize: p.PageSize}
}

func (s *adminService) ListUsers(ctx context.Context, f ledger.UserFilter) (*models.PageResponse[ledger.UserSummary], error) {
	f.Page = f.Page.Normalize()
	items, total, err := s.repo.ListUsers(ctx, f)
	if err != nil {
		return nil, apperrors.NewDatabaseError("list users", err)
	}
	return newPage(items, total, f.Page), nil
}

func (s *adminService) ListReferrals(ctx context.Context, f ledger.ReferralFilter) (*models.PageResponse[ledger.ReferralView], error) {
	f.Page = f.Page.Normalize()
	items, total, err := s.repo.ListReferrals(ctx, f)
	if err != nil {
		return nil, apperrors.NewDatabaseError("list referrals", err)
	}
	return newPage(items, total, f.Page), nil
}

func (s *adminService) ListStakes(ctx context.Context, f ledger.StakeFilter) (*models.PageResponse[ledger.StakeView], error) {
	if !f.DaysRemaining.Valid() {
		return nil, apperrors.NewValidationError("days_remaining", "unknown bucket")
	}
	f.Page = f.Page.Normalize()
	if f.Now.IsZero() {
		f.Now = s.now()
	}
	items, total, err := s.repo.ListStakes(ctx, f)
	if err != nil {
		return nil, apperrors.NewDatabaseError("list stakes", err)
	}
	return newPage(items, total, f.Page), nil
}

func (s *adminService) ListRewards(ctx context.Context, f ledger.RewardFilter) (*models.PageResponse[ledger.RewardView], error) {
	if f.RewardType != "" && !f.RewardType.Valid() {
		return nil, apperrors.NewValidationError("reward_type", "unknown reward type")
	}
	f.Page = f.Page.Normalize()
	items, total, err := s.repo.ListRewards(ctx, f)
	if err != nil {
		return nil, apperrors.NewDatabaseError("list rewards", err)
	}
	return newPage(items, total, f.Page), nil
}

// UnlockStakes проводит разблокировку по каждому id отдельной транзакцией.
// Уже разблокированные и несуществующие стейки пропускаются.
func (s *adminService) UnlockStakes(ctx context.Context, ids []int64, force bool) (*models.BatchUnlockResponse, error) {
	ids = uniqueIDs(ids)
	resp := &models.BatchUnlockResponse{Requested: len(ids), Skipped: []models.SkippedItem{}}

	opts := stakingservice.UnlockOptions{Force: true, MoveUnlockDate: force}
	for _, id := range ids {
		_, err := s.unlocker.Unlock(ctx, id, opts)
		if err == nil {
			resp.Unlocked++
			continue
		}

		appErr, ok := apperrors.AsAppError(err)
		if ok && (appErr.Code == apperrors.ErrCodeStakeAlreadyUnlocked || appErr.Code == apperrors.ErrCodeStakeNotFound) {
			resp.Skipped = append(resp.Skipped, models.SkippedItem{ID: id, Reason: string(appErr.Code)})
			continue
		}
		return nil, err
	}

	s.log.Info().
		Int("requested", resp.Requested).
		Int("unlocked", resp.Unlocked).
		Bool("force", force).
		Msg("Admin stake unlock")

	return resp, nil
}

func (s *adminService) MarkRewardsPaid(ctx context.Context, ids []int64) (*models.MarkPaidResponse, error) {
	n, err := s.repo.MarkRewardsPaid(ctx, uniqueIDs(ids), s.now())
	if err != nil {
		return nil, apperrors.NewDatabaseError("mark rewards paid", err)
	}
	s.log.Info().Int64("updated", n).Msg("Rewards marked as paid")
	return &models.MarkPaidResponse{Updated: n}, nil
}

func (s *adminService) Dashboard(ctx context.Context) (*models.DashboardResponse, error) {
	now := s.now().UTC()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	totals, err := s.repo.GetDashboardTotals(ctx, dayStart, now)
	if err != nil {
		return nil, apperrors.NewDatabaseError("dashboard totals", err)
	}
	referrers, err := s.repo.TopReferrers(ctx, topListSize)
	if err != nil {
		return nil, apperrors.NewDatabaseError("top referrers", err)
	}
	stakers, err := s.repo.TopStakers(ctx, topListSize)
	if err != nil {
		return nil, apperrors.NewDatabaseError("top stakers", err)
	}

	if referrers == nil {
		referrers = []ledger.UserSummary{}
	}
	if stakers == nil {
		stakers = []ledger.UserSummary{}
	}

	return &models.DashboardResponse{
		TotalUsers:         totals.TotalUsers,
		TotalReferrals:     totals.TotalReferrals,
		TotalStakings:      totals.TotalStakes,
		TotalRewards:       totals.TotalRewards,
		TotalTokenBalance:  totals.TotalTokenBalance,
		TotalStakedAmount:  totals.TotalStaked,
		TotalEarnedAmount:  totals.TotalEarned,
		ActiveStakings:     totals.ActiveStakes,
		UnlockedStakings:   totals.UnlockedStakes,
		UnlockableStakings: totals.UnlockableStakes,
		NewUsersToday:      totals.NewUsersToday,
		NewStakingsToday:   totals.NewStakesToday,
		TopReferrers:       referrers,
		TopStakers:         stakers,
	}, nil
}

func (s *adminService) MonthlyReport(ctx context.Context) (*models.MonthlyReportResponse, error) {
	stats, err := s.repo.MonthlyStakeReport(ctx, reportMonths)
	if err != nil {
		return nil, apperrors.NewDatabaseError("monthly report", err)
	}
	if stats == nil {
		stats = []ledger.MonthlyStakeStat{}
	}
	return &models.MonthlyReportResponse{Months: stats}, nil
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
