package service

import (
	"context"

	"referral-staking-backend/internal/domain/ledger"
	"referral-staking-backend/internal/features/admin/models"
	stakingservice "referral-staking-backend/internal/features/staking/service"
)

type AdminService interface {
	ListUsers(ctx context.Context, f ledger.UserFilter) (*models.PageResponse[ledger.UserSummary], error)
	ListReferrals(ctx context.Context, f ledger.ReferralFilter) (*models.PageResponse[ledger.ReferralView], error)
	ListStakes(ctx context.Context, f ledger.StakeFilter) (*models.PageResponse[ledger.StakeView], error)
	ListRewards(ctx context.Context, f ledger.RewardFilter) (*models.PageResponse[ledger.RewardView], error)

	// UnlockStakes settles each still-locked stake without the term check.
	// force also moves unlock_date to the unlock time.
	UnlockStakes(ctx context.Context, ids []int64, force bool) (*models.BatchUnlockResponse, error)
	MarkRewardsPaid(ctx context.Context, ids []int64) (*models.MarkPaidResponse, error)

	Dashboard(ctx context.Context) (*models.DashboardResponse, error)
	MonthlyReport(ctx context.Context) (*models.MonthlyReportResponse, error)
}

// StakeUnlocker runs the unlock settlement. Implemented by the staking service.
type StakeUnlocker interface {
	Unlock(ctx context.Context, stakeID int64, opts stakingservice.UnlockOptions) (*ledger.Stake, error)
}
