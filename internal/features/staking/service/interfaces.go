package service

import (
	"context"
	"time"

	"referral-staking-backend/internal/domain/ledger"
	"referral-staking-backend/internal/features/staking/models"
)

type StakingService interface {
	CreateStake(ctx context.Context, in CreateStakeInput) (*models.StakeResponse, error)
	UnlockStake(ctx context.Context, stakeID int64) (*models.UnlockResponse, error)
	ListStakes(ctx context.Context, wallet string) (*models.StakeListResponse, error)

	// Unlock runs the unlock settlement with admin overrides.
	Unlock(ctx context.Context, stakeID int64, opts UnlockOptions) (*ledger.Stake, error)
}

type CreateStakeInput struct {
	WalletAddress string
	Amount        string
	TxHash        string
}

type UnlockOptions struct {
	// Force skips the term check.
	Force bool
	// MoveUnlockDate sets unlock_date to the unlock time.
	MoveUnlockDate bool
}

type Options struct {
	Now func() time.Time
}
