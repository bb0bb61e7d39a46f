package service

import (
	"context"
	"time"

	"referral-staking-backend/internal/features/referral/models"
)

type ReferralService interface {
	Register(ctx context.Context, in RegisterInput) (*models.SaveWalletResponse, error)
	GetStats(ctx context.Context, wallet string) (*models.UserStatsResponse, error)
}

type RegisterInput struct {
	WalletAddress string
	WalletType    string
	ReferralCode  string
}

type Options struct {
	BaseURL          string
	StrictValidation bool
	Now              func() time.Time
}
