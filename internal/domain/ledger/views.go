package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// Page is a 1-based page request.
type Page struct {
	Page     int
	PageSize int
}

const (
	DefaultPageSize = 25
	MaxPageSize     = 200
)

// Normalize clamps the page into sane bounds.
func (p Page) Normalize() Page {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
	return p
}

func (p Page) Offset() int { return (p.Page - 1) * p.PageSize }

type UserFilter struct {
	Search     string
	WalletType WalletType
	Page
}

type ReferralFilter struct {
	Search    string
	BonusPaid *bool
	Page
}

// DaysRemainingBucket mirrors the operator filter on locked stakes.
type DaysRemainingBucket string

const (
	BucketExpired      DaysRemainingBucket = "expired"
	BucketLessThan30   DaysRemainingBucket = "less_than_30"
	Bucket30To90       DaysRemainingBucket = "30_to_90"
	BucketMoreThan90   DaysRemainingBucket = "more_than_90"
	BucketUnrestricted DaysRemainingBucket = ""
)

func (b DaysRemainingBucket) Valid() bool {
	switch b {
	case BucketExpired, BucketLessThan30, Bucket30To90, BucketMoreThan90, BucketUnrestricted:
		return true
	}
	return false
}

type StakeFilter struct {
	Search        string
	IsUnlocked    *bool
	DaysRemaining DaysRemainingBucket
	Now           time.Time
	Page
}

type RewardFilter struct {
	Search     string
	RewardType RewardType
	IsPaid     *bool
	Page
}

// UserSummary is a user row with its referral count.
type UserSummary struct {
	User
	ReferralCount int `db:"referral_count" json:"referral_count"`
}

type ReferralView struct {
	Referral
	ReferrerWallet string `db:"referrer_wallet" json:"referrer_wallet"`
	ReferrerCode   string `db:"referrer_code" json:"referrer_code"`
	RefereeWallet  string `db:"referee_wallet" json:"referee_wallet"`
	RefereeCode    string `db:"referee_code" json:"referee_code"`
}

type StakeView struct {
	Stake
	WalletAddress string `db:"wallet_address" json:"wallet_address"`
	ReferralCode  string `db:"referral_code" json:"referral_code"`
}

type RewardView struct {
	Reward
	WalletAddress string  `db:"wallet_address" json:"wallet_address"`
	ReferralCode  string  `db:"referral_code" json:"referral_code"`
	StakeTxHash   *string `db:"stake_tx_hash" json:"stake_tx_hash,omitempty"`
}

// DashboardTotals are the global aggregates shown to operators.
type DashboardTotals struct {
	TotalUsers        int             `db:"total_users"`
	TotalReferrals    int             `db:"total_referrals"`
	TotalStakes       int             `db:"total_stakes"`
	TotalRewards      int             `db:"total_rewards"`
	TotalTokenBalance decimal.Decimal `db:"total_token_balance"`
	TotalStaked       decimal.Decimal `db:"total_staked"`
	TotalEarned       decimal.Decimal `db:"total_earned"`
	ActiveStakes      int             `db:"active_stakes"`
	UnlockedStakes    int             `db:"unlocked_stakes"`
	UnlockableStakes  int             `db:"unlockable_stakes"`
	NewUsersToday     int             `db:"new_users_today"`
	NewStakesToday    int             `db:"new_stakes_today"`
}

type MonthlyStakeStat struct {
	Month  time.Time       `db:"month" json:"month"`
	Count  int             `db:"count" json:"count"`
	Amount decimal.Decimal `db:"total" json:"total"`
}
