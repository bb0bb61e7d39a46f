package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// WalletType tags the chain a wallet address belongs to.
type WalletType string

const (
	WalletTypeEthereum WalletType = "ethereum"
	WalletTypeTON      WalletType = "ton"
	WalletTypeNeo      WalletType = "neo"
)

// DefaultWalletType is assumed when the client does not send one.
const DefaultWalletType = WalletTypeEthereum

func (t WalletType) Valid() bool {
	switch t {
	case WalletTypeEthereum, WalletTypeTON, WalletTypeNeo:
		return true
	}
	return false
}

// User is a wallet-identified participant. Balances are NUMERIC(20,8).
type User struct {
	ID            int64           `db:"id" json:"id"`
	WalletAddress string          `db:"wallet_address" json:"wallet_address"`
	WalletType    WalletType      `db:"wallet_type" json:"wallet_type"`
	ReferralCode  string          `db:"referral_code" json:"referral_code"`
	TokenBalance  decimal.Decimal `db:"token_balance" json:"token_balance"`
	TotalEarned   decimal.Decimal `db:"total_earned" json:"total_earned"`
	// TotalStaked equals the sum of Amount over this user's locked stakes.
	TotalStaked decimal.Decimal `db:"total_staked" json:"total_staked"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
}

// BalanceDelta is applied atomically to a user row: col = col + delta.
type BalanceDelta struct {
	TokenBalance decimal.Decimal
	TotalEarned  decimal.Decimal
	TotalStaked  decimal.Decimal
}

func (d BalanceDelta) IsZero() bool {
	return d.TokenBalance.IsZero() && d.TotalEarned.IsZero() && d.TotalStaked.IsZero()
}

// Referral is the directed referrer -> referee edge. A referee has at most one.
type Referral struct {
	ID                     int64     `db:"id" json:"id"`
	ReferrerID             int64     `db:"referrer_id" json:"referrer_id"`
	RefereeID              int64     `db:"referee_id" json:"referee_id"`
	HasReceivedSignupBonus bool      `db:"has_received_signup_bonus" json:"has_received_signup_bonus"`
	CreatedAt              time.Time `db:"created_at" json:"created_at"`
}

// Stake is principal locked until UnlockDate.
type Stake struct {
	ID            int64           `db:"id" json:"id"`
	UserID        int64           `db:"user_id" json:"user_id"`
	Amount        decimal.Decimal `db:"amount" json:"amount"`
	BonusReceived decimal.Decimal `db:"bonus_received" json:"bonus_received"`
	ReferrerBonus decimal.Decimal `db:"referrer_bonus" json:"referrer_bonus"`
	StakedAt      time.Time       `db:"staked_at" json:"staked_at"`
	UnlockDate    time.Time       `db:"unlock_date" json:"unlock_date"`
	IsUnlocked    bool            `db:"is_unlocked" json:"is_unlocked"`
	UnlockedAt    *time.Time      `db:"unlocked_at" json:"unlocked_at,omitempty"`
	TxHash        string          `db:"tx_hash" json:"tx_hash"`
}

// DaysRemaining returns whole days until UnlockDate, never negative, 0 once unlocked.
func (s *Stake) DaysRemaining(now time.Time) int {
	if s.IsUnlocked {
		return 0
	}
	remaining := s.UnlockDate.Sub(now)
	if remaining <= 0 {
		return 0
	}
	return int(remaining / (24 * time.Hour))
}

// CanUnlock reports whether the term has elapsed and the stake is still locked.
func (s *Stake) CanUnlock(now time.Time) bool {
	return !s.IsUnlocked && !now.Before(s.UnlockDate)
}

// RewardType tags the cause of a reward ledger entry.
type RewardType string

const (
	RewardSignupReferral  RewardType = "signup_referral"
	RewardStakingSelf     RewardType = "staking_self"
	RewardStakingReferral RewardType = "staking_referral"
	RewardStakingUnlock   RewardType = "staking_unlock"
)

func (t RewardType) Valid() bool {
	switch t {
	case RewardSignupReferral, RewardStakingSelf, RewardStakingReferral, RewardStakingUnlock:
		return true
	}
	return false
}

// Reward is an immutable audit entry of a single credit. Only IsPaid/PaidAt
// change after creation, and they have no effect on balances.
type Reward struct {
	ID                int64           `db:"id" json:"id"`
	UserID            int64           `db:"user_id" json:"user_id"`
	Amount            decimal.Decimal `db:"amount" json:"amount"`
	RewardType        RewardType      `db:"reward_type" json:"reward_type"`
	RelatedStakeID    *int64          `db:"related_stake_id" json:"related_stake_id,omitempty"`
	RelatedReferralID *int64          `db:"related_referral_id" json:"related_referral_id,omitempty"`
	IsPaid            bool            `db:"is_paid" json:"is_paid"`
	PaidAt            *time.Time      `db:"paid_at" json:"paid_at,omitempty"`
	CreatedAt         time.Time       `db:"created_at" json:"created_at"`
}

// RewardBreakdown sums a user's rewards by cause.
type RewardBreakdown struct {
	FromSignups         decimal.Decimal `db:"from_signups"`
	FromOwnStaking      decimal.Decimal `db:"from_own_staking"`
	FromReferralStaking decimal.Decimal `db:"from_referral_staking"`
}

// EarnedFromStaking is own + referral staking rewards.
func (b RewardBreakdown) EarnedFromStaking() decimal.Decimal {
	return b.FromOwnStaking.Add(b.FromReferralStaking)
}

// StakeCounts is the active/completed split of a user's stakes.
type StakeCounts struct {
	Active    int `db:"active"`
	Completed int `db:"completed"`
}
