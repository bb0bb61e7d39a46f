// Package settlement computes bonuses and balance deltas for ledger events.
// It performs no I/O; callers apply the returned deltas inside one transaction.
package settlement

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"referral-staking-backend/internal/common/config"
	"referral-staking-backend/internal/domain/ledger"
)

// Scale is the number of fractional digits stored for every monetary column.
const Scale = 8

var (
	// MaxAmount bounds NUMERIC(20,8): 12 integer digits.
	MaxAmount = decimal.New(1, 12)
)

// Policy holds the bonus parameters.
type Policy struct {
	SignupBonus       decimal.Decimal
	StakeBonusRate    decimal.Decimal
	ReferrerBonusRate decimal.Decimal
	LockedShare       decimal.Decimal
	Term              time.Duration
}

func DefaultPolicy() Policy {
	return Policy{
		SignupBonus:       decimal.NewFromInt(3),
		StakeBonusRate:    decimal.RequireFromString("0.05"),
		ReferrerBonusRate: decimal.RequireFromString("0.05"),
		LockedShare:       decimal.RequireFromString("0.95"),
		Term:              365 * 24 * time.Hour,
	}
}

// PolicyFromConfig builds a policy, falling back to defaults for zero values.
func PolicyFromConfig(cfg config.RewardsConfig) Policy {
	p := DefaultPolicy()
	if !cfg.SignupBonus.IsZero() {
		p.SignupBonus = cfg.SignupBonus
	}
	if !cfg.StakeBonusRate.IsZero() {
		p.StakeBonusRate = cfg.StakeBonusRate
	}
	if !cfg.ReferrerBonusRate.IsZero() {
		p.ReferrerBonusRate = cfg.ReferrerBonusRate
	}
	if !cfg.LockedShare.IsZero() {
		p.LockedShare = cfg.LockedShare
	}
	if cfg.TermDays > 0 {
		p.Term = time.Duration(cfg.TermDays) * 24 * time.Hour
	}
	return p
}

// AmountError describes why a raw amount was rejected.
type AmountError struct {
	Raw    string
	Reason string
}

func (e *AmountError) Error() string {
	return fmt.Sprintf("invalid amount %q: %s", e.Raw, e.Reason)
}

// ParseAmount parses a positive decimal with at most Scale fractional digits
// that fits in NUMERIC(20,8).
func ParseAmount(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero, &AmountError{Raw: raw, Reason: "amount is required"}
	}
	if strings.ContainsAny(s, "eE") {
		return decimal.Zero, &AmountError{Raw: raw, Reason: "exponent notation is not accepted"}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, &AmountError{Raw: raw, Reason: "not a decimal number"}
	}
	return d, CheckAmount(d, raw)
}

// CheckAmount validates an already parsed amount.
func CheckAmount(d decimal.Decimal, raw string) error {
	if !d.IsPositive() {
		return &AmountError{Raw: raw, Reason: "amount must be positive"}
	}
	if !d.Equal(d.Truncate(Scale)) {
		return &AmountError{Raw: raw, Reason: fmt.Sprintf("at most %d decimal places allowed", Scale)}
	}
	if d.GreaterThanOrEqual(MaxAmount) {
		return &AmountError{Raw: raw, Reason: "amount is too large"}
	}
	return nil
}

func round(d decimal.Decimal) decimal.Decimal {
	return d.RoundBank(Scale)
}

// SignupOutcome is the referrer credit for a referred signup.
type SignupOutcome struct {
	ReferrerDelta ledger.BalanceDelta
	Reward        ledger.Reward
}

// Signup computes the fixed bonus credited to the referrer of a new user.
func (p Policy) Signup(referrerID, referralID int64, now time.Time) SignupOutcome {
	bonus := round(p.SignupBonus)
	refID := referralID
	return SignupOutcome{
		ReferrerDelta: ledger.BalanceDelta{TokenBalance: bonus, TotalEarned: bonus},
		Reward: ledger.Reward{
			UserID:            referrerID,
			Amount:            bonus,
			RewardType:        ledger.RewardSignupReferral,
			RelatedReferralID: &refID,
			CreatedAt:         now,
		},
	}
}

// StakeOutcome is everything a stake-created event changes.
type StakeOutcome struct {
	Stake         ledger.Stake
	UserBonus     decimal.Decimal
	ReferrerBonus decimal.Decimal
	StakerDelta   ledger.BalanceDelta
	// ReferrerDelta is zero when the staker has no referrer.
	ReferrerDelta ledger.BalanceDelta
	// LockedDisplay is the share of the principal shown on the invoice.
	LockedDisplay decimal.Decimal
}

// Stake computes the stake row and deltas for a deposit of amount by userID.
// hasReferrer selects whether a referrer bonus is paid.
func (p Policy) Stake(userID int64, amount decimal.Decimal, txHash string, hasReferrer bool, now time.Time) StakeOutcome {
	userBonus := round(amount.Mul(p.StakeBonusRate))
	refBonus := decimal.Zero
	var refDelta ledger.BalanceDelta
	if hasReferrer {
		refBonus = round(amount.Mul(p.ReferrerBonusRate))
		refDelta = ledger.BalanceDelta{TokenBalance: refBonus, TotalEarned: refBonus}
	}

	return StakeOutcome{
		Stake: ledger.Stake{
			UserID:        userID,
			Amount:        amount,
			BonusReceived: userBonus,
			ReferrerBonus: refBonus,
			StakedAt:      now,
			UnlockDate:    now.Add(p.Term),
			TxHash:        txHash,
		},
		UserBonus:     userBonus,
		ReferrerBonus: refBonus,
		StakerDelta: ledger.BalanceDelta{
			TokenBalance: userBonus,
			TotalEarned:  userBonus,
			TotalStaked:  amount,
		},
		ReferrerDelta: refDelta,
		LockedDisplay: round(amount.Mul(p.LockedShare)),
	}
}

// SelfReward is the staking_self ledger entry for a persisted stake.
func SelfReward(s *ledger.Stake) ledger.Reward {
	id := s.ID
	return ledger.Reward{
		UserID:         s.UserID,
		Amount:         s.BonusReceived,
		RewardType:     ledger.RewardStakingSelf,
		RelatedStakeID: &id,
		CreatedAt:      s.StakedAt,
	}
}

// ReferrerReward is the staking_referral ledger entry credited to the referrer.
func ReferrerReward(referrerID int64, ref *ledger.Referral, s *ledger.Stake) ledger.Reward {
	refID := ref.ID
	return ledger.Reward{
		UserID:            referrerID,
		Amount:            s.ReferrerBonus,
		RewardType:        ledger.RewardStakingReferral,
		RelatedReferralID: &refID,
		CreatedAt:         s.StakedAt,
	}
}

// UnlockRefusal explains why a stake cannot be unlocked yet.
type UnlockRefusal struct {
	AlreadyUnlocked bool
	DaysRemaining   int
}

// UnlockOutcome is the result of releasing a stake.
type UnlockOutcome struct {
	OwnerDelta ledger.BalanceDelta
	Reward     ledger.Reward
}

// CheckUnlock returns nil when s may be unlocked at now. force skips the term check.
func CheckUnlock(s *ledger.Stake, now time.Time, force bool) *UnlockRefusal {
	if s.IsUnlocked {
		return &UnlockRefusal{AlreadyUnlocked: true}
	}
	if !force && !s.CanUnlock(now) {
		return &UnlockRefusal{DaysRemaining: s.DaysRemaining(now)}
	}
	return nil
}

// Unlock releases the principal from total_staked. token_balance is untouched.
func Unlock(s *ledger.Stake, now time.Time) UnlockOutcome {
	id := s.ID
	return UnlockOutcome{
		OwnerDelta: ledger.BalanceDelta{TotalStaked: s.Amount.Neg()},
		Reward: ledger.Reward{
			UserID:         s.UserID,
			Amount:         s.Amount,
			RewardType:     ledger.RewardStakingUnlock,
			RelatedStakeID: &id,
			CreatedAt:      now,
		},
	}
}
