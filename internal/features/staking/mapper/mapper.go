package mapper

import (
	"time"

	"github.com/shopspring/decimal"

	"referral-staking-backend/internal/domain/ledger"
	"referral-staking-backend/internal/features/staking/models"
	"referral-staking-backend/internal/settlement"
)

// ToStakeResponse maps a committed stake to the process response with its invoice
func ToStakeResponse(wallet string, out settlement.StakeOutcome, staker *ledger.User, now time.Time) *models.StakeResponse {
	s := out.Stake
	return &models.StakeResponse{
		Success:         true,
		StakingID:       s.ID,
		Amount:          s.Amount,
		UserBonus:       out.UserBonus,
		ReferrerBonus:   out.ReferrerBonus,
		NewTokenBalance: staker.TokenBalance,
		TotalStaked:     staker.TotalStaked,
		UnlockDate:      s.UnlockDate,
		Invoice: models.Invoice{
			UserAddress:   wallet,
			Amount:        s.Amount,
			Bonus5Percent: out.UserBonus,
			ReferrerBonus: out.ReferrerBonus,
			StakedAmount:  out.LockedDisplay,
			StakedUntil:   s.UnlockDate,
			DaysRemaining: s.DaysRemaining(now),
			TxHash:        s.TxHash,
		},
	}
}

func ToUnlockResponse(s *ledger.Stake) *models.UnlockResponse {
	resp := &models.UnlockResponse{
		Success: true,
		Message: "Stake unlocked successfully",
		Amount:  s.Amount,
	}
	if s.UnlockedAt != nil {
		resp.UnlockedAt = *s.UnlockedAt
	}
	return resp
}

func ToStakeItem(s *ledger.Stake, now time.Time) models.StakeItem {
	return models.StakeItem{
		ID:            s.ID,
		Amount:        s.Amount,
		BonusReceived: s.BonusReceived,
		ReferrerBonus: s.ReferrerBonus,
		StakedAt:      s.StakedAt,
		UnlockDate:    s.UnlockDate,
		DaysRemaining: s.DaysRemaining(now),
		IsUnlocked:    s.IsUnlocked,
		CanUnlock:     s.CanUnlock(now),
		TxHash:        s.TxHash,
	}
}

// ToStakeListResponse builds the list projection. Time-dependent fields are
// evaluated at now.
func ToStakeListResponse(totalStaked decimal.Decimal, counts ledger.StakeCounts, stakes []ledger.Stake, now time.Time) *models.StakeListResponse {
	items := make([]models.StakeItem, 0, len(stakes))
	for i := range stakes {
		items = append(items, ToStakeItem(&stakes[i], now))
	}
	return &models.StakeListResponse{
		TotalStaked:       totalStaked,
		ActiveStakings:    counts.Active,
		CompletedStakings: counts.Completed,
		Stakings:          items,
	}
}
