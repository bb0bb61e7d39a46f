package settlement

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"referral-staking-backend/internal/common/config"
	"referral-staking-backend/internal/domain/ledger"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestParseAmount(t *testing.T) {
	valid := map[string]string{
		"100":                   "100",
		"0.00000001":            "0.00000001",
		" 42.5 ":                "42.5",
		"999999999999.99999999": "999999999999.99999999",
		"1.000000000":           "1",
	}
	for raw, want := range valid {
		got, err := ParseAmount(raw)
		require.NoError(t, err, raw)
		assert.True(t, dec(want).Equal(got), "%s parsed as %s", raw, got)
	}

	invalid := []string{"", "abc", "0", "-5", "1.123456789", "1000000000000", "1e3", "NaN"}
	for _, raw := range invalid {
		_, err := ParseAmount(raw)
		require.Error(t, err, raw)
		var ae *AmountError
		assert.True(t, errors.As(err, &ae), raw)
	}
}

func TestSignup(t *testing.T) {
	p := DefaultPolicy()
	now := time.Now()
	out := p.Signup(1, 7, now)

	assert.True(t, dec("3").Equal(out.ReferrerDelta.TokenBalance))
	assert.True(t, dec("3").Equal(out.ReferrerDelta.TotalEarned))
	assert.True(t, out.ReferrerDelta.TotalStaked.IsZero())
	assert.Equal(t, ledger.RewardSignupReferral, out.Reward.RewardType)
	require.NotNil(t, out.Reward.RelatedReferralID)
	assert.Equal(t, int64(7), *out.Reward.RelatedReferralID)
	assert.Nil(t, out.Reward.RelatedStakeID)
}

func TestStakeWithReferrer(t *testing.T) {
	p := DefaultPolicy()
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	out := p.Stake(2, dec("100"), "0xabc", true, now)

	assert.True(t, dec("5").Equal(out.UserBonus))
	assert.True(t, dec("5").Equal(out.ReferrerBonus))
	assert.True(t, dec("95").Equal(out.LockedDisplay))
	assert.True(t, dec("100").Equal(out.StakerDelta.TotalStaked))
	assert.True(t, dec("5").Equal(out.StakerDelta.TokenBalance))
	assert.True(t, dec("5").Equal(out.ReferrerDelta.TotalEarned))
	assert.Equal(t, now.Add(365*24*time.Hour), out.Stake.UnlockDate)
	assert.Equal(t, 365, out.Stake.DaysRemaining(now))
	assert.Equal(t, "0xabc", out.Stake.TxHash)
}

func TestStakeWithoutReferrer(t *testing.T) {
	out := DefaultPolicy().Stake(2, dec("50"), "", false, time.Now())

	assert.True(t, dec("2.5").Equal(out.UserBonus))
	assert.True(t, out.ReferrerBonus.IsZero())
	assert.True(t, out.ReferrerDelta.IsZero())
	assert.True(t, out.Stake.ReferrerBonus.IsZero())
}

func TestStakeBonusRoundsToScale(t *testing.T) {
	out := DefaultPolicy().Stake(1, dec("0.00000001"), "", true, time.Now())

	// 0.0000000005 is below half a unit
	assert.True(t, out.UserBonus.IsZero())

	out = DefaultPolicy().Stake(1, dec("0.0000003"), "", true, time.Now())
	assert.True(t, dec("0.00000002").Equal(out.UserBonus), out.UserBonus.String())
}

func TestRewardsLinkToStake(t *testing.T) {
	out := DefaultPolicy().Stake(3, dec("10"), "", true, time.Now())
	out.Stake.ID = 11

	self := SelfReward(&out.Stake)
	assert.Equal(t, ledger.RewardStakingSelf, self.RewardType)
	assert.Equal(t, int64(3), self.UserID)
	assert.Equal(t, int64(11), *self.RelatedStakeID)
	assert.True(t, dec("0.5").Equal(self.Amount))

	ref := ReferrerReward(9, &ledger.Referral{ID: 4, ReferrerID: 9, RefereeID: 3}, &out.Stake)
	assert.Equal(t, ledger.RewardStakingReferral, ref.RewardType)
	assert.Equal(t, int64(9), ref.UserID)
	assert.Equal(t, int64(4), *ref.RelatedReferralID)
	assert.Nil(t, ref.RelatedStakeID)
}

func TestCheckUnlock(t *testing.T) {
	now := time.Now()
	s := &ledger.Stake{ID: 1, Amount: dec("100"), UnlockDate: now.Add(10*24*time.Hour + time.Hour)}

	r := CheckUnlock(s, now, false)
	require.NotNil(t, r)
	assert.False(t, r.AlreadyUnlocked)
	assert.Equal(t, 10, r.DaysRemaining)

	assert.Nil(t, CheckUnlock(s, now, true))
	assert.Nil(t, CheckUnlock(s, s.UnlockDate, false))

	s.IsUnlocked = true
	r = CheckUnlock(s, now, true)
	require.NotNil(t, r)
	assert.True(t, r.AlreadyUnlocked)
}

func TestUnlock(t *testing.T) {
	s := &ledger.Stake{ID: 5, UserID: 2, Amount: dec("100")}
	out := Unlock(s, time.Now())

	assert.True(t, dec("-100").Equal(out.OwnerDelta.TotalStaked))
	assert.True(t, out.OwnerDelta.TokenBalance.IsZero())
	assert.True(t, out.OwnerDelta.TotalEarned.IsZero())
	assert.Equal(t, ledger.RewardStakingUnlock, out.Reward.RewardType)
	assert.True(t, dec("100").Equal(out.Reward.Amount))
	assert.Equal(t, int64(5), *out.Reward.RelatedStakeID)
}

func TestPolicyFromConfig(t *testing.T) {
	p := PolicyFromConfig(config.RewardsConfig{SignupBonus: dec("10"), TermDays: 30})
	assert.True(t, dec("10").Equal(p.SignupBonus))
	assert.True(t, dec("0.05").Equal(p.StakeBonusRate))
	assert.Equal(t, 30*24*time.Hour, p.Term)

	assert.Equal(t, DefaultPolicy(), PolicyFromConfig(config.RewardsConfig{}))
}
