package mapper

import (
	"net/url"
	"strings"

	"referral-staking-backend/internal/domain/ledger"
	"referral-staking-backend/internal/features/referral/models"
)

// ReferralLink builds base?ref=code, keeping any query already on base.
func ReferralLink(base, code string) string {
	u, err := url.Parse(base)
	if err != nil || base == "" {
		return strings.TrimRight(base, "?") + "?ref=" + url.QueryEscape(code)
	}
	q := u.Query()
	q.Set("ref", code)
	u.RawQuery = q.Encode()
	return u.String()
}

// ToSaveWalletResponse maps a user to the registration response
func ToSaveWalletResponse(u *ledger.User, isNew bool) *models.SaveWalletResponse {
	return &models.SaveWalletResponse{
		WalletAddress: u.WalletAddress,
		WalletType:    string(u.WalletType),
		ReferralCode:  u.ReferralCode,
		IsNew:         isNew,
		TokenBalance:  u.TokenBalance,
		TotalEarned:   u.TotalEarned,
		TotalStaked:   u.TotalStaked,
	}
}

// ToUserStatsResponse maps stored aggregates to the stats projection
func ToUserStatsResponse(u *ledger.User, referrals int, b ledger.RewardBreakdown, baseURL string) *models.UserStatsResponse {
	return &models.UserStatsResponse{
		WalletAddress:     u.WalletAddress,
		ReferralCode:      u.ReferralCode,
		ReferralLink:      ReferralLink(baseURL, u.ReferralCode),
		TotalReferrals:    referrals,
		TokenBalance:      u.TokenBalance,
		TotalEarned:       u.TotalEarned,
		TotalStaked:       u.TotalStaked,
		EarnedFromStaking: b.EarnedFromStaking(),
		RewardBreakdown: models.RewardBreakdown{
			FromSignups:         b.FromSignups,
			FromOwnStaking:      b.FromOwnStaking,
			FromReferralStaking: b.FromReferralStaking,
		},
	}
}
