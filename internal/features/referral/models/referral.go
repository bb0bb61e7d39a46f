package models

import "github.com/shopspring/decimal"

// SaveWalletRequest registers a wallet, optionally with the referral code it arrived with.
type SaveWalletRequest struct {
	WalletAddress string `json:"wallet_address" binding:"required,walletaddr" example:"0x52908400098527886E0F7030069857D2E4169EE7"`
	WalletType    string `json:"wallet_type" binding:"omitempty,oneof=ethereum ton neo" example:"ethereum"`
	ReferralCode  string `json:"referral_code" binding:"omitempty,max=64" example:"Xk3_9aBcD0"`
}

// SaveWalletResponse is returned by registration. Referrer fields are present only
// for a new wallet that supplied a referral code.
type SaveWalletResponse struct {
	WalletAddress      string           `json:"wallet_address"`
	WalletType         string           `json:"wallet_type"`
	ReferralCode       string           `json:"referral_code"`
	IsNew              bool             `json:"is_new"`
	TokenBalance       decimal.Decimal  `json:"token_balance" swaggertype:"string" example:"0"`
	TotalEarned        decimal.Decimal  `json:"total_earned" swaggertype:"string" example:"0"`
	TotalStaked        decimal.Decimal  `json:"total_staked" swaggertype:"string" example:"0"`
	ReferrerBonusGiven *bool            `json:"referrer_bonus_given,omitempty"`
	ReferrerReceived   *decimal.Decimal `json:"referrer_received,omitempty" swaggertype:"string" example:"3"`
}

type RewardBreakdown struct {
	FromSignups         decimal.Decimal `json:"from_signups" swaggertype:"string"`
	FromOwnStaking      decimal.Decimal `json:"from_own_staking" swaggertype:"string"`
	FromReferralStaking decimal.Decimal `json:"from_referral_staking" swaggertype:"string"`
}

// UserStatsResponse is the read projection of a wallet's referral and reward state.
type UserStatsResponse struct {
	WalletAddress     string          `json:"wallet_address"`
	ReferralCode      string          `json:"referral_code"`
	ReferralLink      string          `json:"referral_link" example:"http://localhost:3000?ref=Xk3_9aBcD0"`
	TotalReferrals    int             `json:"total_referrals"`
	TokenBalance      decimal.Decimal `json:"token_balance" swaggertype:"string"`
	TotalEarned       decimal.Decimal `json:"total_earned" swaggertype:"string"`
	TotalStaked       decimal.Decimal `json:"total_staked" swaggertype:"string"`
	EarnedFromStaking decimal.Decimal `json:"earned_from_staking" swaggertype:"string"`
	RewardBreakdown   RewardBreakdown `json:"reward_breakdown"`
}
