package models

import (
	"github.com/shopspring/decimal"

	"referral-staking-backend/internal/domain/ledger"
)

type PageQuery struct {
	Page     int `form:"page" json:"page" binding:"omitempty,min=1"`
	PageSize int `form:"page_size" json:"page_size" binding:"omitempty,min=1,max=200"`
}

func (q PageQuery) ToPage() ledger.Page {
	return ledger.Page{Page: q.Page, PageSize: q.PageSize}.Normalize()
}

type UserListQuery struct {
	Search     string `form:"search" json:"search"`
	WalletType string `form:"wallet_type" json:"wallet_type" binding:"omitempty,oneof=ethereum ton neo"`
	PageQuery
}

type ReferralListQuery struct {
	Search    string `form:"search" json:"search"`
	BonusPaid *bool  `form:"bonus_paid" json:"bonus_paid"`
	PageQuery
}

type StakeListQuery struct {
	Search        string `form:"search" json:"search"`
	IsUnlocked    *bool  `form:"is_unlocked" json:"is_unlocked"`
	DaysRemaining string `form:"days_remaining" json:"days_remaining" binding:"omitempty,oneof=expired less_than_30 30_to_90 more_than_90"`
	PageQuery
}

type RewardListQuery struct {
	Search     string `form:"search" json:"search"`
	RewardType string `form:"reward_type" json:"reward_type" binding:"omitempty,oneof=signup_referral staking_self staking_referral staking_unlock"`
	IsPaid     *bool  `form:"is_paid" json:"is_paid"`
	PageQuery
}

// PageResponse is one page of an operator list.
type PageResponse[T any] struct {
	Items    []T `json:"items"`
	Total    int `json:"total"`
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

type IDsRequest struct {
	IDs []int64 `json:"ids" binding:"required,min=1,max=500,dive,gt=0"`
}

type SkippedItem struct {
	ID     int64  `json:"id"`
	Reason string `json:"reason"`
}

type BatchUnlockResponse struct {
	Requested int           `json:"requested"`
	Unlocked  int           `json:"unlocked"`
	Skipped   []SkippedItem `json:"skipped"`
}

type MarkPaidResponse struct {
	Updated int64 `json:"updated"`
}

type DashboardResponse struct {
	TotalUsers         int                  `json:"total_users"`
	TotalReferrals     int                  `json:"total_referrals"`
	TotalStakings      int                  `json:"total_stakings"`
	TotalRewards       int                  `json:"total_rewards"`
	TotalTokenBalance  decimal.Decimal      `json:"total_token_balance" swaggertype:"string"`
	TotalStakedAmount  decimal.Decimal      `json:"total_staked_amount" swaggertype:"string"`
	TotalEarnedAmount  decimal.Decimal      `json:"total_earned_amount" swaggertype:"string"`
	ActiveStakings     int                  `json:"active_stakings"`
	UnlockedStakings   int                  `json:"unlocked_stakings"`
	UnlockableStakings int                  `json:"unlockable_stakings"`
	NewUsersToday      int                  `json:"new_users_today"`
	NewStakingsToday   int                  `json:"new_stakings_today"`
	TopReferrers       []ledger.UserSummary `json:"top_referrers"`
	TopStakers         []ledger.UserSummary `json:"top_stakers"`
}

type MonthlyReportResponse struct {
	Months []ledger.MonthlyStakeStat `json:"monthly_stats"`
}
