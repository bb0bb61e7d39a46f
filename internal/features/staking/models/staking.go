package models

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// AmountInput keeps the literal text of an amount sent either as a JSON
// string or a JSON number, so it can be parsed exactly.
type AmountInput string

func (a *AmountInput) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*a = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = AmountInput(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*a = AmountInput(n.String())
	return nil
}

type ProcessStakeRequest struct {
	WalletAddress string      `json:"wallet_address" binding:"required,walletaddr" example:"0x52908400098527886E0F7030069857D2E4169EE7"`
	Amount        AmountInput `json:"amount" binding:"required" swaggertype:"string" example:"100.5"`
	TxHash        string      `json:"tx_hash" binding:"txhash" example:"0x9f2c..."`
}

// Invoice is the printable summary of a new stake. StakedAmount is informational.
type Invoice struct {
	UserAddress   string          `json:"user_address"`
	Amount        decimal.Decimal `json:"amount" swaggertype:"string"`
	Bonus5Percent decimal.Decimal `json:"bonus_5_percent" swaggertype:"string"`
	ReferrerBonus decimal.Decimal `json:"referrer_bonus" swaggertype:"string"`
	StakedAmount  decimal.Decimal `json:"staked_amount" swaggertype:"string"`
	StakedUntil   time.Time       `json:"staked_until"`
	DaysRemaining int             `json:"days_remaining"`
	TxHash        string          `json:"tx_hash"`
}

type StakeResponse struct {
	Success         bool            `json:"success"`
	StakingID       int64           `json:"staking_id"`
	Amount          decimal.Decimal `json:"amount" swaggertype:"string"`
	UserBonus       decimal.Decimal `json:"user_bonus" swaggertype:"string"`
	ReferrerBonus   decimal.Decimal `json:"referrer_bonus" swaggertype:"string"`
	NewTokenBalance decimal.Decimal `json:"new_token_balance" swaggertype:"string"`
	TotalStaked     decimal.Decimal `json:"total_staked" swaggertype:"string"`
	UnlockDate      time.Time       `json:"unlock_date"`
	Invoice         Invoice         `json:"invoice"`
}

type UnlockResponse struct {
	Success    bool            `json:"success"`
	Message    string          `json:"message"`
	Amount     decimal.Decimal `json:"amount" swaggertype:"string"`
	UnlockedAt time.Time       `json:"unlocked_at"`
}

type StakeItem struct {
	ID            int64           `json:"id"`
	Amount        decimal.Decimal `json:"amount" swaggertype:"string"`
	BonusReceived decimal.Decimal `json:"bonus_received" swaggertype:"string"`
	ReferrerBonus decimal.Decimal `json:"referrer_bonus" swaggertype:"string"`
	StakedAt      time.Time       `json:"staked_at"`
	UnlockDate    time.Time       `json:"unlock_date"`
	DaysRemaining int             `json:"days_remaining"`
	IsUnlocked    bool            `json:"is_unlocked"`
	CanUnlock     bool            `json:"can_unlock"`
	TxHash        string          `json:"tx_hash"`
}

type StakeListResponse struct {
	TotalStaked       decimal.Decimal `json:"total_staked" swaggertype:"string"`
	ActiveStakings    int             `json:"active_stakings"`
	CompletedStakings int             `json:"completed_stakings"`
	Stakings          []StakeItem     `json:"stakings"`
}
