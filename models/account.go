package models

import (
	"time"

	"gorm.io/gorm"
)

// Account is the ledger record for one registered user. It is the single
// source of truth for the point balance; every writer service mutates it
// under the per-account lock.
type Account struct {
	ID             string `gorm:"primaryKey;type:uuid" json:"id"`
	ExternalUserID string `gorm:"uniqueIndex;not null" json:"external_user_id"` // gateway identity
	DisplayName    string `gorm:"not null" json:"display_name"`

	// Balance never goes negative; every mutation is a signed delta applied
	// inside a transaction while the account lock is held.
	Balance int64 `gorm:"not null;default:0" json:"balance"`

	// Monotone earning counters, split by source. The auditor reconciles the
	// balance against their sum.
	TotalTaskEarned     int64 `gorm:"not null;default:0" json:"total_task_earned"`
	TotalGiftcodeEarned int64 `gorm:"not null;default:0" json:"total_giftcode_earned"`
	TotalReferralEarned int64 `gorm:"not null;default:0" json:"total_referral_earned"`

	TasksToday int        `gorm:"not null;default:0" json:"tasks_today"`
	LastTaskAt *time.Time `json:"last_task_at,omitempty"`

	TrustScore int    `gorm:"not null;default:100" json:"trust_score"` // 0-100, auditor-owned
	Banned     bool   `gorm:"not null;default:false;index" json:"banned"`
	BanReason  string `json:"ban_reason,omitempty"`

	// VIP multiplier applied to task rewards only, stored as a rational so
	// credited = floor(reward * num / den) stays in integer points.
	VIP           bool `gorm:"not null;default:false" json:"vip"`
	MultiplierNum int  `gorm:"not null;default:1" json:"multiplier_num"`
	MultiplierDen int  `gorm:"not null;default:1" json:"multiplier_den"`

	ReferredBy    *string `gorm:"index" json:"referred_by,omitempty"` // referrer's account ID
	ReferralCount int     `gorm:"not null;default:0" json:"referral_count"`

	// Payout details for withdrawals.
	BankInfo string `json:"bank_info,omitempty"`
	GameID   string `json:"game_id,omitempty"`

	Timestamps
}

// Multiplier returns the task-reward multiplier as numerator/denominator.
// Non-VIP accounts always get 1/1 regardless of stored values.
func (a *Account) Multiplier() (int, int) {
	if !a.VIP || a.MultiplierNum < a.MultiplierDen || a.MultiplierDen <= 0 {
		return 1, 1
	}
	return a.MultiplierNum, a.MultiplierDen
}

// ChannelCounter tracks per-channel task completions for one account.
// Rows are cleared by the daily reset.
type ChannelCounter struct {
	ID        string `gorm:"primaryKey;type:uuid" json:"id"`
	AccountID string `gorm:"not null;uniqueIndex:idx_channel_counter_pair" json:"account_id"`
	ChannelID string `gorm:"not null;uniqueIndex:idx_channel_counter_pair" json:"channel_id"`
	Count     int    `gorm:"not null;default:0" json:"count"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}
