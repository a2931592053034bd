package models

import "time"

// Giftcode is a bounded-use bonus credit code. Codes are stored uppercased
// and matched case-insensitively. The redeemer set lives in
// GiftcodeRedemption rows; the unique pair index is what makes
// once-per-account hold even if two redemptions race past the in-process
// checks.
type Giftcode struct {
	ID         string     `gorm:"primaryKey;type:uuid" json:"id"`
	Code       string     `gorm:"uniqueIndex;not null" json:"code"`
	Amount     int64      `gorm:"not null" json:"amount"`
	MaxUses    int        `gorm:"not null" json:"max_uses"`
	ValidFrom  *time.Time `json:"valid_from,omitempty"`
	ValidUntil *time.Time `json:"valid_until,omitempty"`
	Active     bool       `gorm:"not null;default:true" json:"active"`

	Timestamps
}

// GiftcodeRedemption is one account's membership in a code's redeemer set.
type GiftcodeRedemption struct {
	ID         string    `gorm:"primaryKey;type:uuid" json:"id"`
	GiftcodeID string    `gorm:"not null;uniqueIndex:idx_redemption_pair" json:"giftcode_id"`
	AccountID  string    `gorm:"not null;uniqueIndex:idx_redemption_pair" json:"account_id"`
	Amount     int64     `gorm:"not null" json:"amount"`
	CreatedAt  time.Time `json:"created_at" gorm:"autoCreateTime"`
}
