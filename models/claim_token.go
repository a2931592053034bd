package models

import "time"

// ClaimToken is the single outstanding task claim for one (account, channel)
// pair. Re-issuing for the same pair overwrites the row, which implicitly
// invalidates the previous token. Consumed rows are deleted, never updated.
type ClaimToken struct {
	ID           string    `gorm:"primaryKey;type:uuid" json:"id"`
	AccountID    string    `gorm:"not null;uniqueIndex:idx_claim_pair" json:"account_id"`
	ChannelID    string    `gorm:"not null;uniqueIndex:idx_claim_pair" json:"channel_id"`
	Token        string    `gorm:"not null" json:"token"`
	RewardPoints int64     `gorm:"not null" json:"reward_points"`
	IssuedAt     time.Time `gorm:"not null" json:"issued_at"`
}
