package models

import "time"

// WithdrawalStatus is the settlement state of a withdrawal hold.
type WithdrawalStatus string

const (
	WithdrawalStatusPending   WithdrawalStatus = "pending"
	WithdrawalStatusCompleted WithdrawalStatus = "completed"
	WithdrawalStatusRejected  WithdrawalStatus = "rejected"
)

// PayoutType indicates where an approved withdrawal is paid out.
type PayoutType string

const (
	PayoutTypeBank PayoutType = "bank"
	PayoutTypeGame PayoutType = "game"
)

// WithdrawalRequest is a hold against the balance. PointsHeld is debited at
// request time; a rejected settlement refunds it, a completed settlement
// makes the debit permanent.
type WithdrawalRequest struct {
	ID          string           `gorm:"primaryKey;type:uuid" json:"id"`
	AccountID   string           `gorm:"index;not null" json:"account_id"`
	AccountName string           `json:"account_name"`
	Amount      int64            `gorm:"not null" json:"amount"` // external currency units
	PointsHeld  int64            `gorm:"not null" json:"points_held"`
	PayoutType  PayoutType       `gorm:"not null" json:"payout_type"`
	Details     string           `json:"details"`
	Status      WithdrawalStatus `gorm:"not null;default:'pending';index" json:"status"`
	SettledAt   *time.Time       `json:"settled_at,omitempty"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}
