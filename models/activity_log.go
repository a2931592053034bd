package models

import "time"

// ActivityLog is the append-only audit trail of ledger-affecting events.
// Rows are never updated; old rows are archived to object storage and pruned
// by the retention job.
type ActivityLog struct {
	ID        string    `gorm:"primaryKey;type:uuid" json:"id"`
	AccountID string    `gorm:"index;not null" json:"account_id"`
	ActorName string    `json:"actor_name"`
	Action    string    `gorm:"not null" json:"action"`
	Details   string    `json:"details"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime;index"`
}
