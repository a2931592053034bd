package models

// TaskChannel is one configured task provider entry: how many points a
// completed visit pays and how many completions one account may do per day.
// Managed by admins; the ID is a slug derived from the name.
type TaskChannel struct {
	ID           string `gorm:"primaryKey" json:"id"`
	Name         string `gorm:"not null" json:"name"`
	RewardPoints int64  `gorm:"not null" json:"reward_points"`
	DailyLimit   int    `gorm:"not null;default:10" json:"daily_limit"`
	Active       bool   `gorm:"not null;default:true" json:"active"`

	Timestamps
}
