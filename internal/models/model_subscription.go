package models

import "time"

// Subscription is an active entitlement for a (user, group) pair. A row with
// ExpireAt in the future is the sole authority for group access; a repurchase
// replaces the expiry rather than stacking durations.
type Subscription struct {
	UserID    int64     `gorm:"column:user_id;primaryKey;autoIncrement:false" json:"user_id"`
	GroupID   int64     `gorm:"column:group_id;primaryKey;autoIncrement:false" json:"group_id"`
	ExpireAt  time.Time `gorm:"column:expire_at;not null;index" json:"expire_at"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Subscription) TableName() string {
	return "subscription"
}

// ValidAt reports whether the entitlement is live at the given instant.
func (s *Subscription) ValidAt(at time.Time) bool {
	return s != nil && s.ExpireAt.After(at)
}
