package models

import "time"

// SessionToken is the single live bearer credential of an account.
// The unique index on AccountID makes the relation insert-or-overwrite:
// issuing a new token replaces the previous row, which invalidates the old
// token value immediately.
type SessionToken struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Token     string    `gorm:"size:128;not null;uniqueIndex" json:"-"`
	AccountID uint      `gorm:"not null;uniqueIndex" json:"account_id"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Expired reports whether the token is past its expiry.
func (t *SessionToken) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}
