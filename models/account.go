package models

import (
	"time"

	"gorm.io/gorm"
)

// UnlimitedStorage disables quota enforcement for an account.
const UnlimitedStorage int64 = -1

// Account represents a storage tenant. Passwords are stored as bcrypt hashes only.
// UUID (not the numeric ID) keys the account's blob directory on disk.
type Account struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UUID         string    `gorm:"size:36;not null;uniqueIndex" json:"uuid"`
	Username     string    `gorm:"size:64;not null;uniqueIndex" json:"username"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	MaxStorage   int64     `gorm:"not null" json:"max_storage"`
	StorageUsage int64     `gorm:"not null;default:0" json:"storage_usage"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// BeforeCreate hook ensures timestamps are set even when not provided.
func (a *Account) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = now
	return nil
}

// BeforeUpdate ensures the UpdatedAt timestamp is refreshed.
func (a *Account) BeforeUpdate(tx *gorm.DB) error {
	a.UpdatedAt = time.Now()
	return nil
}
