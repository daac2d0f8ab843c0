package models

import "time"

// FileRecord describes one stored blob. The blob itself lives at
// <storage dir>/<account uuid>/<filename>; a record must exist if and only
// if its blob does. Filenames are unique per account, never overwritten.
type FileRecord struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	AccountID uint      `gorm:"not null;uniqueIndex:idx_account_filename" json:"-"`
	Filename  string    `gorm:"size:255;not null;uniqueIndex:idx_account_filename" json:"filename"`
	Filetype  string    `gorm:"size:64;not null" json:"filetype"`
	Size      int64     `gorm:"not null" json:"size"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
