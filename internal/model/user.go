package model

import "time"

// User is a registered resident. Identity is asserted by the caller; nothing here authenticates.
type User struct {
	ID          string `gorm:"primaryKey;size:64"`
	DisplayName string `gorm:"size:128;not null"`
	Handle      string `gorm:"size:128"`
	Level       string `gorm:"size:16"`
	House       string `gorm:"size:64"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
