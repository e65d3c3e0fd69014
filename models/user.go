package models

import (
	"time"
)

// User model. Balance is kept in paise (smallest currency unit) and is only
// mutated by the payment transfer path, never by direct client input.
type User struct {
	ID             uint `gorm:"primaryKey"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
	DeletedAt      *time.Time `gorm:"index"`
	Name           string     `gorm:"size:255;not null"`
	Email          string     `gorm:"size:255;not null;uniqueIndex"`
	HashedPassword []byte     `gorm:"not null"`
	BalancePaise   int64      `gorm:"not null;default:0"`
	UpiID          *string    `gorm:"size:64;uniqueIndex"` // external payment identifier, optional
	Age            *int
	Occupation     string `gorm:"size:255"`
	Phone          string `gorm:"size:64"`
	Address        string `gorm:"size:512"`
	Bio            string `gorm:"size:1024"`
	ProfilePicture string `gorm:"size:512"` // public relative path (e.g. public/avatars/xxx.jpg)
	Transactions   []Transaction
}
