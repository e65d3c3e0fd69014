package models

import "time"

// Savings is the per-user round-up ledger. Exactly one row exists per user
// (uniqueIndex on UserID); it is created lazily on first access or first
// contribution, never at registration.
//
// RoundUpPaise counts lifetime contributions and only ever grows.
// TotalSavedPaise is the spendable balance (contributions minus withdrawals)
// and never goes below zero.
type Savings struct {
	ID               uint `gorm:"primaryKey"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
	UserID           uint           `gorm:"uniqueIndex;not null"`
	User             User           `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	RoundUpPaise     int64          `gorm:"not null;default:0"`
	TotalSavedPaise  int64          `gorm:"not null;default:0"`
	MonthlyGoalPaise int64          `gorm:"not null;default:0"` // optional target, 0 = unset
	LastUpdated      time.Time      `gorm:"not null"`
	History          []SavingsEntry `gorm:"foreignKey:SavingsID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

// SavingsEntry is one append-only history record of a round-up contribution
// applied by a payment.
type SavingsEntry struct {
	ID           uint `gorm:"primaryKey"`
	CreatedAt    time.Time
	SavingsID    uint   `gorm:"index;not null"`
	TxnRef       string `gorm:"size:64;not null;uniqueIndex"` // generated payment reference
	RoundUpPaise int64  `gorm:"not null"`
}
