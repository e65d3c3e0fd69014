package models

import "time"

// Transaction types. Stored as plain strings to match the API payloads.
const (
	TypeIncome  = "Income"
	TypeExpense = "Expense"
)

// Transaction represents a single income or expense event belonging to a user.
// Round-up results are not persisted here: a round-up is a one-time event at
// creation, so later edits or deletes of a Transaction never touch the
// savings ledger.
type Transaction struct {
	ID          uint `gorm:"primaryKey"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	UserID      uint      `gorm:"index;not null"`
	Type        string    `gorm:"size:16;not null"` // Income | Expense
	Category    string    `gorm:"size:64;not null"`
	Description string    `gorm:"size:512"`
	AmountPaise int64     `gorm:"not null"` // smallest currency unit (paise)
	Date        time.Time `gorm:"not null;index"`
}
