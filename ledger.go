package main

import (
	"errors"
	"time"

	"github.com/Yatesh03/Fintract-lite/models"
	"github.com/Yatesh03/Fintract-lite/pkg/roundup"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Sentinel errors for the savings/transfer core. Handlers map these to HTTP
// statuses so clients can branch on the failure category instead of parsing
// message text.
var (
	ErrUserNotFound        = errors.New("payer or receiver not found")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInsufficientSavings = errors.New("insufficient savings balance")
	ErrSelfTransfer        = errors.New("payer and receiver must differ")
)

// getOrCreateSavings returns the user's savings ledger, creating a zeroed one
// on first access. Concurrent first-accesses are resolved by the unique index
// on user_id: the loser of the creation race re-reads the winner's row.
func getOrCreateSavings(tx *gorm.DB, userID uint) (*models.Savings, error) {
	var s models.Savings
	err := tx.Where("user_id = ?", userID).First(&s).Error
	if err == nil {
		return &s, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	s = models.Savings{UserID: userID, LastUpdated: time.Now()}
	if err := tx.Create(&s).Error; err != nil {
		if isUniqueConstraintError(err) { // lost the creation race
			if err2 := tx.Where("user_id = ?", userID).First(&s).Error; err2 != nil {
				return nil, err2
			}
			return &s, nil
		}
		return nil, err
	}
	return &s, nil
}

// applyRoundUpContribution credits paise to both the lifetime round-up
// counter and the spendable savings balance. The increments run as a single
// SQL statement so concurrent contributions for the same user cannot lose
// updates. Must be called inside the transaction of the triggering event.
func applyRoundUpContribution(tx *gorm.DB, userID uint, paise int64) (*models.Savings, error) {
	s, err := getOrCreateSavings(tx, userID)
	if err != nil {
		return nil, err
	}
	err = tx.Model(&models.Savings{}).Where("id = ?", s.ID).Updates(map[string]interface{}{
		"round_up_paise":    gorm.Expr("round_up_paise + ?", paise),
		"total_saved_paise": gorm.Expr("total_saved_paise + ?", paise),
		"last_updated":      time.Now(),
	}).Error
	if err != nil {
		return nil, err
	}
	return s, nil
}

// addManualRoundUp applies a caller-supplied contribution outside any
// transaction or payment (the savings "roundup" endpoint).
func addManualRoundUp(gdb *gorm.DB, userID uint, paise int64) (*models.Savings, error) {
	var out models.Savings
	err := gdb.Transaction(func(tx *gorm.DB) error {
		s, err := applyRoundUpContribution(tx, userID, paise)
		if err != nil {
			return err
		}
		return tx.First(&out, s.ID).Error
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// addToWallet tops up the spendable savings balance only; the lifetime
// round-up counter tracks contributions from round-ups, not manual top-ups.
func addToWallet(gdb *gorm.DB, userID uint, paise int64) (*models.Savings, error) {
	var out models.Savings
	err := gdb.Transaction(func(tx *gorm.DB) error {
		s, err := getOrCreateSavings(tx, userID)
		if err != nil {
			return err
		}
		err = tx.Model(&models.Savings{}).Where("id = ?", s.ID).Updates(map[string]interface{}{
			"total_saved_paise": gorm.Expr("total_saved_paise + ?", paise),
			"last_updated":      time.Now(),
		}).Error
		if err != nil {
			return err
		}
		return tx.First(&out, s.ID).Error
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// setSavingsGoal sets the monthly goal, creating the ledger with the goal
// pre-set when it does not exist yet. The goal axis is independent of the
// balance counters.
func setSavingsGoal(gdb *gorm.DB, userID uint, goalPaise int64) (*models.Savings, error) {
	var out models.Savings
	err := gdb.Transaction(func(tx *gorm.DB) error {
		s, err := getOrCreateSavings(tx, userID)
		if err != nil {
			return err
		}
		err = tx.Model(&models.Savings{}).Where("id = ?", s.ID).Updates(map[string]interface{}{
			"monthly_goal_paise": goalPaise,
			"last_updated":       time.Now(),
		}).Error
		if err != nil {
			return err
		}
		return tx.First(&out, s.ID).Error
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// withdrawFromSavings debits the spendable savings balance. The decrement is
// guarded in SQL (total_saved_paise >= amount) so concurrent withdrawals can
// never drive the balance negative; RoundUpPaise is a lifetime-earned counter
// and stays untouched.
func withdrawFromSavings(gdb *gorm.DB, userID uint, paise int64) (*models.Savings, error) {
	var out models.Savings
	err := gdb.Transaction(func(tx *gorm.DB) error {
		s, err := getOrCreateSavings(tx, userID)
		if err != nil {
			return err
		}
		res := tx.Model(&models.Savings{}).
			Where("id = ? AND total_saved_paise >= ?", s.ID, paise).
			Updates(map[string]interface{}{
				"total_saved_paise": gorm.Expr("total_saved_paise - ?", paise),
				"last_updated":      time.Now(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrInsufficientSavings
		}
		return tx.First(&out, s.ID).Error
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

type transferInput struct {
	PayerID     uint
	ReceiverID  uint   // zero when UpiID is used instead
	UpiID       string // external payment identifier lookup
	AmountPaise int64
	RoundUp     bool
	Base        int64 // whole rupees, already resolved against the allow-list
}

type transferResult struct {
	Payer        models.User
	Receiver     models.User
	Base         int64
	AppliedPaise int64
}

// transferFunds moves AmountPaise from payer to receiver and, when requested,
// funds a round-up contribution into the payer's savings ledger. Debit,
// credit and ledger update commit or roll back as one unit; the receiver is
// credited the transfer amount only, never the rounded total.
func transferFunds(gdb *gorm.DB, in transferInput) (*transferResult, error) {
	out := &transferResult{Base: in.Base}
	err := gdb.Transaction(func(tx *gorm.DB) error {
		// resolve the receiver id up front so rows can be locked in a stable order
		receiverID := in.ReceiverID
		if receiverID == 0 {
			var r models.User
			if err := tx.Where("upi_id = ?", in.UpiID).First(&r).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrUserNotFound
				}
				return err
			}
			receiverID = r.ID
		}
		if receiverID == in.PayerID {
			return ErrSelfTransfer
		}

		// lock both user rows FOR UPDATE in ascending id order so two opposing
		// transfers cannot deadlock. sqlite has no FOR UPDATE; its single-writer
		// model serialises these statements anyway.
		q := tx.Order("id")
		if tx.Dialector.Name() == "postgres" {
			q = q.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		var users []models.User
		if err := q.Where("id IN ?", []uint{in.PayerID, receiverID}).Find(&users).Error; err != nil {
			return err
		}
		var payer, receiver *models.User
		for i := range users {
			switch users[i].ID {
			case in.PayerID:
				payer = &users[i]
			case receiverID:
				receiver = &users[i]
			}
		}
		if payer == nil || receiver == nil {
			return ErrUserNotFound
		}
		if payer.BalancePaise < in.AmountPaise {
			return ErrInsufficientBalance
		}

		if err := tx.Model(&models.User{}).Where("id = ?", payer.ID).
			Update("balance_paise", gorm.Expr("balance_paise - ?", in.AmountPaise)).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.User{}).Where("id = ?", receiver.ID).
			Update("balance_paise", gorm.Expr("balance_paise + ?", in.AmountPaise)).Error; err != nil {
			return err
		}

		if in.RoundUp {
			applied := roundup.Contribution(in.AmountPaise, roundup.BasePaise(in.Base))
			if applied > 0 {
				s, err := applyRoundUpContribution(tx, payer.ID, applied)
				if err != nil {
					return err
				}
				entry := models.SavingsEntry{SavingsID: s.ID, TxnRef: uuid.NewString(), RoundUpPaise: applied}
				if err := tx.Create(&entry).Error; err != nil {
					return err
				}
				out.AppliedPaise = applied
			}
		}

		if err := tx.First(&out.Payer, payer.ID).Error; err != nil {
			return err
		}
		return tx.First(&out.Receiver, receiver.ID).Error
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
