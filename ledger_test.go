package main

import (
	"path/filepath"
	"testing"

	"github.com/Yatesh03/Fintract-lite/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// openTestDB opens a throwaway sqlite database so the ledger invariants can
// be exercised without a Postgres instance.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	gdb, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	migrateModels(gdb)
	return gdb
}

func createTestUser(t *testing.T, gdb *gorm.DB, email string, balancePaise int64) models.User {
	t.Helper()
	u := models.User{Name: "Test User", Email: email, HashedPassword: []byte("x"), BalancePaise: balancePaise}
	require.NoError(t, gdb.Create(&u).Error)
	return u
}

func loadSavings(t *testing.T, gdb *gorm.DB, userID uint) models.Savings {
	t.Helper()
	var s models.Savings
	require.NoError(t, gdb.Where("user_id = ?", userID).First(&s).Error)
	return s
}

func TestGetOrCreateSavingsIdempotent(t *testing.T) {
	gdb := openTestDB(t)
	u := createTestUser(t, gdb, "a@example.com", 0)

	s1, err := getOrCreateSavings(gdb, u.ID)
	require.NoError(t, err)
	assert.Zero(t, s1.RoundUpPaise)
	assert.Zero(t, s1.TotalSavedPaise)
	assert.Zero(t, s1.MonthlyGoalPaise)

	s2, err := getOrCreateSavings(gdb, u.ID)
	require.NoError(t, err)
	assert.Equal(t, s1.ID, s2.ID)

	var count int64
	require.NoError(t, gdb.Model(&models.Savings{}).Where("user_id = ?", u.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestApplyRoundUpContributionAccumulates(t *testing.T) {
	gdb := openTestDB(t)
	u := createTestUser(t, gdb, "a@example.com", 0)

	_, err := applyRoundUpContribution(gdb, u.ID, 700)
	require.NoError(t, err)
	s := loadSavings(t, gdb, u.ID)
	assert.Equal(t, int64(700), s.RoundUpPaise)
	assert.Equal(t, int64(700), s.TotalSavedPaise)

	_, err = applyRoundUpContribution(gdb, u.ID, 300)
	require.NoError(t, err)
	s = loadSavings(t, gdb, u.ID)
	assert.Equal(t, int64(1000), s.RoundUpPaise)
	assert.Equal(t, int64(1000), s.TotalSavedPaise)
}

func TestSequentialContributionsSumExactly(t *testing.T) {
	gdb := openTestDB(t)
	u := createTestUser(t, gdb, "a@example.com", 0)

	contributions := []int64{700, 1, 999, 675, 4700, 9900}
	var want int64
	for _, c := range contributions {
		_, err := addManualRoundUp(gdb, u.ID, c)
		require.NoError(t, err)
		want += c
	}
	s := loadSavings(t, gdb, u.ID)
	assert.Equal(t, want, s.RoundUpPaise)
	assert.Equal(t, want, s.TotalSavedPaise)
}

func TestWithdrawBoundedByTotalSaved(t *testing.T) {
	gdb := openTestDB(t)
	u := createTestUser(t, gdb, "a@example.com", 0)
	_, err := addManualRoundUp(gdb, u.ID, 1000)
	require.NoError(t, err)

	s, err := withdrawFromSavings(gdb, u.ID, 400)
	require.NoError(t, err)
	assert.Equal(t, int64(600), s.TotalSavedPaise)
	// lifetime counter is untouched by withdrawals
	assert.Equal(t, int64(1000), s.RoundUpPaise)

	_, err = withdrawFromSavings(gdb, u.ID, 700)
	assert.ErrorIs(t, err, ErrInsufficientSavings)
	after := loadSavings(t, gdb, u.ID)
	assert.Equal(t, int64(600), after.TotalSavedPaise)
	assert.Equal(t, int64(1000), after.RoundUpPaise)
}

func TestWithdrawOnFreshLedgerRejected(t *testing.T) {
	gdb := openTestDB(t)
	u := createTestUser(t, gdb, "a@example.com", 0)

	// get-or-create semantics: no not-found, only insufficient
	_, err := withdrawFromSavings(gdb, u.ID, 100)
	assert.ErrorIs(t, err, ErrInsufficientSavings)
	s := loadSavings(t, gdb, u.ID)
	assert.Zero(t, s.TotalSavedPaise)
}

func TestGoalIsIndependentAxis(t *testing.T) {
	gdb := openTestDB(t)
	u := createTestUser(t, gdb, "a@example.com", 0)

	s, err := setSavingsGoal(gdb, u.ID, 500000)
	require.NoError(t, err)
	assert.Equal(t, int64(500000), s.MonthlyGoalPaise)

	_, err = addManualRoundUp(gdb, u.ID, 700)
	require.NoError(t, err)
	_, err = withdrawFromSavings(gdb, u.ID, 200)
	require.NoError(t, err)

	after := loadSavings(t, gdb, u.ID)
	assert.Equal(t, int64(500000), after.MonthlyGoalPaise)
	assert.Equal(t, int64(700), after.RoundUpPaise)
	assert.Equal(t, int64(500), after.TotalSavedPaise)

	// updating the goal leaves the balances alone
	_, err = setSavingsGoal(gdb, u.ID, 600000)
	require.NoError(t, err)
	after = loadSavings(t, gdb, u.ID)
	assert.Equal(t, int64(600000), after.MonthlyGoalPaise)
	assert.Equal(t, int64(700), after.RoundUpPaise)
	assert.Equal(t, int64(500), after.TotalSavedPaise)
}

func TestAddToWalletLeavesRoundUpCounter(t *testing.T) {
	gdb := openTestDB(t)
	u := createTestUser(t, gdb, "a@example.com", 0)

	s, err := addToWallet(gdb, u.ID, 2500)
	require.NoError(t, err)
	assert.Equal(t, int64(2500), s.TotalSavedPaise)
	assert.Zero(t, s.RoundUpPaise)
}

func TestTransferWithRoundUp(t *testing.T) {
	gdb := openTestDB(t)
	payer := createTestUser(t, gdb, "payer@example.com", 10000)
	receiver := createTestUser(t, gdb, "receiver@example.com", 0)

	res, err := transferFunds(gdb, transferInput{
		PayerID:     payer.ID,
		ReceiverID:  receiver.ID,
		AmountPaise: 5300,
		RoundUp:     true,
		Base:        10,
	})
	require.NoError(t, err)

	// receiver gets the transfer amount, never the rounded total
	assert.Equal(t, int64(4700), res.Payer.BalancePaise)
	assert.Equal(t, int64(5300), res.Receiver.BalancePaise)
	assert.Equal(t, int64(700), res.AppliedPaise)

	s := loadSavings(t, gdb, payer.ID)
	assert.Equal(t, int64(700), s.RoundUpPaise)
	assert.Equal(t, int64(700), s.TotalSavedPaise)

	var entries []models.SavingsEntry
	require.NoError(t, gdb.Where("savings_id = ?", s.ID).Find(&entries).Error)
	require.Len(t, entries, 1)
	assert.Equal(t, int64(700), entries[0].RoundUpPaise)
	assert.NotEmpty(t, entries[0].TxnRef)

	// receiver's ledger was never created, let alone credited
	var count int64
	require.NoError(t, gdb.Model(&models.Savings{}).Where("user_id = ?", receiver.ID).Count(&count).Error)
	assert.Zero(t, count)
}

func TestTransferExactMultipleAppliesNothing(t *testing.T) {
	gdb := openTestDB(t)
	payer := createTestUser(t, gdb, "payer@example.com", 10000)
	receiver := createTestUser(t, gdb, "receiver@example.com", 0)

	res, err := transferFunds(gdb, transferInput{
		PayerID:     payer.ID,
		ReceiverID:  receiver.ID,
		AmountPaise: 5000,
		RoundUp:     true,
		Base:        10,
	})
	require.NoError(t, err)
	assert.Zero(t, res.AppliedPaise)

	var count int64
	require.NoError(t, gdb.Model(&models.SavingsEntry{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestTransferWithoutRoundUpFlag(t *testing.T) {
	gdb := openTestDB(t)
	payer := createTestUser(t, gdb, "payer@example.com", 10000)
	receiver := createTestUser(t, gdb, "receiver@example.com", 0)

	res, err := transferFunds(gdb, transferInput{
		PayerID:     payer.ID,
		ReceiverID:  receiver.ID,
		AmountPaise: 5300,
		Base:        10,
	})
	require.NoError(t, err)
	assert.Zero(t, res.AppliedPaise)

	var count int64
	require.NoError(t, gdb.Model(&models.Savings{}).Where("user_id = ?", payer.ID).Count(&count).Error)
	assert.Zero(t, count)
}

func TestTransferInsufficientBalanceNoMutation(t *testing.T) {
	gdb := openTestDB(t)
	payer := createTestUser(t, gdb, "payer@example.com", 100)
	receiver := createTestUser(t, gdb, "receiver@example.com", 500)

	_, err := transferFunds(gdb, transferInput{
		PayerID:     payer.ID,
		ReceiverID:  receiver.ID,
		AmountPaise: 5300,
		RoundUp:     true,
		Base:        10,
	})
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	var p, r models.User
	require.NoError(t, gdb.First(&p, payer.ID).Error)
	require.NoError(t, gdb.First(&r, receiver.ID).Error)
	assert.Equal(t, int64(100), p.BalancePaise)
	assert.Equal(t, int64(500), r.BalancePaise)

	var entries int64
	require.NoError(t, gdb.Model(&models.SavingsEntry{}).Count(&entries).Error)
	assert.Zero(t, entries)
}

func TestTransferByUpiID(t *testing.T) {
	gdb := openTestDB(t)
	payer := createTestUser(t, gdb, "payer@example.com", 10000)
	receiver := createTestUser(t, gdb, "receiver@example.com", 0)
	upi := "receiver@bank"
	require.NoError(t, gdb.Model(&models.User{}).Where("id = ?", receiver.ID).Update("upi_id", upi).Error)

	res, err := transferFunds(gdb, transferInput{
		PayerID:     payer.ID,
		UpiID:       upi,
		AmountPaise: 2500,
		Base:        10,
	})
	require.NoError(t, err)
	assert.Equal(t, receiver.ID, res.Receiver.ID)
	assert.Equal(t, int64(2500), res.Receiver.BalancePaise)
}

func TestTransferUnknownReceiver(t *testing.T) {
	gdb := openTestDB(t)
	payer := createTestUser(t, gdb, "payer@example.com", 10000)

	_, err := transferFunds(gdb, transferInput{PayerID: payer.ID, ReceiverID: 9999, AmountPaise: 100, Base: 10})
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = transferFunds(gdb, transferInput{PayerID: payer.ID, UpiID: "nobody@bank", AmountPaise: 100, Base: 10})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestTransferToSelfRejected(t *testing.T) {
	gdb := openTestDB(t)
	payer := createTestUser(t, gdb, "payer@example.com", 10000)

	_, err := transferFunds(gdb, transferInput{PayerID: payer.ID, ReceiverID: payer.ID, AmountPaise: 100, Base: 10})
	assert.ErrorIs(t, err, ErrSelfTransfer)

	var p models.User
	require.NoError(t, gdb.First(&p, payer.ID).Error)
	assert.Equal(t, int64(10000), p.BalancePaise)
}
