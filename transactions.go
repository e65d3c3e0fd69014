package main

import (
	"net/http"
	"strconv"
	"time"

	"github.com/Yatesh03/Fintract-lite/models"
	"github.com/Yatesh03/Fintract-lite/pkg/money"
	"github.com/Yatesh03/Fintract-lite/pkg/roundup"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type transactionReq struct {
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	Type        string          `json:"type" binding:"required,oneof=Income Expense"`
	Category    string          `json:"category" binding:"required,max=64"`
	Description string          `json:"description" binding:"max=512"`
	Date        string          `json:"date"` // optional ISO8601, defaults to now
}

type transactionResp struct {
	ID          uint      `json:"id"`
	Type        string    `json:"type"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	AmountPaise int64     `json:"amount_paise"`
	Amount      string    `json:"amount"`
	Date        time.Time `json:"date"`
	CreatedAt   time.Time `json:"createdAt"`
	// populated only when the round-up fired on creation
	RoundUpPaise *int64  `json:"round_up_amount_paise,omitempty"`
	RoundUp      *string `json:"round_up_amount,omitempty"`
	ActualPaise  *int64  `json:"actual_amount_paise,omitempty"`
	Actual       *string `json:"actual_amount,omitempty"`
}

func toTransactionResp(t *models.Transaction) transactionResp {
	return transactionResp{
		ID:          t.ID,
		Type:        t.Type,
		Category:    t.Category,
		Description: t.Description,
		AmountPaise: t.AmountPaise,
		Amount:      money.Format(t.AmountPaise),
		Date:        t.Date,
		CreatedAt:   t.CreatedAt,
	}
}

func parseTxnDate(s string) time.Time {
	if s == "" {
		return time.Now()
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Now()
}

// createTransactionHandler persists a transaction and, for expenses whose
// amount is not an exact multiple of the default base, diverts the round-up
// difference into the user's savings ledger. Insert and ledger update run in
// one DB transaction: an expense is never recorded with an unfulfilled
// savings promise. This path always uses the default base; the per-request
// override exists only on payments.
func createTransactionHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		jsonError(c, http.StatusUnauthorized, codeUnauthorized, "user not found")
		return
	}
	var req transactionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		jsonError(c, http.StatusBadRequest, codeValidation, err.Error())
		return
	}
	amountPaise, err := money.ToPaise(req.Amount)
	if err != nil || amountPaise <= 0 {
		jsonError(c, http.StatusBadRequest, codeValidation, "amount must be a positive number with at most two decimal places")
		return
	}

	txn := models.Transaction{
		UserID:      user.ID,
		Type:        req.Type,
		Category:    req.Category,
		Description: req.Description,
		AmountPaise: amountPaise,
		Date:        parseTxnDate(req.Date),
	}

	var contribution int64
	if req.Type == models.TypeExpense {
		contribution = roundup.Contribution(amountPaise, roundup.BasePaise(roundup.DefaultBase))
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&txn).Error; err != nil {
			return err
		}
		if contribution > 0 {
			if _, err := applyRoundUpContribution(tx, user.ID, contribution); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		jsonError(c, http.StatusInternalServerError, codeServerError, "failed to create transaction")
		return
	}

	resp := toTransactionResp(&txn)
	if contribution > 0 {
		actual := amountPaise + contribution
		ruStr := money.Format(contribution)
		actStr := money.Format(actual)
		resp.RoundUpPaise = &contribution
		resp.RoundUp = &ruStr
		resp.ActualPaise = &actual
		resp.Actual = &actStr
	}
	c.JSON(http.StatusCreated, resp)
}

func listTransactionsHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		jsonError(c, http.StatusUnauthorized, codeUnauthorized, "user not found")
		return
	}
	var txns []models.Transaction
	if err := db.Where("user_id = ?", user.ID).
		Order("date DESC, id DESC").
		Find(&txns).Error; err != nil {
		jsonError(c, http.StatusInternalServerError, codeServerError, "query failed")
		return
	}
	items := make([]transactionResp, 0, len(txns))
	for i := range txns {
		items = append(items, toTransactionResp(&txns[i]))
	}
	c.JSON(http.StatusOK, items)
}

// updateTransactionHandler edits a transaction in place. By policy the
// savings ledger is NOT re-derived: a round-up contribution is a one-time
// event at creation, so editing the amount or type later leaves the ledger
// untouched and RoundUpPaise monotone.
func updateTransactionHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		jsonError(c, http.StatusUnauthorized, codeUnauthorized, "user not found")
		return
	}
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		jsonError(c, http.StatusBadRequest, codeValidation, "invalid transaction id")
		return
	}
	var req transactionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		jsonError(c, http.StatusBadRequest, codeValidation, err.Error())
		return
	}
	amountPaise, err := money.ToPaise(req.Amount)
	if err != nil || amountPaise <= 0 {
		jsonError(c, http.StatusBadRequest, codeValidation, "amount must be a positive number with at most two decimal places")
		return
	}
	var txn models.Transaction
	if err := db.Where("id = ? AND user_id = ?", id, user.ID).First(&txn).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			jsonError(c, http.StatusNotFound, codeNotFound, "transaction not found")
		} else {
			jsonError(c, http.StatusInternalServerError, codeServerError, "query failed")
		}
		return
	}
	txn.Type = req.Type
	txn.Category = req.Category
	txn.Description = req.Description
	txn.AmountPaise = amountPaise
	if req.Date != "" {
		txn.Date = parseTxnDate(req.Date)
	}
	if err := db.Save(&txn).Error; err != nil {
		jsonError(c, http.StatusInternalServerError, codeServerError, "failed to update transaction")
		return
	}
	c.JSON(http.StatusOK, toTransactionResp(&txn))
}

// deleteTransactionHandler removes a transaction. The ledger is deliberately
// left alone (same immutable-history policy as update).
func deleteTransactionHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		jsonError(c, http.StatusUnauthorized, codeUnauthorized, "user not found")
		return
	}
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		jsonError(c, http.StatusBadRequest, codeValidation, "invalid transaction id")
		return
	}
	res := db.Where("id = ? AND user_id = ?", id, user.ID).Delete(&models.Transaction{})
	if res.Error != nil {
		jsonError(c, http.StatusInternalServerError, codeServerError, "delete failed")
		return
	}
	if res.RowsAffected == 0 {
		jsonError(c, http.StatusNotFound, codeNotFound, "transaction not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "transaction deleted successfully"})
}

// monthlySummaryHandler returns income/expense totals, balance, saving rate
// and the per-category expense percentage breakdown for one month. Totals are
// computed in Go over the user's rows so the query stays portable across
// postgres and sqlite.
func monthlySummaryHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		jsonError(c, http.StatusUnauthorized, codeUnauthorized, "user not found")
		return
	}
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil || year < 1970 || year > 9999 {
		jsonError(c, http.StatusBadRequest, codeValidation, "invalid year")
		return
	}
	month, err := strconv.Atoi(c.Param("month"))
	if err != nil || month < 1 || month > 12 {
		jsonError(c, http.StatusBadRequest, codeValidation, "invalid month")
		return
	}
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.Local)
	end := start.AddDate(0, 1, 0)

	var txns []models.Transaction
	if err := db.Where("user_id = ? AND date >= ? AND date < ?", user.ID, start, end).
		Find(&txns).Error; err != nil {
		jsonError(c, http.StatusInternalServerError, codeServerError, "query failed")
		return
	}

	var incomePaise, expensePaise int64
	byCategory := map[string]int64{}
	for i := range txns {
		t := &txns[i]
		switch t.Type {
		case models.TypeIncome:
			incomePaise += t.AmountPaise
		case models.TypeExpense:
			expensePaise += t.AmountPaise
			byCategory[t.Category] += t.AmountPaise
		}
	}
	balancePaise := incomePaise - expensePaise
	savingRate := "0.00"
	if incomePaise > 0 {
		savingRate = decimal.NewFromInt(balancePaise).
			Div(decimal.NewFromInt(incomePaise)).
			Mul(decimal.NewFromInt(100)).
			StringFixed(2)
	}

	type categoryShare struct {
		Name  string  `json:"name"`
		Value float64 `json:"value"` // percentage of total expense
	}
	breakdown := make([]categoryShare, 0, len(byCategory))
	for cat, amt := range byCategory {
		var pct float64
		if expensePaise > 0 {
			pct = float64(amt) / float64(expensePaise) * 100
		}
		breakdown = append(breakdown, categoryShare{Name: cat, Value: pct})
	}

	c.JSON(http.StatusOK, gin.H{
		"income":            money.Format(incomePaise),
		"income_paise":      incomePaise,
		"expense":           money.Format(expensePaise),
		"expense_paise":     expensePaise,
		"balance":           money.Format(balancePaise),
		"balance_paise":     balancePaise,
		"savingRate":        savingRate,
		"categoryBreakdown": breakdown,
	})
}

// monthlyIncomeExpenseHandler returns a per-month income/expense series for
// the current year, up to and including the current month.
func monthlyIncomeExpenseHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		jsonError(c, http.StatusUnauthorized, codeUnauthorized, "user not found")
		return
	}
	now := time.Now()
	start := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())
	end := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, 1, 0)

	var txns []models.Transaction
	if err := db.Where("user_id = ? AND date >= ? AND date < ?", user.ID, start, end).
		Find(&txns).Error; err != nil {
		jsonError(c, http.StatusInternalServerError, codeServerError, "query failed")
		return
	}

	monthLabels := []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}
	type monthStat struct {
		Month        string `json:"month"`
		IncomePaise  int64  `json:"income_paise"`
		Income       string `json:"income"`
		ExpensePaise int64  `json:"expense_paise"`
		Expense      string `json:"expense"`
	}
	series := make([]monthStat, int(now.Month()))
	for i := range series {
		series[i].Month = monthLabels[i]
	}
	for i := range txns {
		t := &txns[i]
		idx := int(t.Date.Month()) - 1
		if idx < 0 || idx >= len(series) {
			continue
		}
		switch t.Type {
		case models.TypeIncome:
			series[idx].IncomePaise += t.AmountPaise
		case models.TypeExpense:
			series[idx].ExpensePaise += t.AmountPaise
		}
	}
	for i := range series {
		series[i].Income = money.Format(series[i].IncomePaise)
		series[i].Expense = money.Format(series[i].ExpensePaise)
	}
	c.JSON(http.StatusOK, series)
}
