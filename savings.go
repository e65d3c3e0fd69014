package main

import (
	"errors"
	"net/http"
	"time"

	"github.com/Yatesh03/Fintract-lite/models"
	"github.com/Yatesh03/Fintract-lite/pkg/money"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type savingsResp struct {
	ID               uint      `json:"id"`
	UserID           uint      `json:"user_id"`
	RoundUpPaise     int64     `json:"round_up_amount_paise"`
	RoundUpAmount    string    `json:"round_up_amount"`
	TotalSavedPaise  int64     `json:"total_saved_paise"`
	TotalSaved       string    `json:"total_saved"`
	MonthlyGoalPaise int64     `json:"monthly_goal_paise"`
	MonthlyGoal      string    `json:"monthly_goal"`
	LastUpdated      time.Time `json:"last_updated"`
}

func toSavingsResp(s *models.Savings) savingsResp {
	return savingsResp{
		ID:               s.ID,
		UserID:           s.UserID,
		RoundUpPaise:     s.RoundUpPaise,
		RoundUpAmount:    money.Format(s.RoundUpPaise),
		TotalSavedPaise:  s.TotalSavedPaise,
		TotalSaved:       money.Format(s.TotalSavedPaise),
		MonthlyGoalPaise: s.MonthlyGoalPaise,
		MonthlyGoal:      money.Format(s.MonthlyGoalPaise),
		LastUpdated:      s.LastUpdated,
	}
}

// positiveAmountFromBody binds {"amount": ...} and converts it to paise,
// rejecting non-positive or sub-paise values.
func positiveAmountFromBody(c *gin.Context) (int64, bool) {
	var req struct {
		Amount decimal.Decimal `json:"amount" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		jsonError(c, http.StatusBadRequest, codeValidation, err.Error())
		return 0, false
	}
	paise, err := money.ToPaise(req.Amount)
	if err != nil || paise <= 0 {
		jsonError(c, http.StatusBadRequest, codeValidation, "amount must be a positive number with at most two decimal places")
		return 0, false
	}
	return paise, true
}

// getSavingsHandler returns the caller's ledger, lazily creating a zeroed one
// on first access.
func getSavingsHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		jsonError(c, http.StatusUnauthorized, codeUnauthorized, "user not found")
		return
	}
	s, err := getOrCreateSavings(db, user.ID)
	if err != nil {
		jsonError(c, http.StatusInternalServerError, codeServerError, "failed to load savings")
		return
	}
	c.JSON(http.StatusOK, toSavingsResp(s))
}

// addRoundUpHandler applies a manual round-up contribution to both the
// lifetime counter and the spendable balance.
func addRoundUpHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		jsonError(c, http.StatusUnauthorized, codeUnauthorized, "user not found")
		return
	}
	paise, ok := positiveAmountFromBody(c)
	if !ok {
		return
	}
	s, err := addManualRoundUp(db, user.ID, paise)
	if err != nil {
		jsonError(c, http.StatusInternalServerError, codeServerError, "failed to update savings")
		return
	}
	c.JSON(http.StatusOK, toSavingsResp(s))
}

func updateGoalHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		jsonError(c, http.StatusUnauthorized, codeUnauthorized, "user not found")
		return
	}
	var req struct {
		MonthlyGoal decimal.Decimal `json:"monthlyGoal" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		jsonError(c, http.StatusBadRequest, codeValidation, err.Error())
		return
	}
	goalPaise, err := money.ToPaise(req.MonthlyGoal)
	if err != nil || goalPaise <= 0 {
		jsonError(c, http.StatusBadRequest, codeValidation, "monthlyGoal must be a positive number with at most two decimal places")
		return
	}
	s, err := setSavingsGoal(db, user.ID, goalPaise)
	if err != nil {
		jsonError(c, http.StatusInternalServerError, codeServerError, "failed to update goal")
		return
	}
	c.JSON(http.StatusOK, toSavingsResp(s))
}

func withdrawSavingsHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		jsonError(c, http.StatusUnauthorized, codeUnauthorized, "user not found")
		return
	}
	paise, ok := positiveAmountFromBody(c)
	if !ok {
		return
	}
	s, err := withdrawFromSavings(db, user.ID, paise)
	if err != nil {
		if errors.Is(err, ErrInsufficientSavings) {
			jsonError(c, http.StatusBadRequest, codeInsufficientSavings, "insufficient savings balance")
			return
		}
		jsonError(c, http.StatusInternalServerError, codeServerError, "failed to withdraw")
		return
	}
	c.JSON(http.StatusOK, toSavingsResp(s))
}

// getWalletHandler is the wallet view of the same ledger.
func getWalletHandler(c *gin.Context) {
	getSavingsHandler(c)
}

// addToWalletHandler tops up the spendable savings balance without touching
// the lifetime round-up counter.
func addToWalletHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		jsonError(c, http.StatusUnauthorized, codeUnauthorized, "user not found")
		return
	}
	paise, ok := positiveAmountFromBody(c)
	if !ok {
		return
	}
	s, err := addToWallet(db, user.ID, paise)
	if err != nil {
		jsonError(c, http.StatusInternalServerError, codeServerError, "failed to update wallet")
		return
	}
	c.JSON(http.StatusOK, toSavingsResp(s))
}
