package main

import (
	"errors"
	"net/http"
	"os"
	"strconv"

	"github.com/Yatesh03/Fintract-lite/pkg/money"
	"github.com/Yatesh03/Fintract-lite/pkg/roundup"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// systemRoundUpBase reads the process-wide default base from ROUND_UP_BASE.
// Unsupported values fall back to the built-in default rather than failing.
func systemRoundUpBase() int64 {
	v, err := strconv.ParseInt(os.Getenv("ROUND_UP_BASE"), 10, 64)
	if err != nil || !roundup.IsAllowedBase(v) {
		return roundup.DefaultBase
	}
	return v
}

type paymentReq struct {
	PayerID     uint            `json:"payerId" binding:"required"`
	ReceiverID  uint            `json:"receiverId"`
	UpiID       string          `json:"upiId"`
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	RoundUp     bool            `json:"roundUp"`
	RoundUpBase int64           `json:"roundUpBase"` // optional, from {10,50,100}
}

// processPaymentHandler moves money from the authenticated payer to a
// receiver identified by id or UPI id, optionally diverting the round-up
// difference into the payer's savings ledger. The receiver is credited the
// transfer amount only; the contribution is funded on top of it and never
// touches the receiver's side.
func processPaymentHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		jsonError(c, http.StatusUnauthorized, codeUnauthorized, "user not found")
		return
	}
	var req paymentReq
	if err := c.ShouldBindJSON(&req); err != nil {
		jsonError(c, http.StatusBadRequest, codeValidation, "payerId, (receiverId or upiId) and amount are required")
		return
	}
	if (req.ReceiverID == 0) == (req.UpiID == "") {
		jsonError(c, http.StatusBadRequest, codeValidation, "exactly one of receiverId or upiId must be provided")
		return
	}
	if user.ID != req.PayerID {
		jsonError(c, http.StatusForbidden, codeForbidden, "not authorized to pay on behalf of this user")
		return
	}
	amountPaise, err := money.ToPaise(req.Amount)
	if err != nil || amountPaise <= 0 {
		jsonError(c, http.StatusBadRequest, codeValidation, "invalid amount")
		return
	}
	base := roundup.ResolveBase(req.RoundUpBase, systemRoundUpBase())

	res, err := transferFunds(db, transferInput{
		PayerID:     req.PayerID,
		ReceiverID:  req.ReceiverID,
		UpiID:       req.UpiID,
		AmountPaise: amountPaise,
		RoundUp:     req.RoundUp,
		Base:        base,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrUserNotFound):
			jsonError(c, http.StatusNotFound, codeNotFound, "payer or receiver not found")
		case errors.Is(err, ErrInsufficientBalance):
			jsonError(c, http.StatusBadRequest, codeInsufficientFunds, "insufficient balance")
		case errors.Is(err, ErrSelfTransfer):
			jsonError(c, http.StatusBadRequest, codeValidation, "payer and receiver must differ")
		default:
			jsonError(c, http.StatusInternalServerError, codeServerError, "payment failed")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "payment successful",
		"payer": gin.H{
			"id":            res.Payer.ID,
			"balance":       money.Format(res.Payer.BalancePaise),
			"balance_paise": res.Payer.BalancePaise,
		},
		"receiver": gin.H{
			"id":            res.Receiver.ID,
			"balance":       money.Format(res.Receiver.BalancePaise),
			"balance_paise": res.Receiver.BalancePaise,
		},
		"roundUp": gin.H{
			"base":          res.Base,
			"applied":       money.Format(res.AppliedPaise),
			"applied_paise": res.AppliedPaise,
		},
	})
}
