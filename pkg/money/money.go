// Package money converts between the decimal rupee values used at the API
// boundary and the integer paise used for all ledger and balance arithmetic.
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ToPaise converts a decimal rupee amount to paise. Amounts with more than
// two decimal places are rejected rather than silently rounded.
func ToPaise(d decimal.Decimal) (int64, error) {
	if !d.Equal(d.Round(2)) {
		return 0, fmt.Errorf("amount %s has more than two decimal places", d)
	}
	return d.Mul(hundred).IntPart(), nil
}

// FromPaise converts paise back to a decimal rupee amount.
func FromPaise(p int64) decimal.Decimal {
	return decimal.NewFromInt(p).Div(hundred)
}

// Format renders paise as a fixed two-decimal rupee string for display.
func Format(p int64) string {
	return FromPaise(p).StringFixed(2)
}
