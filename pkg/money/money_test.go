package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToPaise(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"53", 5300},
		{"53.25", 5325},
		{"0.01", 1},
		{"1000000", 100000000},
		{"10.100", 1010}, // trailing zero, still two significant decimals
	}
	for _, tt := range tests {
		d, err := decimal.NewFromString(tt.in)
		require.NoError(t, err)
		got, err := ToPaise(d)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "input %s", tt.in)
	}
}

func TestToPaiseRejectsSubPaise(t *testing.T) {
	d, err := decimal.NewFromString("53.105")
	require.NoError(t, err)
	_, err = ToPaise(d)
	assert.Error(t, err)
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "53.00", Format(5300))
	assert.Equal(t, "0.07", Format(7))
	assert.Equal(t, "7.00", Format(700))
	assert.Equal(t, "0.00", Format(0))
}

func TestRoundTrip(t *testing.T) {
	for _, p := range []int64{0, 1, 7, 700, 5325, 99999} {
		d := FromPaise(p)
		back, err := ToPaise(d)
		require.NoError(t, err)
		assert.Equal(t, p, back)
	}
}
