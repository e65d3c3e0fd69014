// Package roundup implements the round-up savings rule: an expense is
// rounded up to the nearest multiple of a base denomination and the
// difference is diverted into savings. All arithmetic is in paise.
package roundup

// DefaultBase is the system-wide round-up denomination in whole rupees.
const DefaultBase int64 = 10

// allowedBases are the denominations a payment request may override with.
var allowedBases = map[int64]bool{10: true, 50: true, 100: true}

// IsAllowedBase reports whether base (whole rupees) is a supported
// round-up denomination.
func IsAllowedBase(base int64) bool {
	return allowedBases[base]
}

// ResolveBase returns candidate if it is an allowed denomination, otherwise
// fallback if that is allowed, otherwise DefaultBase. An invalid base never
// fails a request; it falls back.
func ResolveBase(candidate, fallback int64) int64 {
	if allowedBases[candidate] {
		return candidate
	}
	if allowedBases[fallback] {
		return fallback
	}
	return DefaultBase
}

// RoundedTarget returns the smallest multiple of basePaise that is >= amountPaise.
// A non-positive base falls back to DefaultBase.
func RoundedTarget(amountPaise, basePaise int64) int64 {
	if basePaise <= 0 {
		basePaise = DefaultBase * 100
	}
	if amountPaise <= 0 {
		return 0
	}
	return ((amountPaise + basePaise - 1) / basePaise) * basePaise
}

// Contribution returns the round-up savings amount for a transaction of
// amountPaise against basePaise: RoundedTarget(A,B) - A, and 0 when A is
// already an exact multiple of B. Pure; applying the result to a ledger is
// the caller's responsibility, exactly once per triggering event.
func Contribution(amountPaise, basePaise int64) int64 {
	if amountPaise <= 0 {
		return 0
	}
	d := RoundedTarget(amountPaise, basePaise) - amountPaise
	if d < 0 {
		return 0
	}
	return d
}

// BasePaise converts a whole-rupee base denomination to paise.
func BasePaise(base int64) int64 {
	return base * 100
}
