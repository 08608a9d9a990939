// Package money converts between major-unit amounts (naira) as users write
// them and the minor-unit integers (kobo) the ledger stores.
//
// Invariants:
//   - Ledger amounts are always int64 in the smallest currency unit.
//   - A major-unit amount may carry at most Decimals fractional digits.
package money

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidAmount is returned when an amount cannot be parsed.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrTooManyDecimals is returned when an amount is finer than the minor unit.
	ErrTooManyDecimals = errors.New("amount has more decimal places than allowed by the currency")
	// ErrAmountExceedsMaxSafeInt is returned when an amount is above MaxAmount.
	ErrAmountExceedsMaxSafeInt = errors.New("amount exceeds maximum safe integer value")
	// ErrNegativeAmount is returned when an amount is below zero.
	ErrNegativeAmount = errors.New("amount cannot be negative")
)

// Amount is a monetary amount in the smallest currency unit.
type Amount = int64

// Decimals is the number of minor-unit digits of the ledger currency.
const Decimals = 2

// DefaultCurrency is the ISO 4217 code of the ledger currency.
const DefaultCurrency = "NGN"

// MaxAmount is the largest amount, in minor units, the ledger accepts for a
// single operation. It leaves room to add fees and reserves without
// overflowing int64.
const MaxAmount Amount = 1_000_000_000_000_000

var (
	scale     = decimal.New(1, Decimals)
	maxAmount = decimal.NewFromInt(MaxAmount)
)

// FromMajor converts a major-unit decimal into minor units.
func FromMajor(d decimal.Decimal) (Amount, error) {
	if d.IsNegative() {
		return 0, ErrNegativeAmount
	}
	minor := d.Mul(scale)
	if !minor.Equal(minor.Truncate(0)) {
		return 0, ErrTooManyDecimals
	}
	if minor.GreaterThan(maxAmount) {
		return 0, ErrAmountExceedsMaxSafeInt
	}
	return minor.IntPart(), nil
}

// Parse reads a major-unit amount such as "5000" or "1250.50".
func Parse(s string) (Amount, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return FromMajor(d)
}

// FromFloat converts a major-unit float, as decoded from JSON, into minor units.
func FromFloat(f float64) (Amount, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, ErrInvalidAmount
	}
	return FromMajor(decimal.NewFromFloat(f))
}

// ToMajor converts minor units back into a major-unit decimal.
func ToMajor(a Amount) decimal.Decimal {
	return decimal.New(a, -Decimals)
}

// Format renders minor units as a fixed two-decimal major-unit string.
func Format(a Amount) string {
	return ToMajor(a).StringFixed(Decimals)
}

// FormatWithCurrency renders minor units followed by the currency code.
func FormatWithCurrency(a Amount, currency string) string {
	if currency == "" {
		currency = DefaultCurrency
	}
	return fmt.Sprintf("%s %s", Format(a), currency)
}
