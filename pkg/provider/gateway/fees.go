package gateway

import (
	"github.com/shopspring/decimal"
)

// FeeSchedule describes how a provider charges a checkout: a percentage,
// plus a flat fee from FlatThreshold upward, capped at Cap. Zero Cap means
// uncapped. Amounts are in kobo.
type FeeSchedule struct {
	Percentage    decimal.Decimal
	Flat          int64
	FlatThreshold int64
	Cap           int64
}

// PaystackLocal is Paystack's schedule for local cards: 1.5% + ₦100, the
// ₦100 waived under ₦2,500, capped at ₦2,000.
var PaystackLocal = FeeSchedule{
	Percentage:    decimal.RequireFromString("0.015"),
	Flat:          10000,
	FlatThreshold: 250000,
	Cap:           200000,
}

// StripeCard is Stripe's standard card schedule: 2.9% + 30 minor units.
var StripeCard = FeeSchedule{
	Percentage: decimal.RequireFromString("0.029"),
	Flat:       30,
}

// NoFees charges nothing.
var NoFees = FeeSchedule{Percentage: decimal.Zero}

// AddFeesTo returns the gross amount to charge so that, after the provider
// deducts its fee, amount remains.
func (f FeeSchedule) AddFeesTo(amount int64) int64 {
	if amount <= 0 {
		return amount
	}
	flat := int64(0)
	if amount >= f.FlatThreshold {
		flat = f.Flat
	}
	if f.Percentage.IsZero() && flat == 0 {
		return amount
	}
	// one extra kobo absorbs the provider's own rounding
	gross := decimal.NewFromInt(amount+flat).
		Div(decimal.NewFromInt(1).Sub(f.Percentage)).
		Ceil().
		IntPart() + 1
	if f.Cap > 0 && gross-amount > f.Cap {
		return amount + f.Cap
	}
	return gross
}

// Fee returns the fee AddFeesTo adds on top of amount.
func (f FeeSchedule) Fee(amount int64) int64 {
	return f.AddFeesTo(amount) - amount
}
