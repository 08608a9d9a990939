package settlement

import (
	"github.com/amirasaad/wallet/pkg/config"
	"github.com/amirasaad/wallet/pkg/provider/gateway"
	"github.com/shopspring/decimal"
)

// Quote breaks down what a payer is charged to credit Amount to a wallet.
type Quote struct {
	Amount      int64 `json:"amount"`
	GatewayFee  int64 `json:"gateway_fee"`
	PlatformFee int64 `json:"platform_fee"`
	Split       int64 `json:"split"`
	Gross       int64 `json:"gross"`
}

// PlatformFee is the flat platform charge: cfg.PlatformFeeAbove from the
// threshold upward, cfg.PlatformFeeBelow under it.
func PlatformFee(cfg *config.Ledger, amount int64) int64 {
	if amount >= cfg.PlatformFeeThreshold {
		return cfg.PlatformFeeAbove
	}
	return cfg.PlatformFeeBelow
}

// SplitFee is the subaccount share of amount, rounded up to the next kobo.
func SplitFee(cfg *config.Ledger, amount int64) int64 {
	if cfg.SplitPercentage <= 0 {
		return 0
	}
	return decimal.NewFromInt(amount).
		Mul(decimal.NewFromFloat(cfg.SplitPercentage)).
		Ceil().
		IntPart()
}

// QuoteFunding prices a funding of amount under the gateway's schedule.
func QuoteFunding(cfg *config.Ledger, fees gateway.FeeSchedule, amount int64) Quote {
	withGateway := fees.AddFeesTo(amount)
	q := Quote{
		Amount:      amount,
		GatewayFee:  withGateway - amount,
		PlatformFee: PlatformFee(cfg, amount),
		Split:       SplitFee(cfg, amount),
	}
	q.Gross = withGateway + q.PlatformFee + q.Split
	return q
}
