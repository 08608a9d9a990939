// Package cache keeps slow-changing gateway reference data, such as the
// payout bank list, so that every request does not hit the provider.
package cache

import (
	"context"
	"time"

	"github.com/amirasaad/wallet/pkg/provider/gateway"
)

// BankCache stores bank lists per country. A miss returns (nil, false, nil).
type BankCache interface {
	Get(ctx context.Context, country string) ([]gateway.Bank, bool, error)
	Set(ctx context.Context, country string, banks []gateway.Bank, ttl time.Duration) error
	Delete(ctx context.Context, country string) error
}
