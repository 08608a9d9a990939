package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/amirasaad/wallet/pkg/provider/gateway"
	"golang.org/x/sync/singleflight"
)

type cachedBanks struct {
	gateway.Gateway
	cache    BankCache
	ttl      time.Duration
	logger   *slog.Logger
	inflight singleflight.Group
}

// WithBankCache returns gw with ListBanks answered from c for ttl. Cache
// failures fall through to the gateway, and concurrent misses for one
// country share a single gateway call.
func WithBankCache(gw gateway.Gateway, c BankCache, ttl time.Duration, logger *slog.Logger) gateway.Gateway {
	return &cachedBanks{Gateway: gw, cache: c, ttl: ttl, logger: logger.With("component", "bank_cache")}
}

func (g *cachedBanks) ListBanks(ctx context.Context, country string) ([]gateway.Bank, error) {
	banks, ok, err := g.cache.Get(ctx, country)
	if err != nil {
		g.logger.Warn("bank cache read failed", "country", country, "error", err)
	}
	if ok {
		return banks, nil
	}

	v, err, shared := g.inflight.Do(country, func() (any, error) {
		banks, err := g.Gateway.ListBanks(ctx, country)
		if err != nil {
			return nil, err
		}
		if err := g.cache.Set(ctx, country, banks, g.ttl); err != nil {
			g.logger.Warn("bank cache write failed", "country", country, "error", err)
		}
		return banks, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		g.logger.Debug("bank list fetch shared", "country", country)
	}
	return v.([]gateway.Bank), nil
}
