package cache

import (
	"context"
	"sync"
	"time"

	"github.com/amirasaad/wallet/pkg/provider/gateway"
)

// MemoryCache implements BankCache using in-memory storage
type MemoryCache struct {
	cache map[string]*cacheEntry
	mu    sync.RWMutex
	now   func() time.Time
}

// NewMemoryCache creates a new in-memory cache
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		cache: make(map[string]*cacheEntry),
		now:   time.Now,
	}
}

// Get retrieves a bank list from cache
func (c *MemoryCache) Get(_ context.Context, country string) ([]gateway.Bank, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.cache[country]
	if !exists || c.now().After(entry.expiresAt) {
		return nil, false, nil
	}
	return append([]gateway.Bank(nil), entry.banks...), true, nil
}

// Set stores a bank list in cache with TTL
func (c *MemoryCache) Set(_ context.Context, country string, banks []gateway.Bank, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.evictExpired()
	c.cache[country] = &cacheEntry{
		banks:     append([]gateway.Bank(nil), banks...),
		expiresAt: c.now().Add(ttl),
	}
	return nil
}

// Delete removes a bank list from cache
func (c *MemoryCache) Delete(_ context.Context, country string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.cache, country)
	return nil
}

// evictExpired removes expired entries; callers hold mu.
func (c *MemoryCache) evictExpired() {
	now := c.now()
	for key, entry := range c.cache {
		if now.After(entry.expiresAt) {
			delete(c.cache, key)
		}
	}
}

type cacheEntry struct {
	banks     []gateway.Bank
	expiresAt time.Time
}

var _ BankCache = (*MemoryCache)(nil)
