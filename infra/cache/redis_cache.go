package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/amirasaad/wallet/pkg/provider/gateway"
	"github.com/redis/go-redis/v9"
)

// RedisCache implements BankCache using Redis.
type RedisCache struct {
	client *redis.Client
	prefix string
	logger *slog.Logger
}

// NewRedisCache creates a RedisCache from a connection URL.
func NewRedisCache(url, prefix string, logger *slog.Logger) (*RedisCache, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis cache: invalid URL: %w", err)
	}
	return NewRedisCacheWithClient(redis.NewClient(opt), prefix, logger), nil
}

// NewRedisCacheWithClient creates a RedisCache over an existing client.
func NewRedisCacheWithClient(client *redis.Client, prefix string, logger *slog.Logger) *RedisCache {
	return &RedisCache{client: client, prefix: prefix, logger: logger}
}

func (r *RedisCache) key(country string) string {
	return r.prefix + "banks:" + country
}

func (r *RedisCache) Get(ctx context.Context, country string) ([]gateway.Bank, bool, error) {
	val, err := r.client.Get(ctx, r.key(country)).Result()
	if errors.Is(err, redis.Nil) {
		r.logger.Debug("Redis cache miss", "country", country)
		return nil, false, nil
	}
	if err != nil {
		r.logger.Error("Redis cache get error", "country", country, "error", err)
		return nil, false, err
	}
	var banks []gateway.Bank
	if err := json.Unmarshal([]byte(val), &banks); err != nil {
		r.logger.Error("Redis cache unmarshal error", "country", country, "error", err)
		return nil, false, err
	}
	r.logger.Debug("Redis cache hit", "country", country, "banks", len(banks))
	return banks, true, nil
}

func (r *RedisCache) Set(ctx context.Context, country string, banks []gateway.Bank, ttl time.Duration) error {
	data, err := json.Marshal(banks)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, r.key(country), data, ttl).Err(); err != nil {
		r.logger.Error("Redis cache set error", "country", country, "error", err)
		return err
	}
	r.logger.Debug("Redis cache set", "country", country, "ttl", ttl)
	return nil
}

func (r *RedisCache) Delete(ctx context.Context, country string) error {
	if err := r.client.Del(ctx, r.key(country)).Err(); err != nil {
		r.logger.Error("Redis cache delete error", "country", country, "error", err)
		return err
	}
	return nil
}

// Close closes the underlying client.
func (r *RedisCache) Close() error {
	return r.client.Close()
}

var _ BankCache = (*RedisCache)(nil)
