package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrMiss is returned by Get when the key is absent or caching is disabled.
var ErrMiss = errors.New("cache miss")

// Store is the subset of go-redis the cache needs.
type Store interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

type CacheService struct {
	store Store
	ttl   time.Duration
}

// NewCacheService returns a cache over store. A nil store disables caching.
func NewCacheService(store Store, ttl time.Duration) *CacheService {
	return &CacheService{store: store, ttl: ttl}
}

func (c *CacheService) enabled() bool {
	return c != nil && c.store != nil
}

// Get получает значение из кэша
func (c *CacheService) Get(ctx context.Context, key string, dest interface{}) error {
	if !c.enabled() {
		return ErrMiss
	}
	data, err := c.store.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return ErrMiss
	}
	if err != nil {
		return err
	}

	return json.Unmarshal([]byte(data), dest)
}

// Set сохраняет значение в кэш
func (c *CacheService) Set(ctx context.Context, key string, value interface{}) error {
	if !c.enabled() {
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	return c.store.Set(ctx, key, string(data), c.ttl).Err()
}

// Delete удаляет значения из кэша
func (c *CacheService) Delete(ctx context.Context, keys ...string) error {
	if !c.enabled() || len(keys) == 0 {
		return nil
	}
	return c.store.Del(ctx, keys...).Err()
}

// GetOrSet получает значение из кэша или вычисляет и сохраняет новое.
// Cache failures never fail the call.
func GetOrSet[T any](ctx context.Context, c *CacheService, key string, load func() (T, error)) (T, bool, error) {
	var cached T
	if err := c.Get(ctx, key, &cached); err == nil {
		return cached, true, nil
	}

	value, err := load()
	if err != nil {
		return value, false, err
	}

	_ = c.Set(ctx, key, value)
	return value, false, nil
}

func StatsKey(wallet string) string {
	return fmt.Sprintf("user_stats:%s", wallet)
}

func StakesKey(wallet string) string {
	return fmt.Sprintf("user_stakes:%s", wallet)
}

// InvalidateWallets инвалидирует проекции кошельков после коммита
func (c *CacheService) InvalidateWallets(ctx context.Context, wallets ...string) error {
	keys := make([]string, 0, len(wallets)*2)
	for _, w := range wallets {
		if w == "" {
			continue
		}
		keys = append(keys, StatsKey(w), StakesKey(w))
	}
	return c.Delete(ctx, keys...)
}
