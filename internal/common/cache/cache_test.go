package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	data    map[string]string
	ttls    map[string]time.Duration
	deleted []string
	getErr  error
}

func newMemStore() *memStore {
	return &memStore{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (m *memStore) Get(_ context.Context, key string) *redis.StringCmd {
	if m.getErr != nil {
		return redis.NewStringResult("", m.getErr)
	}
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *memStore) Set(_ context.Context, key string, value interface{}, exp time.Duration) *redis.StatusCmd {
	m.data[key] = value.(string)
	m.ttls[key] = exp
	return redis.NewStatusResult("OK", nil)
}

func (m *memStore) Del(_ context.Context, keys ...string) *redis.IntCmd {
	var n int64
	for _, k := range keys {
		m.deleted = append(m.deleted, k)
		if _, ok := m.data[k]; ok {
			delete(m.data, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

type payload struct {
	Code  string `json:"code"`
	Count int    `json:"count"`
}

func TestGetOrSetCachesLoadedValue(t *testing.T) {
	store := newMemStore()
	c := NewCacheService(store, time.Minute)
	ctx := context.Background()

	loads := 0
	load := func() (payload, error) {
		loads++
		return payload{Code: "abc", Count: 2}, nil
	}

	v, hit, err := GetOrSet(ctx, c, StatsKey("0x1"), load)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, "abc", v.Code)

	v, hit, err = GetOrSet(ctx, c, StatsKey("0x1"), load)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 2, v.Count)
	assert.Equal(t, 1, loads)
	assert.Equal(t, time.Minute, store.ttls[StatsKey("0x1")])
}

func TestGetOrSetFallsBackOnStoreError(t *testing.T) {
	store := newMemStore()
	store.getErr = errors.New("connection refused")
	c := NewCacheService(store, time.Minute)

	v, hit, err := GetOrSet(context.Background(), c, "k", func() (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 7, v)
}

func TestInvalidateWallets(t *testing.T) {
	store := newMemStore()
	c := NewCacheService(store, time.Minute)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, StatsKey("a"), payload{}))
	require.NoError(t, c.Set(ctx, StakesKey("b"), payload{}))
	require.NoError(t, c.InvalidateWallets(ctx, "a", "", "b"))

	assert.Empty(t, store.data)
	assert.ElementsMatch(t, []string{StatsKey("a"), StakesKey("a"), StatsKey("b"), StakesKey("b")}, store.deleted)
}

func TestDisabledCacheIsNoop(t *testing.T) {
	c := NewCacheService(nil, time.Minute)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", 1))
	var out int
	assert.ErrorIs(t, c.Get(ctx, "k", &out), ErrMiss)
	require.NoError(t, c.InvalidateWallets(ctx, "a"))

	var nilCache *CacheService
	assert.ErrorIs(t, nilCache.Get(ctx, "k", &out), ErrMiss)
}
