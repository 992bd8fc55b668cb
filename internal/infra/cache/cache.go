package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto"
	"golang.org/x/sync/singleflight"
)

// Cache defines a TTL cache for values that are expensive to fetch, such as
// autocomplete option lists.
type Cache[V any] interface {
	Get(ctx context.Context, key string) (V, bool)
	Set(ctx context.Context, key string, value V, ttl time.Duration) bool
	Delete(ctx context.Context, key string)
	GetOrLoad(ctx context.Context, key string, ttl time.Duration, loader func(context.Context) (V, error)) (V, error)
}

// CacheConfig holds configuration for the cache
type CacheConfig struct {
	// MaxCost bounds the number of entries; every entry costs 1.
	MaxCost int64
	// NumCounters is the number of counters for the admission policy
	NumCounters int64
	// BufferItems is the number of items to buffer
	BufferItems int64
}

func DefaultConfig() *CacheConfig {
	return &CacheConfig{
		MaxCost:     1 << 12,
		NumCounters: 1 << 15,
		BufferItems: 64,
	}
}

var _ Cache[any] = (*RistrettoCache[any])(nil)

// RistrettoCache is a Cache backed by ristretto. Concurrent loads of the same
// key share one loader call.
type RistrettoCache[V any] struct {
	store       *ristretto.Cache
	singleGroup singleflight.Group
}

func New[V any](config *CacheConfig) (*RistrettoCache[V], error) {
	if config == nil {
		config = DefaultConfig()
	}

	store, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: config.NumCounters,
		MaxCost:     config.MaxCost,
		BufferItems: config.BufferItems,
	})
	if err != nil {
		return nil, fmt.Errorf("creating ristretto cache: %w", err)
	}

	return &RistrettoCache[V]{store: store}, nil
}

func (c *RistrettoCache[V]) Get(ctx context.Context, key string) (V, bool) {
	var zero V
	if ctx.Err() != nil {
		return zero, false
	}
	value, found := c.store.Get(key)
	if !found {
		return zero, false
	}
	typed, ok := value.(V)
	return typed, ok
}

// Set stores value and waits for the write buffer so the value is readable
// immediately afterwards.
func (c *RistrettoCache[V]) Set(ctx context.Context, key string, value V, ttl time.Duration) bool {
	if ctx.Err() != nil {
		return false
	}
	ok := c.store.SetWithTTL(key, value, 1, ttl)
	c.store.Wait()
	return ok
}

func (c *RistrettoCache[V]) Delete(ctx context.Context, key string) {
	if ctx.Err() != nil {
		return
	}
	c.store.Del(key)
}

func (c *RistrettoCache[V]) GetOrLoad(ctx context.Context, key string, ttl time.Duration, loader func(context.Context) (V, error)) (V, error) {
	if value, found := c.Get(ctx, key); found {
		return value, nil
	}

	value, err, _ := c.singleGroup.Do(key, func() (any, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if value, found := c.Get(ctx, key); found {
			return value, nil
		}

		value, err := loader(ctx)
		if err != nil {
			return nil, err
		}

		c.Set(ctx, key, value, ttl)
		return value, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return value.(V), nil
}

func (c *RistrettoCache[V]) Close() {
	c.store.Close()
}
