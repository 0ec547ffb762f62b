// Package ristretto implements the cache port using dgraph-io/ristretto as L1 in-process cache.
package ristretto

import (
	"context"
	"time"

	"github.com/dgraph-io/ristretto/v2"

	cacheport "github.com/Strob0t/PlanForge/internal/port/cache"
)

var _ cacheport.Cache = (*Cache)(nil)

// Cache wraps a ristretto cache as a size-bounded L1 cache.
type Cache struct {
	c          *ristretto.Cache[string, []byte]
	defaultTTL time.Duration
}

// New creates a ristretto-backed cache. maxCostBytes is the maximum total
// size of cached values in bytes; defaultTTL applies when Set gets zero.
func New(maxCostBytes int64, defaultTTL time.Duration) (*Cache, error) {
	counters := maxCostBytes / 100 * 10 // ~10x expected items
	if counters < 1000 {
		counters = 1000
	}
	c, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		NumCounters: counters,
		MaxCost:     maxCostBytes,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &Cache{c: c, defaultTTL: defaultTTL}, nil
}

// Get retrieves a value from the cache.
func (c *Cache) Get(_ context.Context, key string) (data []byte, ok bool, err error) {
	val, found := c.c.Get(key)
	if !found {
		return nil, false, nil
	}
	return val, true, nil
}

// Set stores a value and waits for the write buffer to drain so that an
// immediate Get observes it. Ristretto may still reject the item under
// admission pressure; that is a miss, not an error.
func (c *Cache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	c.c.SetWithTTL(key, value, int64(len(value)), ttl)
	c.c.Wait()
	return nil
}

// Delete removes a value from the cache.
func (c *Cache) Delete(_ context.Context, key string) error {
	c.c.Del(key)
	return nil
}

// Close shuts down the cache and releases resources.
func (c *Cache) Close() {
	c.c.Close()
}
