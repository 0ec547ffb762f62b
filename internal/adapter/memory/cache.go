// Package memory implements the cache port on the in-process TTL cache.
package memory

import (
	"context"
	"time"

	"github.com/Strob0t/PlanForge/internal/cache"
	cacheport "github.com/Strob0t/PlanForge/internal/port/cache"
)

var _ cacheport.Cache = (*Cache)(nil)

// Cache adapts cache.TTL to the byte-oriented cache port. It never
// returns an error.
type Cache struct {
	ttl *cache.TTL[[]byte]
}

// New creates a memory cache using opts for the default TTL and clock.
func New(opts cache.Options) *Cache {
	return &Cache{ttl: cache.New[[]byte](opts)}
}

// Get returns the value for key if present and fresh.
func (c *Cache) Get(_ context.Context, key string) (data []byte, ok bool, err error) {
	data, ok = c.ttl.Get(key)
	return data, ok, nil
}

// Set stores value under key. A zero ttl uses the default.
func (c *Cache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		c.ttl.Set(key, value)
		return nil
	}
	c.ttl.SetWithTTL(key, value, ttl)
	return nil
}

// Delete removes key.
func (c *Cache) Delete(_ context.Context, key string) error {
	c.ttl.Delete(key)
	return nil
}

// Len reports stored entries, including expired ones not yet purged.
func (c *Cache) Len() int {
	return c.ttl.Len()
}
