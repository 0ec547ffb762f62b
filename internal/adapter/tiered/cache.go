// Package tiered layers an in-process cache in front of a shared one.
package tiered

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Strob0t/PlanForge/internal/port/cache"
)

var _ cache.Cache = (*Cache)(nil)

// Stats counts where reads were answered.
type Stats struct {
	L1Hits int64
	L2Hits int64
	Misses int64
}

// Cache reads L1 first and falls back to L2, copying L2 hits into L1 for
// l1Expire. Concurrent L2 reads of one key share a single round trip.
// L2 read and write failures degrade to L1 only; they are logged, never
// returned.
type Cache struct {
	l1       cache.Cache
	l2       cache.Cache
	l1Expire time.Duration
	group    singleflight.Group

	l1Hits atomic.Int64
	l2Hits atomic.Int64
	misses atomic.Int64
}

// New creates a tiered cache.
func New(l1, l2 cache.Cache, l1Expire time.Duration) *Cache {
	return &Cache{l1: l1, l2: l2, l1Expire: l1Expire}
}

type l2Result struct {
	val   []byte
	found bool
}

func (c *Cache) Get(ctx context.Context, key string) (data []byte, ok bool, err error) {
	val, found, err := c.l1.Get(ctx, key)
	if err != nil {
		return nil, false, err
	}
	if found {
		c.l1Hits.Add(1)
		return val, true, nil
	}

	v, _, _ := c.group.Do(key, func() (any, error) {
		val, found, err := c.l2.Get(ctx, key)
		if err != nil {
			slog.WarnContext(ctx, "l2 cache get failed", "key", key, "error", err)
			return l2Result{}, nil
		}
		if found {
			_ = c.l1.Set(ctx, key, val, c.l1Expire)
		}
		return l2Result{val: val, found: found}, nil
	})
	res := v.(l2Result)
	if !res.found {
		c.misses.Add(1)
		return nil, false, nil
	}
	c.l2Hits.Add(1)
	return res.val, true, nil
}

func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.l1.Set(ctx, key, value, ttl); err != nil {
		return err
	}
	if err := c.l2.Set(ctx, key, value, ttl); err != nil {
		slog.WarnContext(ctx, "l2 cache set failed", "key", key, "error", err)
	}
	return nil
}

// Delete removes key from both levels. An L2 failure is returned: a stale
// shared entry would outlive the invalidation on other instances.
func (c *Cache) Delete(ctx context.Context, key string) error {
	if err := c.l1.Delete(ctx, key); err != nil {
		return err
	}
	return c.l2.Delete(ctx, key)
}

// Stats returns read counters since creation.
func (c *Cache) Stats() Stats {
	return Stats{
		L1Hits: c.l1Hits.Load(),
		L2Hits: c.l2Hits.Load(),
		Misses: c.misses.Load(),
	}
}
