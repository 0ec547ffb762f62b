// Package natskv implements the cache port using NATS JetStream KV as L2 remote cache.
package natskv

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	cacheport "github.com/Strob0t/PlanForge/internal/port/cache"
)

var _ cacheport.Cache = (*Cache)(nil)

// DefaultBucket is the KV bucket used for the plan read cache.
const DefaultBucket = "planforge-cache"

// Cache wraps a NATS JetStream KeyValue store as an L2 cache.
// Entries expire with the bucket TTL; per-key TTLs are ignored.
type Cache struct {
	kv jetstream.KeyValue
}

// New creates a NATS KV-backed cache.
func New(kv jetstream.KeyValue) *Cache {
	return &Cache{kv: kv}
}

// Open creates or updates bucket with the given TTL and wraps it.
func Open(ctx context.Context, js jetstream.JetStream, bucket string, ttl time.Duration) (*Cache, error) {
	if bucket == "" {
		bucket = DefaultBucket
	}
	kv, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      bucket,
		Description: "PlanForge plan read cache",
		TTL:         ttl,
		History:     1,
	})
	if err != nil {
		return nil, fmt.Errorf("kv bucket %s: %w", bucket, err)
	}
	return New(kv), nil
}

// kvKey maps an arbitrary cache key onto the KV key alphabet.
func kvKey(key string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(key))
}

// Get retrieves a value from the NATS KV store.
func (c *Cache) Get(ctx context.Context, key string) (data []byte, ok bool, err error) {
	entry, err := c.kv.Get(ctx, kvKey(key))
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return entry.Value(), true, nil
}

// Set stores a value in the NATS KV store. TTL is managed at bucket level.
func (c *Cache) Set(ctx context.Context, key string, value []byte, _ time.Duration) error {
	_, err := c.kv.Put(ctx, kvKey(key), value)
	return err
}

// Delete removes a value from the NATS KV store.
func (c *Cache) Delete(ctx context.Context, key string) error {
	err := c.kv.Delete(ctx, kvKey(key))
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		return nil
	}
	return err
}
