// Package cache provides an in-process TTL cache with lazy expiry and the
// key derivation used to memoize idempotent reads.
package cache

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// DefaultTTL applies when Options.DefaultTTL is zero.
const DefaultTTL = 5 * time.Minute

// Options configures a TTL cache.
type Options struct {
	DefaultTTL time.Duration
	// Now overrides the clock, for tests.
	Now func() time.Time
}

type entry[V any] struct {
	value    V
	storedAt time.Time
	ttl      time.Duration
}

func (e *entry[V]) expired(now time.Time) bool {
	return now.Sub(e.storedAt) > e.ttl
}

// TTL is a mutex-protected map whose entries expire after their TTL.
// Expired entries are removed on the next Get; there is no background sweep
// and no size bound.
type TTL[V any] struct {
	mu         sync.Mutex
	entries    map[string]*entry[V]
	defaultTTL time.Duration
	now        func() time.Time
}

// New creates an empty TTL cache.
func New[V any](opts Options) *TTL[V] {
	ttl := opts.DefaultTTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &TTL[V]{
		entries:    make(map[string]*entry[V]),
		defaultTTL: ttl,
		now:        now,
	}
}

// Set stores v under key with the default TTL, replacing any prior entry.
func (c *TTL[V]) Set(key string, v V) {
	c.SetWithTTL(key, v, c.defaultTTL)
}

// SetWithTTL stores v under key with an explicit TTL.
func (c *TTL[V]) SetWithTTL(key string, v V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = &entry[V]{value: v, storedAt: c.now(), ttl: ttl}
}

// Get returns the live value for key. An expired entry is purged and
// reported as a miss.
func (c *TTL[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	e, ok := c.entries[key]
	if !ok {
		return zero, false
	}
	if e.expired(c.now()) {
		delete(c.entries, key)
		return zero, false
	}
	return e.value, true
}

// Delete removes key if present.
func (c *TTL[V]) Delete(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Clear removes every entry.
func (c *TTL[V]) Clear() {
	c.mu.Lock()
	clear(c.entries)
	c.mu.Unlock()
}

// Len returns the number of stored entries, including expired ones not yet
// purged.
func (c *TTL[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// GenerateKey derives a cache key from an endpoint and its parameters.
// Parameter names are sorted and values JSON-encoded, so the key does not
// depend on map iteration order: endpoint?a=1&b="x".
func GenerateKey(endpoint string, params map[string]any) string {
	if len(params) == 0 {
		return endpoint + "?"
	}
	names := make([]string, 0, len(params))
	for k := range params {
		names = append(names, k)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, k := range names {
		parts = append(parts, k+"="+encodeValue(params[k]))
	}
	return endpoint + "?" + strings.Join(parts, "&")
}

func encodeValue(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}
