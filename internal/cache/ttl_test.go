package cache_test

import (
	"sync"
	"testing"
	"time"

	"github.com/Strob0t/PlanForge/internal/cache"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func TestSetGet(t *testing.T) {
	c := cache.New[string](cache.Options{})
	c.Set("k", "v")

	got, ok := c.Get("k")
	if !ok || got != "v" {
		t.Fatalf("Get = (%q, %v), want (v, true)", got, ok)
	}
	if _, ok := c.Get("missing"); ok {
		t.Fatal("expected miss for unknown key")
	}
}

func TestExpiry(t *testing.T) {
	clock := newClock()
	c := cache.New[int](cache.Options{DefaultTTL: time.Minute, Now: clock.Now})
	c.Set("k", 1)

	clock.Advance(time.Minute)
	if _, ok := c.Get("k"); !ok {
		t.Fatal("entry at exactly its TTL must still be live")
	}

	clock.Advance(time.Millisecond)
	if _, ok := c.Get("k"); ok {
		t.Fatal("expected entry to be expired")
	}
	if c.Len() != 0 {
		t.Fatalf("expired entry should be purged on access, len=%d", c.Len())
	}
}

func TestSetWithTTLOverridesDefault(t *testing.T) {
	clock := newClock()
	c := cache.New[int](cache.Options{DefaultTTL: time.Hour, Now: clock.Now})
	c.SetWithTTL("short", 1, time.Second)
	c.Set("long", 2)

	clock.Advance(2 * time.Second)
	if _, ok := c.Get("short"); ok {
		t.Error("short entry should have expired")
	}
	if v, ok := c.Get("long"); !ok || v != 2 {
		t.Error("long entry should still be live")
	}
}

func TestSetReplacesAndRestartsTTL(t *testing.T) {
	clock := newClock()
	c := cache.New[string](cache.Options{DefaultTTL: time.Minute, Now: clock.Now})
	c.Set("k", "old")
	clock.Advance(50 * time.Second)
	c.Set("k", "new")
	clock.Advance(50 * time.Second)

	if v, ok := c.Get("k"); !ok || v != "new" {
		t.Fatalf("Get = (%q, %v), want (new, true)", v, ok)
	}
}

func TestDeleteAndClear(t *testing.T) {
	c := cache.New[int](cache.Options{})
	c.Set("a", 1)
	c.Set("b", 2)

	c.Delete("a")
	if _, ok := c.Get("a"); ok {
		t.Error("a should be deleted")
	}
	c.Delete("never-set")

	c.Clear()
	if c.Len() != 0 {
		t.Fatalf("expected empty cache, len=%d", c.Len())
	}
}

func TestConcurrentAccess(t *testing.T) {
	c := cache.New[int](cache.Options{})
	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			key := cache.GenerateKey("/plans", map[string]any{"i": i % 5})
			c.Set(key, i)
			c.Get(key)
		}()
	}
	wg.Wait()
	if c.Len() != 5 {
		t.Fatalf("expected 5 keys, got %d", c.Len())
	}
}

func TestGenerateKey(t *testing.T) {
	a := cache.GenerateKey("/api/plans", map[string]any{"a": 1, "b": 2})
	b := cache.GenerateKey("/api/plans", map[string]any{"b": 2, "a": 1})
	if a != b {
		t.Fatalf("key depends on param order: %q vs %q", a, b)
	}

	got := cache.GenerateKey("/api/plans", map[string]any{"b": "x", "a": 1})
	if want := `/api/plans?a=1&b="x"`; got != want {
		t.Errorf("GenerateKey = %q, want %q", got, want)
	}

	if cache.GenerateKey("/e", map[string]any{"a": 1}) == cache.GenerateKey("/e", map[string]any{"a": "1"}) {
		t.Error("number and string values must produce different keys")
	}
}
