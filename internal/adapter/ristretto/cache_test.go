package ristretto_test

import (
	"context"
	"testing"
	"time"

	"github.com/Strob0t/PlanForge/internal/adapter/ristretto"
	"github.com/Strob0t/PlanForge/internal/port/cache/cachetest"
)

func newCache(t *testing.T) *ristretto.Cache {
	t.Helper()
	c, err := ristretto.New(1<<20, time.Minute)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(c.Close)
	return c
}

func TestRistrettoCompliance(t *testing.T) {
	cachetest.RunComplianceTests(t, newCache(t))
}

func TestRistrettoTTL(t *testing.T) {
	c := newCache(t)
	ctx := context.Background()

	_ = c.Set(ctx, "short", []byte("v"), 50*time.Millisecond)
	if _, found, _ := c.Get(ctx, "short"); !found {
		t.Fatal("expected hit before expiry")
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		if _, found, _ := c.Get(ctx, "short"); !found {
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("expected entry to expire")
		}
		time.Sleep(20 * time.Millisecond)
	}
}
