package ratelimit_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Strob0t/PlanForge/internal/ratelimit"
)

type clock struct{ now time.Time }

func (c *clock) Now() time.Time          { return c.now }
func (c *clock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func TestWindowSequence(t *testing.T) {
	ctx := context.Background()
	clk := &clock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	l := ratelimit.NewWindow(ratelimit.Options{Interval: time.Minute, Now: clk.Now})

	for _, want := range []int{2, 1, 0} {
		res, err := l.Check(ctx, 3, "alice")
		require.NoError(t, err)
		assert.True(t, res.Success)
		assert.Equal(t, want, res.Remaining)
	}

	res, err := l.Check(ctx, 3, "alice")
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, 0, res.Remaining)
	assert.Equal(t, clk.now.Add(time.Minute), res.ResetAt)

	clk.Advance(time.Minute + time.Millisecond)
	res, err = l.Check(ctx, 3, "alice")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 2, res.Remaining)
}

func TestWindowBoundaryStillInWindow(t *testing.T) {
	ctx := context.Background()
	clk := &clock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	l := ratelimit.NewWindow(ratelimit.Options{Interval: time.Minute, Now: clk.Now})

	_, _ = l.Check(ctx, 1, "bob")
	clk.Advance(time.Minute)
	res, err := l.Check(ctx, 1, "bob")
	require.NoError(t, err)
	assert.False(t, res.Success, "check at exactly resetAt belongs to the old window")
}

func TestWindowTokensIndependent(t *testing.T) {
	ctx := context.Background()
	l := ratelimit.NewWindow(ratelimit.Options{})

	_, _ = l.Check(ctx, 1, "a")
	res, err := l.Check(ctx, 1, "b")
	require.NoError(t, err)
	assert.True(t, res.Success)
}

func TestWindowSweepsExpired(t *testing.T) {
	ctx := context.Background()
	clk := &clock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	l := ratelimit.NewWindow(ratelimit.Options{Interval: time.Second, Now: clk.Now})

	for _, tok := range []string{"a", "b", "c"} {
		_, _ = l.Check(ctx, 5, tok)
	}
	require.Equal(t, 3, l.Len())

	clk.Advance(2 * time.Second)
	_, _ = l.Check(ctx, 5, "d")
	assert.Equal(t, 1, l.Len())
}

func setupRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

func TestRedisSequence(t *testing.T) {
	ctx := context.Background()
	client, mr := setupRedis(t)
	l := ratelimit.NewRedis(client, time.Minute)

	for _, want := range []int{2, 1, 0} {
		res, err := l.Check(ctx, 3, "alice")
		require.NoError(t, err)
		assert.True(t, res.Success)
		assert.Equal(t, want, res.Remaining)
	}

	res, err := l.Check(ctx, 3, "alice")
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, 0, res.Remaining)

	mr.FastForward(time.Minute + time.Millisecond)
	res, err = l.Check(ctx, 3, "alice")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 2, res.Remaining)
}

func TestRedisSetsExpiry(t *testing.T) {
	ctx := context.Background()
	client, mr := setupRedis(t)
	l := ratelimit.NewRedis(client, 30*time.Second)

	_, err := l.Check(ctx, 10, "carol")
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, mr.TTL("planforge:ratelimit:carol"))
}

func TestRedisUnavailable(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	mr.Close()
	l := ratelimit.NewRedis(client, time.Minute)

	_, err = l.Check(context.Background(), 3, "dave")
	assert.Error(t, err)
}
