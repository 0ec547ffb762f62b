// Package ratelimit implements fixed-window request counting keyed by a
// caller token.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// DefaultInterval applies when Options.Interval is zero.
const DefaultInterval = time.Minute

// Result reports the outcome of a single check. Remaining counts the calls
// still allowed in the current window after this one.
type Result struct {
	Success   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// Limiter decides whether a caller may proceed.
type Limiter interface {
	Check(ctx context.Context, limit int, token string) (Result, error)
}

// Options configures an in-memory Window limiter.
type Options struct {
	Interval time.Duration
	// Now overrides the clock, for tests.
	Now func() time.Time
}

type window struct {
	count   int
	resetAt time.Time
}

// Window is an in-process fixed-window limiter.
type Window struct {
	mu       sync.Mutex
	windows  map[string]*window
	interval time.Duration
	now      func() time.Time
}

var _ Limiter = (*Window)(nil)

// NewWindow creates an in-memory limiter.
func NewWindow(opts Options) *Window {
	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Window{
		windows:  make(map[string]*window),
		interval: interval,
		now:      now,
	}
}

// Check counts one call for token. A rejected call does not consume quota.
func (l *Window) Check(_ context.Context, limit int, token string) (Result, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweep(now)

	w, ok := l.windows[token]
	if !ok {
		w = &window{count: 1, resetAt: now.Add(l.interval)}
		l.windows[token] = w
		return Result{Success: limit >= 1, Limit: limit, Remaining: max(limit-1, 0), ResetAt: w.resetAt}, nil
	}
	if w.count >= limit {
		return Result{Limit: limit, ResetAt: w.resetAt}, nil
	}
	w.count++
	return Result{Success: true, Limit: limit, Remaining: limit - w.count, ResetAt: w.resetAt}, nil
}

// sweep drops every window that has ended.
func (l *Window) sweep(now time.Time) {
	for token, w := range l.windows {
		if now.After(w.resetAt) {
			delete(l.windows, token)
		}
	}
}

// Len returns the number of tracked tokens.
func (l *Window) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.windows)
}
