// Package resilience guards calls to the external generation service.
package resilience

import (
	"errors"
	"sync"
	"time"
)

// ErrCircuitOpen is returned while the breaker is rejecting calls.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// State is the breaker position.
type State string

const (
	StateClosed   State = "closed"
	StateOpen     State = "open"
	StateHalfOpen State = "half_open"
)

// Breaker opens after a run of consecutive failures and rejects calls until
// the cool-down elapses, then lets a single probe through.
type Breaker struct {
	mu          sync.Mutex
	state       State
	failures    int
	maxFailures int
	cooldown    time.Duration
	openedAt    time.Time
	counts      func(error) bool
	now         func() time.Time
}

// Option customizes a Breaker.
type Option func(*Breaker)

// WithFailureFilter restricts which errors count toward opening the circuit.
// Errors the filter rejects are returned to the caller but reset nothing and
// trip nothing.
func WithFailureFilter(counts func(error) bool) Option {
	return func(b *Breaker) { b.counts = counts }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(b *Breaker) { b.now = now }
}

// NewBreaker creates a breaker that opens after maxFailures consecutive
// counted failures and stays open for cooldown.
func NewBreaker(maxFailures int, cooldown time.Duration, opts ...Option) *Breaker {
	if maxFailures < 1 {
		maxFailures = 1
	}
	b := &Breaker{
		state:       StateClosed,
		maxFailures: maxFailures,
		cooldown:    cooldown,
		counts:      func(error) bool { return true },
		now:         time.Now,
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

// Execute runs fn unless the circuit is open.
func (b *Breaker) Execute(fn func() error) error {
	if !b.admit() {
		return ErrCircuitOpen
	}

	err := fn()

	b.mu.Lock()
	defer b.mu.Unlock()
	switch {
	case err == nil:
		b.failures = 0
		b.state = StateClosed
	case b.counts(err):
		b.failures++
		if b.state == StateHalfOpen || b.failures >= b.maxFailures {
			b.state = StateOpen
			b.openedAt = b.now()
		}
	case b.state == StateHalfOpen:
		// The probe reached the service; treat the circuit as healthy.
		b.failures = 0
		b.state = StateClosed
	}
	return err
}

// State reports the current position, moving open to half-open when the
// cool-down has elapsed.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.advance()
	return b.state
}

func (b *Breaker) admit() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.advance()
	return b.state != StateOpen
}

// advance must be called with b.mu held.
func (b *Breaker) advance() {
	if b.state == StateOpen && b.now().Sub(b.openedAt) >= b.cooldown {
		b.state = StateHalfOpen
	}
}
