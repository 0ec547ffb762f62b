package otel

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "planforge"

// Metrics holds the PlanForge metric instruments. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	GenerationsStarted   metric.Int64Counter
	GenerationsSucceeded metric.Int64Counter
	GenerationsFailed    metric.Int64Counter
	GenerationDuration   metric.Float64Histogram
	RateLimitRejections  metric.Int64Counter
	CacheHits            metric.Int64Counter
	CacheMisses          metric.Int64Counter
	PlanMutations        metric.Int64Counter
}

// NewMetrics creates all metric instruments on the global meter provider.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	if m.GenerationsStarted, err = meter.Int64Counter("planforge.generations.started",
		metric.WithDescription("Plan generations started")); err != nil {
		return nil, err
	}
	if m.GenerationsSucceeded, err = meter.Int64Counter("planforge.generations.succeeded",
		metric.WithDescription("Plan generations that produced a plan")); err != nil {
		return nil, err
	}
	if m.GenerationsFailed, err = meter.Int64Counter("planforge.generations.failed",
		metric.WithDescription("Plan generations that failed, by kind")); err != nil {
		return nil, err
	}
	if m.GenerationDuration, err = meter.Float64Histogram("planforge.generation.duration_seconds",
		metric.WithDescription("Plan generation duration in seconds"),
		metric.WithUnit("s")); err != nil {
		return nil, err
	}
	if m.RateLimitRejections, err = meter.Int64Counter("planforge.ratelimit.rejections",
		metric.WithDescription("Requests rejected by the rate limiter")); err != nil {
		return nil, err
	}
	if m.CacheHits, err = meter.Int64Counter("planforge.cache.hits",
		metric.WithDescription("Plan cache hits")); err != nil {
		return nil, err
	}
	if m.CacheMisses, err = meter.Int64Counter("planforge.cache.misses",
		metric.WithDescription("Plan cache misses")); err != nil {
		return nil, err
	}
	if m.PlanMutations, err = meter.Int64Counter("planforge.plans.mutations",
		metric.WithDescription("Plan saves, updates and deletes, by operation")); err != nil {
		return nil, err
	}
	return m, nil
}

// GenerationStarted records the start of a generation.
func (m *Metrics) GenerationStarted(ctx context.Context) {
	if m == nil {
		return
	}
	m.GenerationsStarted.Add(ctx, 1)
}

// GenerationFinished records the outcome of a generation. An empty kind
// means success.
func (m *Metrics) GenerationFinished(ctx context.Context, kind string, elapsed time.Duration) {
	if m == nil {
		return
	}
	outcome := "success"
	if kind != "" {
		outcome = kind
		m.GenerationsFailed.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
	} else {
		m.GenerationsSucceeded.Add(ctx, 1)
	}
	m.GenerationDuration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(attribute.String("outcome", outcome)))
}

// RateLimited records a rejected request.
func (m *Metrics) RateLimited(ctx context.Context, route string) {
	if m == nil {
		return
	}
	m.RateLimitRejections.Add(ctx, 1, metric.WithAttributes(attribute.String("route", route)))
}

// CacheLookup records a cache hit or miss.
func (m *Metrics) CacheLookup(ctx context.Context, hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.CacheHits.Add(ctx, 1)
		return
	}
	m.CacheMisses.Add(ctx, 1)
}

// PlanMutated records a plan save, update or delete.
func (m *Metrics) PlanMutated(ctx context.Context, op string) {
	if m == nil {
		return
	}
	m.PlanMutations.Add(ctx, 1, metric.WithAttributes(attribute.String("op", op)))
}
