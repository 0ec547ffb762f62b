package middleware

import (
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"time"

	cfotel "github.com/Strob0t/PlanForge/internal/adapter/otel"
	"github.com/Strob0t/PlanForge/internal/domain"
	"github.com/Strob0t/PlanForge/internal/domain/generation"
	"github.com/Strob0t/PlanForge/internal/logger"
	"github.com/Strob0t/PlanForge/internal/ratelimit"
)

// KeyFunc derives the rate limit token for a request.
type KeyFunc func(r *http.Request) string

// RateLimitOption customizes RateLimit.
type RateLimitOption func(*rateLimitConfig)

type rateLimitConfig struct {
	metrics *cfotel.Metrics
	now     func() time.Time
}

// WithRateLimitMetrics records rejections on m.
func WithRateLimitMetrics(m *cfotel.Metrics) RateLimitOption {
	return func(c *rateLimitConfig) { c.metrics = m }
}

// RateLimit returns middleware that admits at most limit requests per
// window for each key. Rejected requests get a 429 with the structured
// too_many_requests body. A limiter error lets the request through.
func RateLimit(limiter ratelimit.Limiter, limit int, keyFn KeyFunc, opts ...RateLimitOption) func(http.Handler) http.Handler {
	cfg := rateLimitConfig{now: time.Now}
	for _, o := range opts {
		o(&cfg)
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res, err := limiter.Check(r.Context(), limit, keyFn(r))
			if err != nil {
				slog.Warn("rate limiter unavailable, allowing request",
					"path", r.URL.Path,
					"request_id", logger.RequestID(r.Context()),
					"error", err,
				)
				next.ServeHTTP(w, r)
				return
			}

			h := w.Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(limit))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))

			if !res.Success {
				retry := math.Ceil(res.ResetAt.Sub(cfg.now()).Seconds())
				if retry < 1 {
					retry = 1
				}
				h.Set("Retry-After", strconv.Itoa(int(retry)))
				cfg.metrics.RateLimited(r.Context(), r.URL.Path)

				ge := generation.TooManyRequests()
				writeError(w, http.StatusTooManyRequests, string(ge.Kind), ge.Message)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// OwnerOrIP keys requests by authenticated owner, falling back to the
// client IP.
func OwnerOrIP(r *http.Request) string {
	if owner := domain.OwnerFromContext(r.Context()); owner != "" && owner != domain.LocalOwnerID {
		return "owner:" + owner
	}
	return "ip:" + realIP(r)
}

// realIP extracts the client IP from RemoteAddr.
// Proxy headers (X-Forwarded-For, X-Real-Ip) are NOT trusted because
// they can be spoofed by attackers to bypass rate limiting.
func realIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
