package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	ttlcache "github.com/Strob0t/PlanForge/internal/cache"
	"github.com/Strob0t/PlanForge/internal/domain"
	"github.com/Strob0t/PlanForge/internal/port/cache"
)

const (
	headerIdempotencyKey = "Idempotency-Key"
	maxIdempotencyBody   = 1 << 20 // 1 MB
	maxIdempotencyKeyLen = 255
)

// idempotencyEntry stores a cached HTTP response and the digest of the
// request body that produced it.
type idempotencyEntry struct {
	BodyDigest string              `json:"body_digest"`
	StatusCode int                 `json:"status_code"`
	Headers    map[string][]string `json:"headers"`
	Body       []byte              `json:"body"`
}

// Idempotency returns middleware that replays the stored response for a
// repeated POST/PUT/DELETE carrying the same Idempotency-Key from the same
// owner. Server errors are not stored. Reusing a key with a different
// request body is answered with 422.
func Idempotency(store cache.Cache, ttl time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet || r.Method == http.MethodHead || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			key := r.Header.Get(headerIdempotencyKey)
			if key == "" || len(key) > maxIdempotencyKeyLen {
				next.ServeHTTP(w, r)
				return
			}
			cacheKey := ttlcache.GenerateKey("idempotency", map[string]any{
				"owner":  domain.OwnerFromContext(r.Context()),
				"method": r.Method,
				"path":   r.URL.Path,
				"key":    key,
			})

			reqBody, err := io.ReadAll(io.LimitReader(r.Body, maxIdempotencyBody+1))
			if err != nil {
				writeError(w, http.StatusBadRequest, "validation_error", "unreadable request body")
				return
			}
			r.Body = io.NopCloser(io.MultiReader(bytes.NewReader(reqBody), r.Body))
			sum := sha256.Sum256(reqBody)
			digest := hex.EncodeToString(sum[:])

			data, ok, err := store.Get(r.Context(), cacheKey)
			if err != nil {
				slog.Warn("idempotency: cache get failed", "key", key, "error", err)
			}
			if ok {
				var cached idempotencyEntry
				if err := json.Unmarshal(data, &cached); err == nil {
					if cached.BodyDigest != digest {
						writeError(w, http.StatusUnprocessableEntity, "idempotency_conflict", "Idempotency-Key was already used with a different request body")
						return
					}
					for k, vals := range cached.Headers {
						for _, v := range vals {
							w.Header().Add(k, v)
						}
					}
					w.Header().Set("Idempotent-Replayed", "true")
					w.WriteHeader(cached.StatusCode)
					_, _ = w.Write(cached.Body)
					return
				}
				slog.Warn("idempotency: corrupt cache entry", "key", key)
			}

			rec := &responseRecorder{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
				body:           &bytes.Buffer{},
			}
			next.ServeHTTP(rec, r)

			if rec.statusCode >= http.StatusInternalServerError || rec.body.Len() > maxIdempotencyBody {
				return
			}
			entry, err := json.Marshal(idempotencyEntry{
				BodyDigest: digest,
				StatusCode: rec.statusCode,
				Headers:    w.Header().Clone(),
				Body:       rec.body.Bytes(),
			})
			if err != nil {
				return
			}
			if err := store.Set(r.Context(), cacheKey, entry, ttl); err != nil {
				slog.Warn("idempotency: failed to store response", "key", key, "error", err)
			}
		})
	}
}

// responseRecorder wraps http.ResponseWriter to capture the response.
type responseRecorder struct {
	http.ResponseWriter
	statusCode int
	body       *bytes.Buffer
}

func (r *responseRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}
