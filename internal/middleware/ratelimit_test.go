package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Strob0t/PlanForge/internal/domain"
	"github.com/Strob0t/PlanForge/internal/ratelimit"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestRateLimitHeadersAndRejection(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	limiter := ratelimit.NewWindow(ratelimit.Options{Interval: time.Minute, Now: func() time.Time { return now }})
	mw := RateLimit(limiter, 2, OwnerOrIP)
	handler := mw(okHandler)

	do := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/generate-plan", http.NoBody)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	first := do()
	if first.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", first.Code)
	}
	if first.Header().Get("X-RateLimit-Limit") != "2" || first.Header().Get("X-RateLimit-Remaining") != "1" {
		t.Errorf("unexpected headers %v", first.Header())
	}
	if do().Code != http.StatusOK {
		t.Fatal("second request should pass")
	}

	rejected := do()
	if rejected.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rejected.Code)
	}
	if rejected.Header().Get("X-RateLimit-Remaining") != "0" || rejected.Header().Get("Retry-After") == "" {
		t.Errorf("unexpected rejection headers %v", rejected.Header())
	}
	var body map[string]any
	if err := json.Unmarshal(rejected.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["success"] != false || body["kind"] != "too_many_requests" || body["error"] == "" {
		t.Errorf("unexpected body %v", body)
	}
}

type failingLimiter struct{}

func (failingLimiter) Check(context.Context, int, string) (ratelimit.Result, error) {
	return ratelimit.Result{}, errors.New("redis down")
}

func TestRateLimitFailsOpen(t *testing.T) {
	handler := RateLimit(failingLimiter{}, 1, OwnerOrIP)(okHandler)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", http.NoBody))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected request to pass when limiter fails, got %d", rec.Code)
	}
}

func TestOwnerOrIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	req.RemoteAddr = "192.0.2.7:5555"
	if got := OwnerOrIP(req); got != "ip:192.0.2.7" {
		t.Errorf("expected ip key, got %q", got)
	}

	local := req.WithContext(domain.WithOwner(req.Context(), domain.LocalOwnerID))
	if got := OwnerOrIP(local); got != "ip:192.0.2.7" {
		t.Errorf("local owner should key by ip, got %q", got)
	}

	owned := req.WithContext(domain.WithOwner(req.Context(), "alice"))
	if got := OwnerOrIP(owned); got != "owner:alice" {
		t.Errorf("expected owner key, got %q", got)
	}
}
