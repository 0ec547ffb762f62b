package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/singleflight"

	ttlcache "github.com/Strob0t/PlanForge/internal/cache"
	"github.com/Strob0t/PlanForge/internal/port/cache"
)

const (
	maxFetchBytes       = 4 << 20
	defaultFetchTimeout = 30 * time.Second
)

// FetchOptions describes an outbound request.
type FetchOptions struct {
	Method  string
	Headers map[string]string
	Body    []byte
}

// FetchError reports a non-2xx answer from a fetched URL.
type FetchError struct {
	URL        string
	StatusCode int
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: HTTP %d", e.URL, e.StatusCode)
}

// Fetcher performs cached JSON requests. Identical concurrent requests
// share a single round trip. Only successful responses are cached.
type Fetcher struct {
	client *http.Client
	cache  cache.Cache
	group  singleflight.Group
}

// NewFetcher creates a Fetcher. c may be nil to disable caching.
func NewFetcher(client *http.Client, c cache.Cache) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: defaultFetchTimeout}
	}
	return &Fetcher{client: client, cache: c}
}

// fetchKey keys a request by method, URL, headers and body. Header values
// are hashed so credentials never end up in cache keys.
func fetchKey(url string, opts FetchOptions) string {
	headers := make(map[string]any, len(opts.Headers))
	for k, v := range opts.Headers {
		sum := sha256.Sum256([]byte(v))
		headers[k] = hex.EncodeToString(sum[:8])
	}
	return ttlcache.GenerateKey(url, map[string]any{
		"method":  opts.Method,
		"headers": headers,
		"body":    string(opts.Body),
	})
}

// FetchJSON requests url and decodes the JSON body into out. A ttl of
// zero uses the cache default.
func (f *Fetcher) FetchJSON(ctx context.Context, url string, opts FetchOptions, ttl time.Duration, out any) error {
	if opts.Method == "" {
		opts.Method = http.MethodGet
	}
	key := fetchKey(url, opts)

	if f.cache != nil {
		if data, ok, err := f.cache.Get(ctx, key); err == nil && ok {
			return json.Unmarshal(data, out)
		}
	}

	// The shared round trip outlives any single caller's cancellation.
	flightCtx := context.WithoutCancel(ctx)
	ch := f.group.DoChan(key, func() (any, error) {
		fctx := flightCtx
		if f.client.Timeout <= 0 {
			var cancel context.CancelFunc
			fctx, cancel = context.WithTimeout(fctx, defaultFetchTimeout)
			defer cancel()
		}
		data, err := f.do(fctx, url, opts)
		if err != nil {
			return nil, err
		}
		if f.cache != nil {
			if err := f.cache.Set(fctx, key, data, ttl); err != nil {
				slog.Warn("fetch cache set failed", "url", url, "error", err)
			}
		}
		return data, nil
	})

	select {
	case <-ctx.Done():
		return fmt.Errorf("fetch %s: %w", url, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return res.Err
		}
		if res.Shared {
			slog.Debug("fetch shared with concurrent caller", "url", url)
		}
		return json.Unmarshal(res.Val.([]byte), out)
	}
}

func (f *Fetcher) do(ctx context.Context, url string, opts FetchOptions) ([]byte, error) {
	var body io.Reader
	if opts.Body != nil {
		body = bytes.NewReader(opts.Body)
	}
	req, err := http.NewRequestWithContext(ctx, opts.Method, url, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range opts.Headers {
		req.Header.Set(k, v)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{URL: url, StatusCode: resp.StatusCode}
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("fetch %s: response is not JSON", url)
	}
	return data, nil
}
