// Package logger configures structured logging for PlanForge.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/Strob0t/PlanForge/internal/config"
)

const defaultAsyncBuffer = 4096

type options struct {
	out    io.Writer
	redact func(string) string
}

// Option customizes New.
type Option func(*options)

// WithOutput sends records to w instead of stdout.
func WithOutput(w io.Writer) Option {
	return func(o *options) { o.out = w }
}

// WithRedactor rewrites every string attribute, the message included,
// before it is written.
func WithRedactor(fn func(string) string) Option {
	return func(o *options) { o.redact = fn }
}

// New creates a *slog.Logger from the given Logging config. Output is JSON
// (or text) with a "service" attribute on every record and the request ID
// taken from the context. The returned Closer flushes the async buffer.
func New(cfg config.Logging, opts ...Option) (*slog.Logger, Closer) {
	o := options{out: os.Stdout}
	for _, opt := range opts {
		opt(&o)
	}

	hopts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}
	if o.redact != nil {
		hopts.ReplaceAttr = redactAttr(o.redact)
	}

	var h slog.Handler
	if strings.EqualFold(cfg.Format, "text") {
		h = slog.NewTextHandler(o.out, hopts)
	} else {
		h = slog.NewJSONHandler(o.out, hopts)
	}

	var closer Closer = nopCloser{}
	if cfg.Async {
		size := cfg.AsyncBuffer
		if size <= 0 {
			size = defaultAsyncBuffer
		}
		ah := NewAsyncHandler(h, size)
		h, closer = ah, ah
	}

	// The context is read before records enter the async queue.
	return slog.New(&contextHandler{Handler: h}).With("service", cfg.Service), closer
}

func redactAttr(fn func(string) string) func([]string, slog.Attr) slog.Attr {
	return func(_ []string, a slog.Attr) slog.Attr {
		switch a.Value.Kind() {
		case slog.KindString:
			a.Value = slog.StringValue(fn(a.Value.String()))
		case slog.KindAny:
			if err, ok := a.Value.Any().(error); ok {
				a.Value = slog.StringValue(fn(err.Error()))
			}
		}
		return a
	}
}

// contextHandler adds request_id from the context unless the call site
// already logged one.
type contextHandler struct {
	slog.Handler
}

func (h *contextHandler) Handle(ctx context.Context, rec slog.Record) error { //nolint:gocritic // slog.Handler interface requires value receiver
	if id := RequestID(ctx); id != "" && !hasAttr(rec, "request_id") {
		rec.AddAttrs(slog.String("request_id", id))
	}
	return h.Handler.Handle(ctx, rec)
}

func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &contextHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h *contextHandler) WithGroup(name string) slog.Handler {
	return &contextHandler{Handler: h.Handler.WithGroup(name)}
}

func hasAttr(rec slog.Record, key string) bool {
	found := false
	rec.Attrs(func(a slog.Attr) bool {
		if a.Key == key {
			found = true
			return false
		}
		return true
	})
	return found
}

// parseLevel converts a string log level to slog.Level.
func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
