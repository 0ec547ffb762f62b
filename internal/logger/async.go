package logger

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Closer flushes buffered log output.
type Closer interface {
	Close()
}

type nopCloser struct{}

func (nopCloser) Close() {}

// pending is one record waiting for the writer, together with the handler
// (and therefore the attrs and groups) it was logged through.
type pending struct {
	to  slog.Handler
	rec slog.Record
}

// asyncQueue is shared by an AsyncHandler and every handler derived from it.
type asyncQueue struct {
	mu      sync.RWMutex
	closed  bool
	ch      chan pending
	done    chan struct{}
	dropped atomic.Int64
}

// AsyncHandler hands records to a single background writer so request paths
// never block on the log sink. Records that do not fit in the buffer are
// dropped and counted.
type AsyncHandler struct {
	inner slog.Handler
	q     *asyncQueue
}

// NewAsyncHandler starts the writer. buffer is the queue capacity.
func NewAsyncHandler(inner slog.Handler, buffer int) *AsyncHandler {
	q := &asyncQueue{
		ch:   make(chan pending, buffer),
		done: make(chan struct{}),
	}
	go func() {
		defer close(q.done)
		for p := range q.ch {
			_ = p.to.Handle(context.Background(), p.rec)
		}
	}()
	return &AsyncHandler{inner: inner, q: q}
}

func (h *AsyncHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle enqueues a clone of rec. After Close records are written inline.
func (h *AsyncHandler) Handle(ctx context.Context, rec slog.Record) error { //nolint:gocritic // slog.Handler interface requires value receiver
	h.q.mu.RLock()
	defer h.q.mu.RUnlock()
	if h.q.closed {
		return h.inner.Handle(ctx, rec)
	}
	select {
	case h.q.ch <- pending{to: h.inner, rec: rec.Clone()}:
	default:
		h.q.dropped.Add(1)
	}
	return nil
}

func (h *AsyncHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &AsyncHandler{inner: h.inner.WithAttrs(attrs), q: h.q}
}

func (h *AsyncHandler) WithGroup(name string) slog.Handler {
	return &AsyncHandler{inner: h.inner.WithGroup(name), q: h.q}
}

// DroppedCount returns how many records did not fit in the buffer.
func (h *AsyncHandler) DroppedCount() int64 {
	return h.q.dropped.Load()
}

// Close drains the queue and waits for the writer. When records were
// dropped a warning with the count is written last. Close is idempotent.
func (h *AsyncHandler) Close() {
	h.q.mu.Lock()
	if h.q.closed {
		h.q.mu.Unlock()
		return
	}
	h.q.closed = true
	close(h.q.ch)
	h.q.mu.Unlock()

	<-h.q.done
	if n := h.q.dropped.Load(); n > 0 {
		rec := slog.NewRecord(time.Now(), slog.LevelWarn, "log records dropped", 0)
		rec.AddAttrs(slog.Int64("dropped", n))
		_ = h.inner.Handle(context.Background(), rec)
	}
}
