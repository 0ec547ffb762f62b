// Package ws implements the WebSocket adapter for real-time plan events.
package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/Strob0t/PlanForge/internal/domain"
)

const writeTimeout = 5 * time.Second

// Message is the envelope for all WebSocket messages.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// conn wraps a single WebSocket connection and the owner it belongs to.
type conn struct {
	ws      *websocket.Conn
	cancel  context.CancelFunc
	ownerID string
}

// Hub tracks active connections and fans events out to them.
type Hub struct {
	mu             sync.RWMutex
	conns          map[*conn]struct{}
	allowedOrigins []string
}

// NewHub creates a hub. allowedOrigins are host patterns accepted during the
// handshake in addition to same-origin requests.
func NewHub(allowedOrigins []string) *Hub {
	return &Hub{
		conns:          make(map[*conn]struct{}),
		allowedOrigins: allowedOrigins,
	}
}

// HandleWS upgrades the request to a WebSocket. The connection is scoped to
// the owner found in the request context.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.allowedOrigins,
	})
	if err != nil {
		slog.Error("websocket accept failed", "error", err)
		return
	}

	// The read loop outlives the handler, so it must not inherit r.Context().
	ctx, cancel := context.WithCancel(context.WithoutCancel(r.Context()))
	c := &conn{ws: ws, cancel: cancel, ownerID: domain.OwnerFromContext(r.Context())}

	h.mu.Lock()
	h.conns[c] = struct{}{}
	h.mu.Unlock()

	slog.Info("websocket connected", "remote", r.RemoteAddr, "owner_id", c.ownerID)

	go func() {
		defer func() {
			h.remove(c)
			_ = ws.Close(websocket.StatusNormalClosure, "")
		}()
		for {
			if _, _, err := ws.Read(ctx); err != nil {
				return
			}
		}
	}()
}

// Broadcast sends msg to every connection of ownerID, or to all connections
// when ownerID is empty.
func (h *Hub) Broadcast(ctx context.Context, ownerID string, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("websocket marshal failed", "error", err)
		return
	}

	h.mu.RLock()
	targets := make([]*conn, 0, len(h.conns))
	for c := range h.conns {
		if ownerID == "" || c.ownerID == ownerID {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range targets {
		wctx, cancel := context.WithTimeout(ctx, writeTimeout)
		err := c.ws.Write(wctx, websocket.MessageText, data)
		cancel()
		if err != nil {
			slog.Debug("websocket write failed", "error", err)
			h.remove(c)
		}
	}
}

// ConnectionCount returns the number of active connections.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

func (h *Hub) remove(c *conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.conns[c]; ok {
		c.cancel()
		delete(h.conns, c)
		slog.Info("websocket disconnected", "owner_id", c.ownerID)
	}
}
