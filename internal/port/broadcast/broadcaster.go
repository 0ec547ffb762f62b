// Package broadcast defines the port for pushing real-time events to connected clients.
package broadcast

import "context"

// Broadcaster sends real-time events to connected clients.
type Broadcaster interface {
	// BroadcastEvent sends a typed event to the clients of the owner carried
	// by ctx, or to every client when ctx has no owner.
	BroadcastEvent(ctx context.Context, eventType string, payload any)
}
