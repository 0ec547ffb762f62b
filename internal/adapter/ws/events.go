package ws

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/Strob0t/PlanForge/internal/domain"
	"github.com/Strob0t/PlanForge/internal/port/broadcast"
)

// Event type constants for WebSocket messages.
const (
	EventPlanGenerated = "plan.generated"
	EventPlanSaved     = "plan.saved"
	EventPlanUpdated   = "plan.updated"
	EventPlanDeleted   = "plan.deleted"
	EventPlanExported  = "plan.exported"
)

var _ broadcast.Broadcaster = (*Hub)(nil)

// PlanEvent is the payload of every plan.* message.
type PlanEvent struct {
	PlanID        string `json:"planId"`
	Title         string `json:"title,omitempty"`
	Version       int    `json:"version,omitempty"`
	IntegrationID string `json:"integrationId,omitempty"`
}

// BroadcastEvent marshals payload and sends it to the connections of the
// owner carried by ctx.
func (h *Hub) BroadcastEvent(ctx context.Context, eventType string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("marshal ws event payload", "type", eventType, "error", err)
		return
	}

	h.Broadcast(ctx, domain.OwnerFromContext(ctx), Message{
		Type:    eventType,
		Payload: json.RawMessage(data),
	})
}
