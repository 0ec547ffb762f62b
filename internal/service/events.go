// Package service contains application services.
package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/Strob0t/PlanForge/internal/adapter/ws"
	"github.com/Strob0t/PlanForge/internal/domain"
	"github.com/Strob0t/PlanForge/internal/domain/plan"
	"github.com/Strob0t/PlanForge/internal/port/broadcast"
	"github.com/Strob0t/PlanForge/internal/port/messagequeue"
)

// Events fans plan lifecycle events out to the message queue and to
// websocket clients. Either sink may be nil. Delivery failures are logged
// and never fail the calling operation.
type Events struct {
	queue messagequeue.Publisher
	hub   broadcast.Broadcaster
	now   func() time.Time
}

// NewEvents creates an event publisher.
func NewEvents(queue messagequeue.Publisher, hub broadcast.Broadcaster) *Events {
	return &Events{queue: queue, hub: hub, now: time.Now}
}

func (e *Events) planEvent(ctx context.Context, subject, wsType, ownerID string, p *plan.Plan) {
	if e == nil {
		return
	}
	if ownerID != "" {
		ctx = domain.WithOwner(ctx, ownerID)
	}

	if e.hub != nil {
		e.hub.BroadcastEvent(ctx, wsType, ws.PlanEvent{PlanID: p.ID, Title: p.Title, Version: p.Version})
	}

	if e.queue == nil {
		return
	}
	payload := messagequeue.PlanEventPayload{
		PlanID:     p.ID,
		OwnerID:    ownerID,
		Title:      p.Title,
		Version:    p.Version,
		OccurredAt: e.now().UTC(),
	}
	if p.TemplateID != nil {
		payload.TemplateID = *p.TemplateID
	}
	e.publish(ctx, subject, payload)
}

func (e *Events) exported(ctx context.Context, ownerID, planID, integrationID, exportType string, delivered bool) {
	if e == nil {
		return
	}
	ctx = domain.WithOwner(ctx, ownerID)
	if e.hub != nil {
		e.hub.BroadcastEvent(ctx, ws.EventPlanExported, ws.PlanEvent{PlanID: planID, IntegrationID: integrationID})
	}
	if e.queue == nil {
		return
	}
	e.publish(ctx, messagequeue.SubjectPlanExported+"."+integrationID, messagequeue.PlanExportedPayload{
		PlanID:        planID,
		OwnerID:       ownerID,
		IntegrationID: integrationID,
		ExportType:    exportType,
		Delivered:     delivered,
		OccurredAt:    e.now().UTC(),
	})
}

func (e *Events) publish(ctx context.Context, subject string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("marshal event", "subject", subject, "error", err)
		return
	}
	if err := e.queue.Publish(ctx, subject, data); err != nil {
		slog.Warn("publish event failed", "subject", subject, "error", err)
	}
}

// Generated announces a freshly generated, unsaved plan.
func (e *Events) Generated(ctx context.Context, p *plan.Plan) {
	e.planEvent(ctx, messagequeue.SubjectPlanGenerated, ws.EventPlanGenerated, domain.OwnerFromContext(ctx), p)
}

// Saved announces a persisted plan.
func (e *Events) Saved(ctx context.Context, ownerID string, p *plan.Plan) {
	e.planEvent(ctx, messagequeue.SubjectPlanSaved, ws.EventPlanSaved, ownerID, p)
}

// Updated announces an edited plan.
func (e *Events) Updated(ctx context.Context, ownerID string, p *plan.Plan) {
	e.planEvent(ctx, messagequeue.SubjectPlanUpdated, ws.EventPlanUpdated, ownerID, p)
}

// Deleted announces a removed plan.
func (e *Events) Deleted(ctx context.Context, ownerID, planID string) {
	e.planEvent(ctx, messagequeue.SubjectPlanDeleted, ws.EventPlanDeleted, ownerID, &plan.Plan{ID: planID})
}
