package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	cfotel "github.com/Strob0t/PlanForge/internal/adapter/otel"
	"github.com/Strob0t/PlanForge/internal/domain"
	"github.com/Strob0t/PlanForge/internal/domain/integration"
	"github.com/Strob0t/PlanForge/internal/domain/plan"
	"github.com/Strob0t/PlanForge/internal/logger"
	"github.com/Strob0t/PlanForge/internal/port/notifier"
)

// ErrDeliveryFailed wraps errors returned by an integration's remote endpoint.
var ErrDeliveryFailed = errors.New("integration delivery failed")

// ExportResult reports what was sent to an integration.
type ExportResult struct {
	IntegrationID string                 `json:"integrationId"`
	ExportType    integration.ExportType `json:"exportType"`
	Delivered     bool                   `json:"delivered"`
	DryRun        bool                   `json:"dryRun"`
	Payload       *integration.Payload   `json:"payload"`
}

// IntegrationService shares saved plans with external tools. Integrations
// backed by a registered notifier are delivered; the rest return the
// prepared payload as a dry run.
type IntegrationService struct {
	plans    *PlanService
	defaults map[string]map[string]string
	events   *Events

	hasNotifier func(name string) bool
	newNotifier func(name string, config map[string]string) (notifier.Notifier, error)
}

// NewIntegrationService creates the service. defaults holds per-integration
// config values used when the caller leaves a key empty.
func NewIntegrationService(plans *PlanService, defaults map[string]map[string]string) *IntegrationService {
	return &IntegrationService{
		plans:       plans,
		defaults:    defaults,
		hasNotifier: notifier.Has,
		newNotifier: notifier.New,
	}
}

// SetEvents announces completed exports.
func (s *IntegrationService) SetEvents(e *Events) {
	s.events = e
}

// List returns the integration catalog.
func (s *IntegrationService) List() []integration.Integration {
	return integration.All()
}

// Export builds the export payload for a saved plan and delivers it.
func (s *IntegrationService) Export(ctx context.Context, ownerID, planID, integrationID, exportType string, cfg map[string]string) (*ExportResult, error) {
	it, ok := integration.ByID(integrationID)
	if !ok {
		return nil, fmt.Errorf("integration %q: %w", integrationID, domain.ErrNotFound)
	}
	et := integration.ExportType(exportType)
	if !it.Supports(et) {
		return nil, fmt.Errorf("%w: %s does not support export type %q", domain.ErrValidation, it.Name, exportType)
	}

	merged := s.mergeConfig(integrationID, cfg)
	if err := integration.ValidateConfig(integrationID, merged); err != nil {
		return nil, err
	}

	p, err := s.plans.Get(ctx, planID, ownerID)
	if err != nil {
		return nil, err
	}

	ctx, span := cfotel.StartIntegrationSpan(ctx, planID, integrationID, exportType)
	res, err := s.deliver(ctx, it, et, merged, p)
	cfotel.EndSpan(span, err)
	if err != nil {
		slog.Warn("integration export failed",
			"integration", integrationID,
			"plan_id", planID,
			"config", integration.Redact(integrationID, merged),
			"request_id", logger.RequestID(ctx),
			"error", err,
		)
		return nil, err
	}

	slog.Info("plan exported",
		"integration", integrationID,
		"export_type", exportType,
		"plan_id", planID,
		"delivered", res.Delivered,
		"request_id", logger.RequestID(ctx),
	)
	s.events.exported(ctx, ownerID, planID, integrationID, exportType, res.Delivered)
	return res, nil
}

func (s *IntegrationService) deliver(ctx context.Context, it *integration.Integration, et integration.ExportType, cfg map[string]string, p *plan.Plan) (*ExportResult, error) {
	payload, err := integration.BuildPayload(p, et)
	if err != nil {
		return nil, fmt.Errorf("build payload: %w", err)
	}
	res := &ExportResult{IntegrationID: it.ID, ExportType: et, Payload: payload}

	if !s.hasNotifier(it.ID) {
		res.DryRun = true
		return res, nil
	}

	n, err := s.newNotifier(it.ID, cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDeliveryFailed, it.ID, err)
	}
	if err := n.Send(ctx, notification(payload)); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDeliveryFailed, it.ID, err)
	}
	res.Delivered = true
	return res, nil
}

// notification renders a payload for chat delivery, one field per item.
func notification(payload *integration.Payload) notifier.Notification {
	nt := notifier.Notification{
		Title:   payload.Title,
		Message: payload.Summary,
		Level:   "info",
		Source:  "plan.exported",
	}
	for _, item := range payload.Items {
		value := item.Group
		if value == "" {
			value = "unscheduled"
		}
		nt.Fields = append(nt.Fields, notifier.Field{Name: item.Title, Value: value})
	}
	return nt
}

// mergeConfig overlays cfg on the configured defaults. Blank values in cfg
// do not clear a default.
func (s *IntegrationService) mergeConfig(id string, cfg map[string]string) map[string]string {
	out := make(map[string]string, len(cfg))
	for k, v := range s.defaults[id] {
		if v != "" {
			out[k] = v
		}
	}
	for k, v := range cfg {
		if v != "" || out[k] == "" {
			out[k] = v
		}
	}
	return out
}
