package messagequeue

import "time"

// PlanEventPayload is the schema for plans.generated, plans.saved,
// plans.updated and plans.deleted messages.
type PlanEventPayload struct {
	PlanID     string    `json:"plan_id"`
	OwnerID    string    `json:"owner_id,omitempty"`
	Title      string    `json:"title,omitempty"`
	TemplateID string    `json:"template_id,omitempty"`
	Version    int       `json:"version,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// PlanExportedPayload is the schema for plans.exported.{integration} messages.
type PlanExportedPayload struct {
	PlanID        string    `json:"plan_id"`
	OwnerID       string    `json:"owner_id,omitempty"`
	IntegrationID string    `json:"integration_id"`
	ExportType    string    `json:"export_type"`
	Delivered     bool      `json:"delivered"`
	OccurredAt    time.Time `json:"occurred_at"`
}
