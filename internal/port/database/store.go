// Package database defines the database store port (interface).
package database

import (
	"context"

	"github.com/Strob0t/PlanForge/internal/domain/plan"
)

// PlanStore is the port interface for plan persistence. Every method is
// scoped to the owning caller; another owner's plan is reported as
// domain.ErrNotFound.
type PlanStore interface {
	SavePlan(ctx context.Context, ownerID string, p *plan.Plan) (string, error)
	ListPlans(ctx context.Context, ownerID string, opts plan.ListOptions) ([]plan.Plan, error)
	GetPlan(ctx context.Context, id, ownerID string) (*plan.Plan, error)
	// UpdatePlan writes p if p.Version matches the stored version and
	// bumps it. A mismatch returns domain.ErrConflict.
	UpdatePlan(ctx context.Context, ownerID string, p *plan.Plan) error
	DeletePlan(ctx context.Context, id, ownerID string) error
}

// Pinger reports store reachability for health checks.
type Pinger interface {
	Ping(ctx context.Context) error
}
