package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	cfotel "github.com/Strob0t/PlanForge/internal/adapter/otel"
	ttlcache "github.com/Strob0t/PlanForge/internal/cache"
	"github.com/Strob0t/PlanForge/internal/domain"
	"github.com/Strob0t/PlanForge/internal/domain/generation"
	"github.com/Strob0t/PlanForge/internal/domain/plan"
	"github.com/Strob0t/PlanForge/internal/port/cache"
	"github.com/Strob0t/PlanForge/internal/port/database"
)

// PlanService handles persisted plans for an owner.
type PlanService struct {
	store    database.PlanStore
	cache    cache.Cache
	cacheTTL time.Duration
	events   *Events
	metrics  *cfotel.Metrics
}

// NewPlanService creates a new PlanService.
func NewPlanService(store database.PlanStore) *PlanService {
	return &PlanService{store: store}
}

// SetCache enables the read-through cache for Get.
func (s *PlanService) SetCache(c cache.Cache, ttl time.Duration) {
	s.cache = c
	s.cacheTTL = ttl
}

// SetEvents sets the lifecycle event publisher.
func (s *PlanService) SetEvents(e *Events) {
	s.events = e
}

// SetMetrics sets the metric instruments.
func (s *PlanService) SetMetrics(m *cfotel.Metrics) {
	s.metrics = m
}

func planCacheKey(id, ownerID string) string {
	return ttlcache.GenerateKey("plans/get", map[string]any{"id": id, "owner": ownerID})
}

// Save validates req and persists the plan for ownerID.
func (s *PlanService) Save(ctx context.Context, ownerID string, req *plan.SaveRequest) (*plan.Plan, error) {
	req.Title = generation.SanitizeInput(req.Title)
	req.Summary = generation.SanitizeInput(req.Summary)
	if err := req.Validate(); err != nil {
		return nil, err
	}

	p := req.Plan()
	if _, err := s.store.SavePlan(ctx, ownerID, p); err != nil {
		return nil, fmt.Errorf("save plan: %w", err)
	}

	slog.Info("plan saved", "plan_id", p.ID, "owner_id", ownerID)
	s.metrics.PlanMutated(ctx, "save")
	s.events.Saved(ctx, ownerID, p)
	return p, nil
}

// List returns a page of the owner's plans, newest first.
func (s *PlanService) List(ctx context.Context, ownerID string, opts plan.ListOptions) ([]plan.Plan, error) {
	return s.store.ListPlans(ctx, ownerID, opts.Normalized())
}

// Get returns one plan, reading through the cache when configured.
func (s *PlanService) Get(ctx context.Context, id, ownerID string) (*plan.Plan, error) {
	key := planCacheKey(id, ownerID)
	if s.cache != nil {
		data, ok, err := s.cache.Get(ctx, key)
		if err != nil {
			slog.Warn("plan cache get failed", "plan_id", id, "error", err)
		}
		s.metrics.CacheLookup(ctx, ok)
		if ok {
			var p plan.Plan
			if err := json.Unmarshal(data, &p); err == nil {
				return &p, nil
			}
			_ = s.cache.Delete(ctx, key)
		}
	}

	p, err := s.store.GetPlan(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(p); err == nil {
			if err := s.cache.Set(ctx, key, data, s.cacheTTL); err != nil {
				slog.Warn("plan cache set failed", "plan_id", id, "error", err)
			}
		}
	}
	return p, nil
}

// Update applies the set sections of req to the stored plan. A concurrent
// write between the read and the write yields domain.ErrConflict.
func (s *PlanService) Update(ctx context.Context, ownerID, id string, req plan.UpdateRequest) (*plan.Plan, error) {
	if req.Title != nil {
		t := generation.SanitizeInput(*req.Title)
		req.Title = &t
	}
	if req.Summary != nil {
		sum := generation.SanitizeInput(*req.Summary)
		req.Summary = &sum
	}
	if req.Empty() {
		return nil, fmt.Errorf("%w: no fields to update", domain.ErrValidation)
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	p, err := s.store.GetPlan(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}
	req.Apply(p)

	if err := s.store.UpdatePlan(ctx, ownerID, p); err != nil {
		return nil, err
	}
	s.invalidate(ctx, id, ownerID)

	slog.Info("plan updated", "plan_id", id, "owner_id", ownerID, "version", p.Version)
	s.metrics.PlanMutated(ctx, "update")
	s.events.Updated(ctx, ownerID, p)
	return p, nil
}

// Delete removes the plan.
func (s *PlanService) Delete(ctx context.Context, id, ownerID string) error {
	if err := s.store.DeletePlan(ctx, id, ownerID); err != nil {
		return err
	}
	s.invalidate(ctx, id, ownerID)

	slog.Info("plan deleted", "plan_id", id, "owner_id", ownerID)
	s.metrics.PlanMutated(ctx, "delete")
	s.events.Deleted(ctx, ownerID, id)
	return nil
}

func (s *PlanService) invalidate(ctx context.Context, id, ownerID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, planCacheKey(id, ownerID)); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("plan cache invalidation failed", "plan_id", id, "error", err)
	}
}
