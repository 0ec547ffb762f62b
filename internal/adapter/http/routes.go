package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RouteOptions carries the per-route middleware chosen at startup.
type RouteOptions struct {
	// GenerateLimit guards the generation endpoint, normally a rate limiter.
	GenerateLimit func(http.Handler) http.Handler
	// Idempotency wraps mutating plan and integration endpoints.
	Idempotency func(http.Handler) http.Handler
}

func passthrough(next http.Handler) http.Handler { return next }

// MountRoutes registers all API routes on the given chi router.
func MountRoutes(r chi.Router, h *Handlers, opts RouteOptions) {
	if opts.GenerateLimit == nil {
		opts.GenerateLimit = passthrough
	}
	if opts.Idempotency == nil {
		opts.Idempotency = passthrough
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"version": h.Version})
		})

		// Generation
		r.With(opts.GenerateLimit).Post("/generate-plan", h.GeneratePlan)
		r.Get("/generator/models", h.ListModels)

		// Templates
		r.Get("/templates", h.ListTemplates)
		r.Get("/templates/categories", h.ListTemplateCategories)
		r.Get("/templates/{id}", h.GetTemplate)

		// Plans
		r.Get("/plans", h.ListPlans)
		r.With(opts.Idempotency).Post("/plans", h.SavePlan)
		r.Get("/plans/{id}", h.GetPlan)
		r.Put("/plans/{id}", h.UpdatePlan)
		r.Delete("/plans/{id}", h.DeletePlan)
		r.Get("/plans/{id}/export", h.ExportPlan)

		// Integrations
		r.Get("/integrations", h.ListIntegrations)
		r.With(opts.Idempotency).Post("/plans/{id}/integrations/{integrationId}", h.ExportToIntegration)
	})
}
