package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/Strob0t/PlanForge/internal/domain/export"
	"github.com/Strob0t/PlanForge/internal/domain/generation"
	"github.com/Strob0t/PlanForge/internal/domain/integration"
	"github.com/Strob0t/PlanForge/internal/domain/plan"
	"github.com/Strob0t/PlanForge/internal/domain/template"
	"github.com/Strob0t/PlanForge/internal/port/generator"
	"github.com/Strob0t/PlanForge/internal/service"
)

const (
	maxRequestBodySize  = 1 << 20 // 1 MB
	maxGenerateBodySize = 64 << 10
	maxQueryLength      = 200
)

// HealthCheck reports whether one dependency is usable.
type HealthCheck func(ctx context.Context) error

// Handlers holds the HTTP handler dependencies.
type Handlers struct {
	Generation   *service.GenerationService
	Plans        *service.PlanService
	Integrations *service.IntegrationService
	Models       *service.ModelService
	Templates    *template.Catalog
	HealthChecks map[string]HealthCheck
	Version      string
}

// ---------------------------------------------------------------------------
// Health
// ---------------------------------------------------------------------------

type healthResponse struct {
	Status              string            `json:"status"`
	Version             string            `json:"version,omitempty"`
	GeneratorConfigured bool              `json:"generatorConfigured"`
	Checks              map[string]string `json:"checks"`
}

// Health reports dependency status. Any failing check yields 503.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", Version: h.Version, Checks: map[string]string{}}
	if h.Generation != nil {
		resp.GeneratorConfigured = h.Generation.Configured()
	}
	for name, check := range h.HealthChecks {
		if err := check(r.Context()); err != nil {
			resp.Status = "degraded"
			resp.Checks[name] = err.Error()
			continue
		}
		resp.Checks[name] = "ok"
	}
	status := http.StatusOK
	if resp.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

// ---------------------------------------------------------------------------
// Generation
// ---------------------------------------------------------------------------

// GeneratePlan handles POST /api/v1/generate-plan.
func (h *Handlers) GeneratePlan(w http.ResponseWriter, r *http.Request) {
	if err := h.Generation.CheckConfigured(); err != nil {
		writeGenerationError(w, r, err)
		return
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxGenerateBodySize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, generationErrorResponse{
				Error: "Request body too large",
				Kind:  generation.KindValidation,
			})
			return
		}
		writeGenerationError(w, r, &generation.Error{
			Kind:    generation.KindValidation,
			Reason:  generation.ReasonInvalidBody,
			Message: "Request body must be a JSON object",
			Err:     err,
		})
		return
	}

	p, err := h.Generation.GeneratePlanJSON(r.Context(), body)
	if err != nil {
		writeGenerationError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "plan": p})
}

// ListModels handles GET /api/v1/generator/models.
func (h *Handlers) ListModels(w http.ResponseWriter, r *http.Request) {
	models, err := h.Models.List(r.Context())
	if err != nil {
		if errors.Is(err, generator.ErrNotConfigured) {
			writeError(w, http.StatusServiceUnavailable, "generator is not configured")
			return
		}
		var fe *service.FetchError
		if errors.As(err, &fe) {
			writeError(w, http.StatusBadGateway, "failed to list models")
			return
		}
		writeInternalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"models": models})
}

// ---------------------------------------------------------------------------
// Templates
// ---------------------------------------------------------------------------

// ListTemplates handles GET /api/v1/templates?category=&q=.
func (h *Handlers) ListTemplates(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	category := r.URL.Query().Get("category")
	if len(q) > maxQueryLength {
		writeError(w, http.StatusBadRequest, "query too long")
		return
	}

	var templates []template.Template
	switch {
	case q != "":
		templates = h.Templates.Search(q)
	case category != "":
		templates = h.Templates.ByCategory(category)
	default:
		templates = h.Templates.All()
	}
	if q != "" && category != "" {
		filtered := []template.Template{}
		for i := range templates {
			if templates[i].Category == category {
				filtered = append(filtered, templates[i])
			}
		}
		templates = filtered
	}
	if templates == nil {
		templates = []template.Template{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"templates": templates})
}

// ListTemplateCategories handles GET /api/v1/templates/categories.
func (h *Handlers) ListTemplateCategories(w http.ResponseWriter, r *http.Request) {
	handleList("categories", h.Templates.Categories)(w, r)
}

// GetTemplate handles GET /api/v1/templates/{id}.
func (h *Handlers) GetTemplate(w http.ResponseWriter, r *http.Request) {
	t, ok := h.Templates.ByID(urlParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "template not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"template": t})
}

// ---------------------------------------------------------------------------
// Plans
// ---------------------------------------------------------------------------

// ListPlans handles GET /api/v1/plans?limit=&offset=.
func (h *Handlers) ListPlans(w http.ResponseWriter, r *http.Request) {
	opts := plan.ListOptions{
		Limit:  queryInt(r, "limit"),
		Offset: queryInt(r, "offset"),
	}
	plans, err := h.Plans.List(r.Context(), owner(r), opts)
	if err != nil {
		writeInternalError(w, r, err)
		return
	}
	if plans == nil {
		plans = []plan.Plan{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"plans": plans})
}

// SavePlan handles POST /api/v1/plans.
func (h *Handlers) SavePlan(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[plan.SaveRequest](w, r, maxRequestBodySize)
	if !ok {
		return
	}
	p, err := h.Plans.Save(r.Context(), owner(r), &req)
	if err != nil {
		writeDomainError(w, r, err, "plan not found")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"plan": p})
}

// GetPlan handles GET /api/v1/plans/{id}.
func (h *Handlers) GetPlan(w http.ResponseWriter, r *http.Request) {
	handleOwnedGet("plan", h.Plans.Get, "plan not found")(w, r)
}

// updatePlanBody wraps the edited sections as {"plan": {...}}.
type updatePlanBody struct {
	Plan *plan.UpdateRequest `json:"plan"`
}

// UpdatePlan handles PUT /api/v1/plans/{id}.
func (h *Handlers) UpdatePlan(w http.ResponseWriter, r *http.Request) {
	body, ok := readJSON[updatePlanBody](w, r, maxRequestBodySize)
	if !ok {
		return
	}
	if body.Plan == nil {
		writeError(w, http.StatusBadRequest, "plan data is required")
		return
	}
	p, err := h.Plans.Update(r.Context(), owner(r), urlParam(r, "id"), *body.Plan)
	if err != nil {
		writeDomainError(w, r, err, "plan not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"plan": p})
}

// DeletePlan handles DELETE /api/v1/plans/{id}.
func (h *Handlers) DeletePlan(w http.ResponseWriter, r *http.Request) {
	handleOwnedDelete(h.Plans.Delete, "plan not found")(w, r)
}

// ExportPlan handles GET /api/v1/plans/{id}/export?format=&metadata=.
func (h *Handlers) ExportPlan(w http.ResponseWriter, r *http.Request) {
	format := export.Format(r.URL.Query().Get("format"))
	if format == "" {
		format = export.FormatMarkdown
	}
	includeMetadata := true
	if v := r.URL.Query().Get("metadata"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "metadata must be true or false")
			return
		}
		includeMetadata = b
	}

	doc, err := h.Plans.Export(r.Context(), urlParam(r, "id"), owner(r), format, includeMetadata)
	if err != nil {
		writeDomainError(w, r, err, "plan not found")
		return
	}
	w.Header().Set("Content-Type", doc.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+doc.Filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc.Body)
}

// ---------------------------------------------------------------------------
// Integrations
// ---------------------------------------------------------------------------

// ListIntegrations handles GET /api/v1/integrations?category=.
func (h *Handlers) ListIntegrations(w http.ResponseWriter, r *http.Request) {
	if c := r.URL.Query().Get("category"); c != "" {
		handleList("integrations", func() []integration.Integration {
			return integration.ByCategory(integration.Category(c))
		})(w, r)
		return
	}
	handleList("integrations", h.Integrations.List)(w, r)
}

type exportRequest struct {
	ExportType string            `json:"exportType"`
	Config     map[string]string `json:"config"`
}

// ExportToIntegration handles POST /api/v1/plans/{id}/integrations/{integrationId}.
func (h *Handlers) ExportToIntegration(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[exportRequest](w, r, maxRequestBodySize)
	if !ok {
		return
	}
	if req.ExportType == "" {
		writeError(w, http.StatusBadRequest, "exportType is required")
		return
	}

	res, err := h.Integrations.Export(r.Context(), owner(r), urlParam(r, "id"), urlParam(r, "integrationId"), req.ExportType, req.Config)
	if err != nil {
		if errors.Is(err, service.ErrDeliveryFailed) {
			writeError(w, http.StatusBadGateway, err.Error())
			return
		}
		writeDomainError(w, r, err, "plan or integration not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "result": res})
}

// queryInt parses an integer query parameter; invalid or missing values are 0.
func queryInt(r *http.Request, name string) int {
	n, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil {
		return 0
	}
	return n
}
