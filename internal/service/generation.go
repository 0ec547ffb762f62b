package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	cfotel "github.com/Strob0t/PlanForge/internal/adapter/otel"
	"github.com/Strob0t/PlanForge/internal/domain/generation"
	"github.com/Strob0t/PlanForge/internal/domain/plan"
	"github.com/Strob0t/PlanForge/internal/domain/template"
	"github.com/Strob0t/PlanForge/internal/logger"
	"github.com/Strob0t/PlanForge/internal/port/generator"
	"github.com/Strob0t/PlanForge/internal/resilience"
)

// maxLoggedOutput bounds how much raw model output ends up in logs.
const maxLoggedOutput = 2000

// GenerationService turns a project idea into a plan via the external
// generator. It performs no retries.
type GenerationService struct {
	gen      generator.Generator
	catalog  *template.Catalog
	sampling generator.Sampling
	extract  generation.Extractor
	metrics  *cfotel.Metrics
	events   *Events
	now      func() time.Time
	newID    func() string
}

// GenerationOption customizes a GenerationService.
type GenerationOption func(*GenerationService)

// WithExtractor swaps the JSON extraction strategy.
func WithExtractor(e generation.Extractor) GenerationOption {
	return func(s *GenerationService) { s.extract = e }
}

// WithGenerationMetrics records outcomes on m.
func WithGenerationMetrics(m *cfotel.Metrics) GenerationOption {
	return func(s *GenerationService) { s.metrics = m }
}

// WithGenerationEvents announces generated plans.
func WithGenerationEvents(e *Events) GenerationOption {
	return func(s *GenerationService) { s.events = e }
}

// NewGenerationService creates the orchestrator.
func NewGenerationService(gen generator.Generator, catalog *template.Catalog, sampling generator.Sampling, opts ...GenerationOption) *GenerationService {
	s := &GenerationService{
		gen:      gen,
		catalog:  catalog,
		sampling: sampling,
		extract:  generation.ExtractJSON,
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Configured reports whether the generator holds its credentials.
func (s *GenerationService) Configured() bool {
	return s.gen.Configured()
}

// CheckConfigured returns the configuration error a generation call would
// fail with, or nil when the generator holds its credentials.
func (s *GenerationService) CheckConfigured() error {
	if !s.gen.Configured() {
		return s.configurationError()
	}
	return nil
}

// GeneratePlanJSON decodes body and generates a plan. The configuration
// check runs before decoding so it always takes priority.
func (s *GenerationService) GeneratePlanJSON(ctx context.Context, body []byte) (*plan.Plan, error) {
	if !s.gen.Configured() {
		return nil, s.configurationError()
	}
	var req generation.Request
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, &generation.Error{
			Kind:    generation.KindValidation,
			Reason:  generation.ReasonInvalidBody,
			Message: "Request body must be a JSON object",
			Err:     err,
		}
	}
	return s.GeneratePlan(ctx, req)
}

// GeneratePlan validates req, calls the generator and assembles a plan.
// Every error returned is a *generation.Error.
func (s *GenerationService) GeneratePlan(ctx context.Context, req generation.Request) (*plan.Plan, error) {
	start := s.now()
	s.metrics.GenerationStarted(ctx)

	p, err := s.generate(ctx, req)

	kind := ""
	if ge, ok := generation.AsError(err); ok {
		kind = string(ge.Kind)
		s.logFailure(ctx, ge)
	}
	s.metrics.GenerationFinished(ctx, kind, s.now().Sub(start))
	if err != nil {
		return nil, err
	}

	slog.Info("plan generated",
		"plan_id", p.ID,
		"template_id", req.TemplateID.Value,
		"duration_ms", s.now().Sub(start).Milliseconds(),
		"request_id", logger.RequestID(ctx),
	)
	s.events.Generated(ctx, p)
	return p, nil
}

func (s *GenerationService) generate(ctx context.Context, req generation.Request) (*plan.Plan, error) {
	if !s.gen.Configured() {
		return nil, s.configurationError()
	}

	if res := generation.Validate(req); !res.Valid {
		return nil, generation.ValidationError(res)
	}

	var tmpl *template.Template
	if req.TemplateID.Set() && s.catalog != nil {
		if t, ok := s.catalog.ByID(req.TemplateID.Value); ok {
			tmpl = t
		} else {
			slog.Debug("unknown template id, generating without template", "template_id", req.TemplateID.Value)
		}
	}

	prompt := generation.BuildPrompt(req.Idea.Value, req.Context, tmpl)

	ctx, span := cfotel.StartGenerationSpan(ctx, s.gen.Name(), req.TemplateID.Value)
	p, err := s.call(ctx, prompt)
	cfotel.EndSpan(span, err)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	p.ID = s.newID()
	p.OriginalIdea = req.TrimmedIdea()
	p.CreatedAt = now
	p.UpdatedAt = now
	p.TemplateID = nil
	if req.TemplateID.Set() {
		id := req.TemplateID.Value
		p.TemplateID = &id
	}
	p.Normalize()
	return p, nil
}

// call performs the external request and turns its output into a plan body.
func (s *GenerationService) call(ctx context.Context, prompt string) (*plan.Plan, error) {
	resp, err := s.gen.Generate(ctx, prompt, s.sampling)
	if err != nil {
		switch {
		case errors.Is(err, resilience.ErrCircuitOpen):
			return nil, generation.UpstreamError(503, err)
		case errors.Is(err, generator.ErrNotConfigured):
			return nil, s.configurationError()
		default:
			return nil, generation.UpstreamError(generator.StatusCode(err), err)
		}
	}

	text := resp.First()
	if strings.TrimSpace(text) == "" {
		return nil, &generation.Error{
			Kind:    generation.KindEmptyUpstreamResponse,
			Message: "No response generated from the generation service",
		}
	}

	raw, err := s.extract(text)
	if err != nil {
		return nil, &generation.Error{
			Kind:    generation.KindNoJSONFound,
			Message: generation.ErrNoJSONFound.Error(),
			Raw:     text,
			Err:     err,
		}
	}

	var body struct {
		Title string `json:"title"`
		plan.Sections
	}
	if err := json.Unmarshal([]byte(raw), &body); err != nil {
		return nil, malformed(err.Error(), raw, err)
	}
	if strings.TrimSpace(body.Title) == "" {
		return nil, malformed("plan title is missing", raw, nil)
	}

	p := &plan.Plan{Title: body.Title}
	p.SetSections(body.Sections)
	return p, nil
}

func malformed(details, raw string, err error) *generation.Error {
	return &generation.Error{
		Kind:    generation.KindMalformedJSON,
		Message: "Failed to parse AI response. Please try again.",
		Details: details,
		Raw:     raw,
		Err:     err,
	}
}

func (s *GenerationService) configurationError() *generation.Error {
	if s.gen.Name() == "gemini" {
		return generation.ConfigurationError("Gemini API key is not configured. Please add GEMINI_API_KEY to your environment variables.")
	}
	return generation.ConfigurationError(s.gen.Name() + " generator is not configured")
}

func (s *GenerationService) logFailure(ctx context.Context, ge *generation.Error) {
	attrs := []any{
		"kind", ge.Kind,
		"request_id", logger.RequestID(ctx),
	}
	if ge.Reason != "" {
		attrs = append(attrs, "reason", ge.Reason)
	}
	if ge.Status != 0 {
		attrs = append(attrs, "status", ge.Status)
	}
	if ge.Details != "" {
		attrs = append(attrs, "details", ge.Details)
	}
	if ge.Raw != "" {
		attrs = append(attrs, "raw", truncate(ge.Raw, maxLoggedOutput))
	}
	var se *generator.StatusError
	if errors.As(ge.Err, &se) {
		attrs = append(attrs, "upstream_body", truncate(se.Body, maxLoggedOutput))
	}
	if ge.Err != nil {
		attrs = append(attrs, "error", ge.Err)
	}

	switch ge.Kind {
	case generation.KindValidation:
		slog.Info("plan generation rejected", attrs...)
	default:
		slog.Error("plan generation failed", attrs...)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "...(truncated)"
}
