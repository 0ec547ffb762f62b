package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Strob0t/PlanForge/internal/adapter/gemini"
	"github.com/Strob0t/PlanForge/internal/domain/generation"
	"github.com/Strob0t/PlanForge/internal/domain/template"
	"github.com/Strob0t/PlanForge/internal/port/generator"
	"github.com/Strob0t/PlanForge/internal/resilience"
)

// geminiServer answers every generateContent call with text, counting hits.
func geminiServer(t *testing.T, status int, text string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		body, _ := json.Marshal(map[string]any{
			"candidates": []any{map[string]any{
				"content": map[string]any{"parts": []any{map[string]any{"text": text}}},
			}},
		})
		_, _ = w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func newGenerationService(url, key string) *GenerationService {
	client := gemini.NewClient(gemini.Config{APIKey: key, BaseURL: url})
	return NewGenerationService(client, template.Default(), generator.DefaultSampling())
}

func validRequest() generation.Request {
	return generation.NewRequest("  A todo app for remote teams  ", "", nil)
}

func kindOf(t *testing.T, err error) *generation.Error {
	t.Helper()
	ge, ok := generation.AsError(err)
	if !ok {
		t.Fatalf("expected *generation.Error, got %T %v", err, err)
	}
	return ge
}

func TestGeneratePlanSuccess(t *testing.T) {
	srv, hits := geminiServer(t, http.StatusOK, "```json\n{\"title\":\"Test Project\"}\n```")
	svc := newGenerationService(srv.URL, "k")
	fixed := time.Date(2026, 2, 3, 4, 5, 6, 0, time.FixedZone("X", 3600))
	svc.now = func() time.Time { return fixed }

	p, err := svc.GeneratePlan(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("GeneratePlan: %v", err)
	}
	if hits.Load() != 1 {
		t.Fatalf("expected 1 upstream call, got %d", hits.Load())
	}
	if p.Title != "Test Project" {
		t.Errorf("unexpected title %q", p.Title)
	}
	if p.ID == "" {
		t.Error("expected id to be stamped")
	}
	if !p.CreatedAt.Equal(fixed) || p.CreatedAt.Location() != time.UTC {
		t.Errorf("expected createdAt in UTC, got %v", p.CreatedAt)
	}
	if p.OriginalIdea != "A todo app for remote teams" {
		t.Errorf("expected trimmed idea, got %q", p.OriginalIdea)
	}
	if p.TemplateID != nil {
		t.Errorf("expected nil template id, got %v", *p.TemplateID)
	}
	if p.Features.MVP == nil || p.Roadmap.Phases == nil {
		t.Error("expected normalized empty lists")
	}
}

func TestGeneratePlanKeepsTemplateID(t *testing.T) {
	srv, _ := geminiServer(t, http.StatusOK, `{"title":"Shop","features":{"mvp":["Cart"]}}`)
	svc := newGenerationService(srv.URL, "k")

	p, err := svc.GeneratePlan(context.Background(), generation.NewRequest("An online store for plants", "ecommerce-store", nil))
	if err != nil {
		t.Fatal(err)
	}
	if p.TemplateID == nil || *p.TemplateID != "ecommerce-store" {
		t.Fatalf("unexpected template id %v", p.TemplateID)
	}
	if len(p.Features.MVP) != 1 {
		t.Errorf("expected sections from model output, got %+v", p.Features)
	}
}

func TestGeneratePlanUnknownTemplateStillGenerates(t *testing.T) {
	srv, hits := geminiServer(t, http.StatusOK, `{"title":"X"}`)
	svc := newGenerationService(srv.URL, "k")

	if _, err := svc.GeneratePlan(context.Background(), generation.NewRequest("A todo app for remote teams", "no-such-template", nil)); err != nil {
		t.Fatal(err)
	}
	if hits.Load() != 1 {
		t.Fatal("expected upstream call")
	}
}

func TestGeneratePlanNotConfigured(t *testing.T) {
	srv, hits := geminiServer(t, http.StatusOK, `{"title":"X"}`)
	svc := newGenerationService(srv.URL, "")

	_, err := svc.GeneratePlan(context.Background(), generation.Request{})
	ge := kindOf(t, err)
	if ge.Kind != generation.KindConfiguration {
		t.Fatalf("expected configuration error before validation, got %s", ge.Kind)
	}
	if !strings.Contains(ge.Message, "GEMINI_API_KEY") {
		t.Errorf("message should name the key: %q", ge.Message)
	}
	if hits.Load() != 0 {
		t.Fatalf("expected zero upstream hits, got %d", hits.Load())
	}
}

func TestGeneratePlanJSONConfigurationBeatsBadBody(t *testing.T) {
	svc := newGenerationService("http://unused", "")
	_, err := svc.GeneratePlanJSON(context.Background(), []byte(`not json`))
	if ge := kindOf(t, err); ge.Kind != generation.KindConfiguration {
		t.Fatalf("expected configuration error, got %s", ge.Kind)
	}
}

func TestGeneratePlanJSONBadBody(t *testing.T) {
	svc := newGenerationService("http://unused", "k")
	_, err := svc.GeneratePlanJSON(context.Background(), []byte(`[1,2]`))
	ge := kindOf(t, err)
	if ge.Kind != generation.KindValidation || ge.Reason != generation.ReasonInvalidBody {
		t.Fatalf("expected invalid_body validation error, got %s/%s", ge.Kind, ge.Reason)
	}
}

func TestGeneratePlanValidationFailsFast(t *testing.T) {
	srv, hits := geminiServer(t, http.StatusOK, `{"title":"X"}`)
	svc := newGenerationService(srv.URL, "k")

	_, err := svc.GeneratePlanJSON(context.Background(), []byte(`{"idea":"too short"}`))
	ge := kindOf(t, err)
	if ge.Kind != generation.KindValidation || ge.Reason != generation.ReasonTooShort {
		t.Fatalf("unexpected error %s/%s", ge.Kind, ge.Reason)
	}
	if ge.HTTPStatus() != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", ge.HTTPStatus())
	}
	if hits.Load() != 0 {
		t.Fatal("validation failure must not reach upstream")
	}
}

func TestGeneratePlanUpstreamStatus(t *testing.T) {
	srv, _ := geminiServer(t, http.StatusServiceUnavailable, "")
	svc := newGenerationService(srv.URL, "k")

	_, err := svc.GeneratePlan(context.Background(), validRequest())
	ge := kindOf(t, err)
	if ge.Kind != generation.KindUpstream || ge.Status != http.StatusServiceUnavailable {
		t.Fatalf("expected UpstreamError(503), got %s(%d)", ge.Kind, ge.Status)
	}
}

func TestGeneratePlanTransportFailure(t *testing.T) {
	srv, _ := geminiServer(t, http.StatusOK, "")
	url := srv.URL
	srv.Close()
	svc := newGenerationService(url, "k")

	_, err := svc.GeneratePlan(context.Background(), validRequest())
	ge := kindOf(t, err)
	if ge.Kind != generation.KindUpstream || ge.Status != 0 {
		t.Fatalf("expected UpstreamError(0), got %s(%d)", ge.Kind, ge.Status)
	}
}

func TestGeneratePlanBreakerOpen(t *testing.T) {
	srv, hits := geminiServer(t, http.StatusInternalServerError, "")
	client := gemini.NewClient(gemini.Config{APIKey: "k", BaseURL: srv.URL})
	client.SetBreaker(resilience.NewBreaker(1, time.Minute, resilience.WithFailureFilter(generator.UpstreamFault)))
	svc := NewGenerationService(client, template.Default(), generator.DefaultSampling())

	_, _ = svc.GeneratePlan(context.Background(), validRequest())
	_, err := svc.GeneratePlan(context.Background(), validRequest())
	ge := kindOf(t, err)
	if ge.Kind != generation.KindUpstream || ge.Status != http.StatusServiceUnavailable {
		t.Fatalf("expected UpstreamError(503) from open breaker, got %s(%d)", ge.Kind, ge.Status)
	}
	if !errors.Is(err, resilience.ErrCircuitOpen) {
		t.Error("expected ErrCircuitOpen in chain")
	}
	if hits.Load() != 1 {
		t.Fatalf("open breaker must not call upstream, hits=%d", hits.Load())
	}
}

func TestGeneratePlanOutputFailures(t *testing.T) {
	tests := []struct {
		name string
		text string
		kind generation.Kind
	}{
		{"blank", "   ", generation.KindEmptyUpstreamResponse},
		{"no json", "Sorry, I cannot help with that.", generation.KindNoJSONFound},
		{"malformed", `{"title": "x",}`, generation.KindMalformedJSON},
		{"missing title", `{"summary":"no title"}`, generation.KindMalformedJSON},
		{"wrong section shape", `{"title":"x","features":["a"]}`, generation.KindMalformedJSON},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := geminiServer(t, http.StatusOK, tt.text)
			svc := newGenerationService(srv.URL, "k")

			_, err := svc.GeneratePlan(context.Background(), validRequest())
			ge := kindOf(t, err)
			if ge.Kind != tt.kind {
				t.Fatalf("expected %s, got %s", tt.kind, ge.Kind)
			}
			if ge.HTTPStatus() != http.StatusBadGateway {
				t.Errorf("expected 502, got %d", ge.HTTPStatus())
			}
			if tt.kind == generation.KindMalformedJSON && ge.Details == "" {
				t.Error("expected parser details")
			}
		})
	}
}

type stubGenerator struct {
	resp *generator.Response
	err  error
}

func (s *stubGenerator) Name() string     { return "stub" }
func (s *stubGenerator) Configured() bool { return true }
func (s *stubGenerator) Generate(context.Context, string, generator.Sampling) (*generator.Response, error) {
	return s.resp, s.err
}

func TestGeneratePlanNoCandidates(t *testing.T) {
	svc := NewGenerationService(&stubGenerator{resp: &generator.Response{}}, nil, generator.DefaultSampling())
	_, err := svc.GeneratePlan(context.Background(), validRequest())
	if ge := kindOf(t, err); ge.Kind != generation.KindEmptyUpstreamResponse {
		t.Fatalf("expected empty response error, got %s", ge.Kind)
	}
}

func TestGeneratePlanCustomExtractor(t *testing.T) {
	gen := &stubGenerator{resp: &generator.Response{Candidates: []string{"anything"}}}
	svc := NewGenerationService(gen, nil, generator.DefaultSampling(),
		WithExtractor(func(string) (string, error) { return `{"title":"From extractor"}`, nil }))

	p, err := svc.GeneratePlan(context.Background(), validRequest())
	if err != nil {
		t.Fatal(err)
	}
	if p.Title != "From extractor" {
		t.Fatalf("unexpected title %q", p.Title)
	}
}

func TestGeneratePlanContextDeadline(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { <-block }))
	defer srv.Close()
	defer close(block)
	svc := newGenerationService(srv.URL, "k")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := svc.GeneratePlan(ctx, validRequest())
	ge := kindOf(t, err)
	if ge.Kind != generation.KindUpstream || ge.Status != 0 {
		t.Fatalf("expected transport upstream error, got %s(%d)", ge.Kind, ge.Status)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline in chain, got %v", err)
	}
}
