package export_test

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Strob0t/PlanForge/internal/domain/export"
	"github.com/Strob0t/PlanForge/internal/domain/plan"
)

func samplePlan() *plan.Plan {
	p := &plan.Plan{
		ID:           "0b8f6d5e-1111-4222-8333-944445555666",
		Title:        "Team Todo!! App",
		OriginalIdea: "A todo app for remote teams",
		Summary:      "Shared task lists.",
		Features:     plan.Features{MVP: []string{"Lists"}, High: []string{"Tags"}},
		TechStack:    plan.TechStack{Frontend: []string{"React"}, Backend: []string{"Go"}},
		Security:     plan.Security{Authentication: []string{"OAuth"}, APISecurity: []string{"Rate limiting"}},
		Roadmap: plan.Roadmap{Phases: []plan.Phase{
			{Title: "MVP", Description: "Core lists", Duration: "4 weeks", Tasks: []string{"Auth", "Lists"}},
		}},
		CreatedAt: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC),
	}
	p.Normalize()
	return p
}

func TestSanitizeFilename(t *testing.T) {
	tests := map[string]string{
		"Team Todo!! App":  "team-todo-app",
		"  --Hello--  ":    "hello",
		"Ünïcode Plan 2.0": "n-code-plan-2-0",
		"":                 "",
	}
	for in, want := range tests {
		if got := export.SanitizeFilename(in); got != want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRenderJSONWithoutMetadata(t *testing.T) {
	doc, err := export.Render(samplePlan(), export.FormatJSON, false)
	if err != nil {
		t.Fatal(err)
	}
	if doc.Filename != "team-todo-app-plan.json" || doc.ContentType != "application/json" {
		t.Fatalf("unexpected document meta %+v", doc)
	}
	var m map[string]any
	if err := json.Unmarshal(doc.Body, &m); err != nil {
		t.Fatal(err)
	}
	for _, k := range []string{"id", "createdAt", "originalIdea"} {
		if _, ok := m[k]; ok {
			t.Errorf("metadata field %q must be stripped", k)
		}
	}
	if m["title"] != "Team Todo!! App" {
		t.Errorf("unexpected title %v", m["title"])
	}
}

func TestRenderJSONWithMetadata(t *testing.T) {
	doc, err := export.Render(samplePlan(), export.FormatJSON, true)
	if err != nil {
		t.Fatal(err)
	}
	var p plan.Plan
	if err := json.Unmarshal(doc.Body, &p); err != nil {
		t.Fatal(err)
	}
	if p.ID == "" || p.OriginalIdea == "" {
		t.Errorf("expected metadata in full export, got %+v", p)
	}
}

func TestRenderMarkdown(t *testing.T) {
	doc, err := export.Render(samplePlan(), export.FormatMarkdown, true)
	if err != nil {
		t.Fatal(err)
	}
	body := string(doc.Body)
	for _, want := range []string{
		"# Team Todo!! App\n\n",
		"**Generated:** 2026-03-14\n",
		"**Original Idea:** A todo app for remote teams\n",
		"### MVP Features\n- Lists\n",
		"### Frontend\n- React\n",
		"### Phase 1: MVP\n**Duration:** 4 weeks\n",
		"**Tasks:**\n- Auth\n- Lists\n",
		"*Generated by PlanForge on 2026-03-14*",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("markdown missing %q", want)
		}
	}
	if strings.Contains(body, "### Database") {
		t.Error("empty tech stack layers must be skipped")
	}
}

func TestRenderMarkdownWithoutMetadata(t *testing.T) {
	doc, _ := export.Render(samplePlan(), export.FormatMarkdown, false)
	if strings.Contains(string(doc.Body), "Original Idea") {
		t.Error("metadata must be omitted")
	}
}

func TestRenderReadmeAndTechSpec(t *testing.T) {
	readme, err := export.Render(samplePlan(), export.FormatReadme, false)
	if err != nil {
		t.Fatal(err)
	}
	if readme.Filename != "README.md" || !strings.Contains(string(readme.Body), "- **Frontend:** React\n") {
		t.Errorf("unexpected readme:\n%s", readme.Body)
	}

	spec, err := export.Render(samplePlan(), export.FormatTechSpec, false)
	if err != nil {
		t.Fatal(err)
	}
	body := string(spec.Body)
	if !strings.HasPrefix(body, "# Team Todo!! App - Technical Specification") {
		t.Errorf("unexpected techspec header:\n%s", body)
	}
	if !strings.Contains(body, "## Security Requirements\n- OAuth\n- Rate limiting\n") {
		t.Errorf("security lists must be concatenated:\n%s", body)
	}
	if !strings.Contains(body, "### Phase 1: MVP (4 weeks)\n- Auth\n") {
		t.Errorf("timeline missing:\n%s", body)
	}
}

func TestRenderUnsupported(t *testing.T) {
	_, err := export.Render(samplePlan(), "pdf", false)
	var uf *export.ErrUnsupportedFormat
	if !errors.As(err, &uf) || uf.Format != "pdf" {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestRenderUntitled(t *testing.T) {
	p := samplePlan()
	p.Title = "!!!"
	doc, _ := export.Render(p, export.FormatMarkdown, false)
	if doc.Filename != "untitled-plan.md" {
		t.Fatalf("unexpected filename %q", doc.Filename)
	}
}
