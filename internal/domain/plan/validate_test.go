package plan_test

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/Strob0t/PlanForge/internal/domain"
	"github.com/Strob0t/PlanForge/internal/domain/plan"
)

func validSaveRequest() plan.SaveRequest {
	return plan.SaveRequest{
		Title:        "Team Todo",
		OriginalIdea: "A todo app for teams",
		Sections: plan.Sections{
			Summary:  "Shared task lists.",
			Features: plan.Features{MVP: []string{"Lists"}},
			Roadmap: plan.Roadmap{Phases: []plan.Phase{
				{Title: "MVP", Duration: "4 weeks", Tasks: []string{"Auth"}},
			}},
		},
	}
}

func TestSaveRequestValid(t *testing.T) {
	req := validSaveRequest()
	if err := req.Validate(); err != nil {
		t.Fatalf("expected valid, got %v", err)
	}
}

func TestSaveRequestMissingTitle(t *testing.T) {
	req := validSaveRequest()
	req.Title = ""
	err := req.Validate()
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if !strings.Contains(err.Error(), "title is required") {
		t.Errorf("expected message naming title, got %q", err.Error())
	}
}

func TestSaveRequestBadID(t *testing.T) {
	req := validSaveRequest()
	req.ID = "plan_123"
	if err := req.Validate(); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation for non-uuid id, got %v", err)
	}
}

func TestSaveRequestTooManyPhases(t *testing.T) {
	req := validSaveRequest()
	req.Roadmap.Phases = make([]plan.Phase, 13)
	for i := range req.Roadmap.Phases {
		req.Roadmap.Phases[i].Title = "phase"
	}
	if err := req.Validate(); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestSaveRequestUntitledPhase(t *testing.T) {
	req := validSaveRequest()
	req.Roadmap.Phases[0].Title = ""
	if err := req.Validate(); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestSaveRequestDecodesFlatSections(t *testing.T) {
	body := `{"title":"T","originalIdea":"idea text here","summary":"S","features":{"mvp":["a"]}}`
	var req plan.SaveRequest
	if err := json.Unmarshal([]byte(body), &req); err != nil {
		t.Fatal(err)
	}
	if req.Summary != "S" {
		t.Errorf("expected summary S, got %q", req.Summary)
	}
	p := req.Plan()
	if len(p.Features.MVP) != 1 {
		t.Fatalf("expected 1 mvp feature, got %d", len(p.Features.MVP))
	}
	if p.TechStack.Frontend == nil {
		t.Error("expected normalized empty slice, got nil")
	}
}

func TestUpdateRequestApply(t *testing.T) {
	save := validSaveRequest()
	p := save.Plan()
	title := "Renamed"
	req := plan.UpdateRequest{
		Title:    &title,
		Security: &plan.Security{Authentication: []string{"OIDC"}},
	}
	if err := req.Validate(); err != nil {
		t.Fatal(err)
	}
	req.Apply(p)

	if p.Title != "Renamed" {
		t.Errorf("expected title Renamed, got %q", p.Title)
	}
	if len(p.Security.Authentication) != 1 || p.Security.Authentication[0] != "OIDC" {
		t.Errorf("unexpected security section: %+v", p.Security)
	}
	if p.Summary != "Shared task lists." {
		t.Errorf("summary should be untouched, got %q", p.Summary)
	}
	if p.Security.APISecurity == nil {
		t.Error("expected normalized empty slice")
	}
}

func TestUpdateRequestEmptyTitle(t *testing.T) {
	empty := ""
	req := plan.UpdateRequest{Title: &empty}
	if err := req.Validate(); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestUpdateRequestEmpty(t *testing.T) {
	var req plan.UpdateRequest
	if !req.Empty() {
		t.Fatal("expected empty request")
	}
	s := "x"
	req.Summary = &s
	if req.Empty() {
		t.Fatal("expected non-empty request")
	}
}

func TestListOptionsNormalized(t *testing.T) {
	tests := []struct {
		in   plan.ListOptions
		want plan.ListOptions
	}{
		{plan.ListOptions{}, plan.ListOptions{Limit: 10}},
		{plan.ListOptions{Limit: 500, Offset: 20}, plan.ListOptions{Limit: 100, Offset: 20}},
		{plan.ListOptions{Limit: 5, Offset: -3}, plan.ListOptions{Limit: 5}},
	}
	for _, tt := range tests {
		if got := tt.in.Normalized(); got != tt.want {
			t.Errorf("Normalized(%+v) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestPlanMarshalNullTemplate(t *testing.T) {
	save := validSaveRequest()
	p := save.Plan()
	data, err := json.Marshal(p)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"templateId":null`) {
		t.Errorf("expected templateId null, got %s", data)
	}
	if !strings.Contains(string(data), `"frontend":[]`) {
		t.Errorf("expected empty arrays, got %s", data)
	}
}
