package generation_test

import (
	"strings"
	"testing"

	"github.com/Strob0t/PlanForge/internal/domain/generation"
	"github.com/Strob0t/PlanForge/internal/domain/template"
)

func TestBuildPromptIdeaOnly(t *testing.T) {
	p := generation.BuildPrompt("A recipe sharing site", nil, nil)

	if !strings.HasPrefix(p, `Create a comprehensive project plan for this idea: "A recipe sharing site"`) {
		t.Fatalf("unexpected prefix: %q", p[:80])
	}
	if !strings.HasSuffix(p, "Respond only with valid JSON matching the required structure.") {
		t.Fatal("prompt must end with the JSON instruction")
	}
	for _, absent := range []string{"Project Template:", "Project Type:", "Timeline constraints"} {
		if strings.Contains(p, absent) {
			t.Errorf("did not expect %q in idea-only prompt", absent)
		}
	}
	for _, want := range []string{"9. A realistic 3-phase development roadmap", "- Security-first approach", `"roadmap": {"phases"`} {
		if !strings.Contains(p, want) {
			t.Errorf("expected %q in prompt", want)
		}
	}
}

func TestBuildPromptDeterministic(t *testing.T) {
	ctx := &generation.Context{Budget: generation.NewText("$10k")}
	if generation.BuildPrompt("idea text", ctx, nil) != generation.BuildPrompt("idea text", ctx, nil) {
		t.Fatal("prompt must be deterministic")
	}
}

func TestBuildPromptWithTemplate(t *testing.T) {
	tmpl, ok := template.Default().ByID("api-backend")
	if !ok {
		t.Fatal("missing api-backend template")
	}
	p := generation.BuildPrompt("A parcel tracking API", nil, tmpl)

	for _, want := range []string{
		"\n\nProject Template: REST API Backend",
		"\nTemplate Description: ",
		"\nTemplate Context: ",
		"\nFocus Areas: ",
		"\nEstimated Complexity: Medium",
		"\nEstimated Timeframe: ",
	} {
		if !strings.Contains(p, want) {
			t.Errorf("expected %q in prompt", want)
		}
	}
}

func TestBuildPromptContextOrder(t *testing.T) {
	ctx := &generation.Context{
		ProjectType:             generation.NewText("Mobile App"),
		TargetAudience:          generation.NewText("Runners"),
		Budget:                  generation.NewText("$5k"),
		Timeline:                generation.NewText("3 months"),
		TeamSize:                generation.NewText("2"),
		Constraints:             generation.NewList("iOS", "Android"),
		BusinessGoals:           generation.NewList("Retention"),
		IntegrationRequirements: generation.NewList("Strava"),
		AdditionalContext:       generation.NewText("Offline first"),
	}
	p := generation.BuildPrompt("A running coach app", ctx, nil)

	order := []string{
		"\n\nProject Type: Mobile App",
		"\nTarget Audience: Runners",
		"\nBudget Range: $5k",
		"\nTimeline: 3 months",
		"\nTeam Size: 2",
		"\nTechnical Constraints: iOS, Android",
		"\nBusiness Goals: Retention",
		"\nIntegration Requirements: Strava",
		"\nAdditional Context: Offline first",
		"- Timeline constraints: 3 months",
		"- Budget considerations: $5k",
		"- Team size optimization: 2",
	}
	last := -1
	for _, want := range order {
		i := strings.Index(p, want)
		if i < 0 {
			t.Fatalf("missing %q", want)
		}
		if i < last {
			t.Fatalf("%q out of order", want)
		}
		last = i
	}
}

func TestBuildPromptSkipsEmptyContextValues(t *testing.T) {
	ctx := &generation.Context{
		ProjectType: generation.NewText("   "),
		Constraints: generation.NewList(),
	}
	p := generation.BuildPrompt("A running coach app", ctx, nil)
	if strings.Contains(p, "Project Type:") || strings.Contains(p, "Technical Constraints:") {
		t.Fatal("blank context values must not be rendered")
	}
}
