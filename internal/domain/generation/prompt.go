package generation

import (
	"strings"

	"github.com/Strob0t/PlanForge/internal/domain/template"
)

const instructions = `Please provide:
1. A clear, compelling project title
2. A comprehensive summary (2-3 sentences)
3. Features organized by priority (MVP, High Priority, Optional)
4. Modern, appropriate technology stack recommendations
5. UI/UX considerations including accessibility
6. Security measures and best practices
7. Testing strategy across all levels
8. Deployment and infrastructure recommendations
9. A realistic 3-phase development roadmap with specific tasks

Focus on:
- Modern, widely-adopted technologies
- Scalable architecture patterns
- Security-first approach
- Accessibility compliance
- Realistic timelines and scope
- Practical, actionable recommendations`

const structure = `Required JSON structure:
{
  "title": "string",
  "summary": "string",
  "features": {"mvp": ["string"], "high": ["string"], "optional": ["string"]},
  "techStack": {"frontend": ["string"], "backend": ["string"], "database": ["string"], "deployment": ["string"], "other": ["string"]},
  "uiux": {"designPrinciples": ["string"], "userExperience": ["string"], "accessibility": ["string"]},
  "security": {"authentication": ["string"], "dataProtection": ["string"], "apiSecurity": ["string"]},
  "testing": {"unitTesting": ["string"], "integrationTesting": ["string"], "e2eTesting": ["string"]},
  "deployment": {"hosting": ["string"], "cicd": ["string"], "monitoring": ["string"]},
  "roadmap": {"phases": [{"title": "string", "description": "string", "duration": "string", "tasks": ["string"]}]}
}`

const closing = "Respond only with valid JSON matching the required structure."

// BuildPrompt assembles the instruction sent to the generator. The output is
// a pure function of its inputs; the idea is embedded verbatim.
func BuildPrompt(idea string, ctx *Context, tmpl *template.Template) string {
	var b strings.Builder
	b.WriteString(`Create a comprehensive project plan for this idea: "`)
	b.WriteString(idea)
	b.WriteString(`"`)

	if tmpl != nil {
		b.WriteString("\n")
		line(&b, "Project Template", tmpl.Name)
		line(&b, "Template Description", tmpl.Description)
		line(&b, "Template Context", tmpl.Prompts.Context)
		line(&b, "Template Constraints", strings.Join(tmpl.Prompts.Constraints, ", "))
		line(&b, "Focus Areas", strings.Join(tmpl.Prompts.FocusAreas, ", "))
		line(&b, "Estimated Complexity", string(tmpl.EstimatedComplexity))
		line(&b, "Estimated Timeframe", tmpl.EstimatedTimeframe)
	}

	if ctx != nil {
		b.WriteString("\n")
		text(&b, "Project Type", ctx.ProjectType)
		text(&b, "Target Audience", ctx.TargetAudience)
		text(&b, "Budget Range", ctx.Budget)
		text(&b, "Timeline", ctx.Timeline)
		text(&b, "Team Size", ctx.TeamSize)
		list(&b, "Technical Constraints", ctx.Constraints)
		list(&b, "Business Goals", ctx.BusinessGoals)
		list(&b, "Integration Requirements", ctx.IntegrationRequirements)
		text(&b, "Additional Context", ctx.AdditionalContext)
	}

	b.WriteString("\n\n")
	b.WriteString(instructions)
	if ctx != nil {
		bullet(&b, "Timeline constraints", ctx.Timeline)
		bullet(&b, "Budget considerations", ctx.Budget)
		bullet(&b, "Team size optimization", ctx.TeamSize)
	}

	b.WriteString("\n\n")
	b.WriteString(structure)
	b.WriteString("\n\n")
	b.WriteString(closing)
	return b.String()
}

func line(b *strings.Builder, label, value string) {
	if value == "" {
		return
	}
	b.WriteString("\n")
	b.WriteString(label)
	b.WriteString(": ")
	b.WriteString(value)
}

func text(b *strings.Builder, label string, t Text) {
	if t.Set() {
		line(b, label, t.Value)
	}
}

func list(b *strings.Builder, label string, l List) {
	if l.Set() {
		line(b, label, strings.Join(l.Values, ", "))
	}
}

func bullet(b *strings.Builder, label string, t Text) {
	if t.Set() {
		b.WriteString("\n- ")
		b.WriteString(label)
		b.WriteString(": ")
		b.WriteString(t.Value)
	}
}
