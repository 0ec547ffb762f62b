package export

import (
	"fmt"
	"strings"

	"github.com/Strob0t/PlanForge/internal/domain/plan"
)

const dateLayout = "2006-01-02"

// bullets writes one "- item" line per entry.
func bullets(b *strings.Builder, items []string) {
	for _, it := range items {
		fmt.Fprintf(b, "- %s\n", it)
	}
}

// section writes a "### heading" followed by its bullets and a blank line.
func section(b *strings.Builder, heading string, items []string) {
	fmt.Fprintf(b, "### %s\n", heading)
	bullets(b, items)
	b.WriteString("\n")
}

func concat(lists ...[]string) []string {
	var out []string
	for _, l := range lists {
		out = append(out, l...)
	}
	return out
}

func renderMarkdown(p *plan.Plan, includeMetadata bool) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", p.Title)

	if includeMetadata {
		fmt.Fprintf(&b, "**Generated:** %s\n", p.CreatedAt.Format(dateLayout))
		fmt.Fprintf(&b, "**Original Idea:** %s\n\n", p.OriginalIdea)
	}

	fmt.Fprintf(&b, "## Project Summary\n\n%s\n\n", p.Summary)

	b.WriteString("## Features & Requirements\n\n")
	section(&b, "MVP Features", p.Features.MVP)
	section(&b, "High Priority Features", p.Features.High)
	section(&b, "Optional Features", p.Features.Optional)

	b.WriteString("## Technology Stack\n\n")
	for _, layer := range []struct {
		name  string
		items []string
	}{
		{"Frontend", p.TechStack.Frontend},
		{"Backend", p.TechStack.Backend},
		{"Database", p.TechStack.Database},
		{"Deployment", p.TechStack.Deployment},
		{"Other", p.TechStack.Other},
	} {
		if len(layer.items) > 0 {
			section(&b, layer.name, layer.items)
		}
	}

	b.WriteString("## UI/UX Considerations\n\n")
	section(&b, "Design Principles", p.UIUX.DesignPrinciples)
	section(&b, "User Experience", p.UIUX.UserExperience)
	section(&b, "Accessibility", p.UIUX.Accessibility)

	b.WriteString("## Security & Privacy\n\n")
	section(&b, "Authentication", p.Security.Authentication)
	section(&b, "Data Protection", p.Security.DataProtection)
	section(&b, "API Security", p.Security.APISecurity)

	b.WriteString("## Testing Strategy\n\n")
	section(&b, "Unit Testing", p.Testing.UnitTesting)
	section(&b, "Integration Testing", p.Testing.IntegrationTesting)
	section(&b, "End-to-End Testing", p.Testing.E2ETesting)

	b.WriteString("## Deployment & Infrastructure\n\n")
	section(&b, "Hosting", p.Deployment.Hosting)
	section(&b, "CI/CD", p.Deployment.CICD)
	section(&b, "Monitoring", p.Deployment.Monitoring)

	b.WriteString("## Development Roadmap\n\n")
	for i, ph := range p.Roadmap.Phases {
		fmt.Fprintf(&b, "### Phase %d: %s\n", i+1, ph.Title)
		fmt.Fprintf(&b, "**Duration:** %s\n\n", ph.Duration)
		fmt.Fprintf(&b, "%s\n\n", ph.Description)
		b.WriteString("**Tasks:**\n")
		bullets(&b, ph.Tasks)
		b.WriteString("\n")
	}

	if includeMetadata {
		fmt.Fprintf(&b, "---\n*Generated by PlanForge on %s*\n", p.CreatedAt.Format(dateLayout))
	}
	return []byte(b.String())
}

func renderReadme(p *plan.Plan) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n%s\n\n", p.Title, p.Summary)

	b.WriteString("## Features\n\n")
	section(&b, "Core Features (MVP)", p.Features.MVP)
	section(&b, "Enhanced Features", p.Features.High)
	section(&b, "Future Features", p.Features.Optional)

	b.WriteString("## Tech Stack\n\n")
	fmt.Fprintf(&b, "- **Frontend:** %s\n", strings.Join(p.TechStack.Frontend, ", "))
	fmt.Fprintf(&b, "- **Backend:** %s\n", strings.Join(p.TechStack.Backend, ", "))
	fmt.Fprintf(&b, "- **Database:** %s\n", strings.Join(p.TechStack.Database, ", "))
	fmt.Fprintf(&b, "- **Deployment:** %s\n\n", strings.Join(p.TechStack.Deployment, ", "))

	b.WriteString("## Getting Started\n\n")
	b.WriteString("1. Clone the repository\n2. Install dependencies\n3. Set up environment variables\n4. Run the development server\n\n")

	b.WriteString("## Development Roadmap\n\n")
	for i, ph := range p.Roadmap.Phases {
		fmt.Fprintf(&b, "### Phase %d: %s\n*%s*\n\n%s\n\n", i+1, ph.Title, ph.Duration, ph.Description)
	}

	b.WriteString("## Contributing\n\nPlease read our contributing guidelines before submitting pull requests.\n\n")
	b.WriteString("## License\n\nThis project is licensed under the MIT License.\n")
	return []byte(b.String())
}

func renderTechSpec(p *plan.Plan) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s - Technical Specification\n\n", p.Title)
	fmt.Fprintf(&b, "## Overview\n%s\n\n", p.Summary)

	b.WriteString("## Architecture\n\n")
	section(&b, "Frontend Architecture", p.TechStack.Frontend)
	section(&b, "Backend Architecture", p.TechStack.Backend)
	section(&b, "Database Design", p.TechStack.Database)

	b.WriteString("## Security Requirements\n")
	bullets(&b, concat(p.Security.Authentication, p.Security.DataProtection, p.Security.APISecurity))
	b.WriteString("\n## Testing Strategy\n")
	bullets(&b, concat(p.Testing.UnitTesting, p.Testing.IntegrationTesting, p.Testing.E2ETesting))
	b.WriteString("\n## Deployment Strategy\n")
	bullets(&b, concat(p.Deployment.Hosting, p.Deployment.CICD, p.Deployment.Monitoring))

	b.WriteString("\n## Implementation Timeline\n")
	for i, ph := range p.Roadmap.Phases {
		fmt.Fprintf(&b, "\n### Phase %d: %s (%s)\n", i+1, ph.Title, ph.Duration)
		bullets(&b, ph.Tasks)
	}
	return []byte(b.String())
}
