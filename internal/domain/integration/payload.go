package integration

import (
	"fmt"
	"strings"

	"github.com/Strob0t/PlanForge/internal/domain/export"
	"github.com/Strob0t/PlanForge/internal/domain/plan"
)

// Item is one unit pushed to an external tool: a card, an issue, a page.
type Item struct {
	Title  string   `json:"title"`
	Body   string   `json:"body,omitempty"`
	Group  string   `json:"group,omitempty"`
	Labels []string `json:"labels,omitempty"`
}

// Payload is the integration-neutral export of a plan.
type Payload struct {
	ExportType ExportType `json:"exportType"`
	Title      string     `json:"title"`
	Summary    string     `json:"summary"`
	Items      []Item     `json:"items"`
	Document   string     `json:"document,omitempty"`
}

// BuildPayload converts p into the payload for the export type.
func BuildPayload(p *plan.Plan, t ExportType) (*Payload, error) {
	out := &Payload{ExportType: t, Title: p.Title, Summary: p.Summary, Items: []Item{}}

	switch t {
	case ExportTasks:
		out.Items = tasks(p)
	case ExportIssues:
		out.Items = issues(p)
	case ExportRoadmap:
		out.Items = phases(p)
		out.Summary = RoadmapSummary(p)
	case ExportDocumentation:
		doc, err := export.Render(p, export.FormatMarkdown, true)
		if err != nil {
			return nil, err
		}
		out.Document = string(doc.Body)
	case ExportRepository:
		doc, err := export.Render(p, export.FormatReadme, false)
		if err != nil {
			return nil, err
		}
		out.Document = string(doc.Body)
		out.Items = issues(p)
	default:
		return nil, fmt.Errorf("unsupported export type %q", t)
	}
	return out, nil
}

func tasks(p *plan.Plan) []Item {
	items := []Item{}
	for i, ph := range p.Roadmap.Phases {
		label := fmt.Sprintf("phase-%d", i+1)
		for _, task := range ph.Tasks {
			items = append(items, Item{Title: task, Body: ph.Description, Group: ph.Title, Labels: []string{label}})
		}
	}
	return items
}

func issues(p *plan.Plan) []Item {
	items := []Item{}
	for _, g := range []struct {
		label    string
		features []string
	}{
		{"mvp", p.Features.MVP},
		{"high-priority", p.Features.High},
		{"optional", p.Features.Optional},
	} {
		for _, f := range g.features {
			items = append(items, Item{Title: f, Labels: []string{"feature", g.label}})
		}
	}
	return items
}

func phases(p *plan.Plan) []Item {
	items := make([]Item, 0, len(p.Roadmap.Phases))
	for i, ph := range p.Roadmap.Phases {
		var b strings.Builder
		if ph.Description != "" {
			b.WriteString(ph.Description)
			b.WriteString("\n")
		}
		for _, task := range ph.Tasks {
			fmt.Fprintf(&b, "- %s\n", task)
		}
		items = append(items, Item{
			Title:  fmt.Sprintf("Phase %d: %s", i+1, ph.Title),
			Body:   strings.TrimRight(b.String(), "\n"),
			Group:  ph.Duration,
			Labels: []string{fmt.Sprintf("phase-%d", i+1)},
		})
	}
	return items
}

// RoadmapSummary is a short chat-friendly digest of the plan.
func RoadmapSummary(p *plan.Plan) string {
	var b strings.Builder
	if p.Summary != "" {
		fmt.Fprintf(&b, "%s\n\n", p.Summary)
	}
	if len(p.Features.MVP) > 0 {
		fmt.Fprintf(&b, "*MVP:* %s\n", strings.Join(p.Features.MVP, ", "))
	}
	for i, ph := range p.Roadmap.Phases {
		if ph.Duration != "" {
			fmt.Fprintf(&b, "%d. %s (%s)\n", i+1, ph.Title, ph.Duration)
		} else {
			fmt.Fprintf(&b, "%d. %s\n", i+1, ph.Title)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
