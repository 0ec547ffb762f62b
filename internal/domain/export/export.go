// Package export renders plans into downloadable documents.
package export

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/Strob0t/PlanForge/internal/domain/plan"
)

// Format selects the document layout.
type Format string

const (
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
	FormatReadme   Format = "readme"
	FormatTechSpec Format = "techspec"
)

// Formats lists the supported formats in display order.
func Formats() []Format {
	return []Format{FormatJSON, FormatMarkdown, FormatReadme, FormatTechSpec}
}

// ErrUnsupportedFormat is returned for unknown format names.
type ErrUnsupportedFormat struct {
	Format string
}

func (e *ErrUnsupportedFormat) Error() string {
	return fmt.Sprintf("unsupported export format: %s", e.Format)
}

// Document is a rendered export ready to be served as a download.
type Document struct {
	Filename    string
	ContentType string
	Body        []byte
}

// Render produces the document for p in the requested format.
// includeMetadata adds id, owner-independent timestamps and the original
// idea where the format has room for them.
func Render(p *plan.Plan, format Format, includeMetadata bool) (*Document, error) {
	base := SanitizeFilename(p.Title)
	if base == "" {
		base = "untitled"
	}

	switch format {
	case FormatJSON:
		body, err := renderJSON(p, includeMetadata)
		if err != nil {
			return nil, err
		}
		return &Document{Filename: base + "-plan.json", ContentType: "application/json", Body: body}, nil
	case FormatMarkdown:
		return &Document{Filename: base + "-plan.md", ContentType: "text/markdown; charset=utf-8", Body: renderMarkdown(p, includeMetadata)}, nil
	case FormatReadme:
		return &Document{Filename: "README.md", ContentType: "text/markdown; charset=utf-8", Body: renderReadme(p)}, nil
	case FormatTechSpec:
		return &Document{Filename: base + "-techspec.md", ContentType: "text/markdown; charset=utf-8", Body: renderTechSpec(p)}, nil
	default:
		return nil, &ErrUnsupportedFormat{Format: string(format)}
	}
}

var (
	nonAlnum   = regexp.MustCompile(`[^a-z0-9]`)
	dashRuns   = regexp.MustCompile(`-+`)
	dashAround = regexp.MustCompile(`^-|-$`)
)

// SanitizeFilename lowercases s and reduces it to [a-z0-9-] without
// leading, trailing or repeated dashes.
func SanitizeFilename(s string) string {
	s = nonAlnum.ReplaceAllString(strings.ToLower(s), "-")
	s = dashRuns.ReplaceAllString(s, "-")
	return dashAround.ReplaceAllString(s, "")
}

// contentOnly is the JSON export without identity and timestamps.
type contentOnly struct {
	Title      string          `json:"title"`
	Summary    string          `json:"summary"`
	Features   plan.Features   `json:"features"`
	TechStack  plan.TechStack  `json:"techStack"`
	UIUX       plan.UIUX       `json:"uiux"`
	Security   plan.Security   `json:"security"`
	Testing    plan.Testing    `json:"testing"`
	Deployment plan.Deployment `json:"deployment"`
	Roadmap    plan.Roadmap    `json:"roadmap"`
}

func renderJSON(p *plan.Plan, includeMetadata bool) ([]byte, error) {
	var v any = p
	if !includeMetadata {
		v = contentOnly{
			Title:      p.Title,
			Summary:    p.Summary,
			Features:   p.Features,
			TechStack:  p.TechStack,
			UIUX:       p.UIUX,
			Security:   p.Security,
			Testing:    p.Testing,
			Deployment: p.Deployment,
			Roadmap:    p.Roadmap,
		}
	}
	body, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal plan: %w", err)
	}
	return body, nil
}
