// Package template defines the project template catalog used to bias plan generation.
package template

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Complexity is a coarse effort estimate for a template.
type Complexity string

const (
	ComplexitySimple  Complexity = "Simple"
	ComplexityMedium  Complexity = "Medium"
	ComplexityComplex Complexity = "Complex"
)

// Valid reports whether c is a known complexity.
func (c Complexity) Valid() bool {
	switch c {
	case ComplexitySimple, ComplexityMedium, ComplexityComplex:
		return true
	}
	return false
}

// Prompts holds the template text fed into the prompt builder.
type Prompts struct {
	Context     string   `yaml:"context" json:"context"`
	Constraints []string `yaml:"constraints" json:"constraints"`
	FocusAreas  []string `yaml:"focus_areas" json:"focusAreas"`
}

// Template is a read-only catalog entry describing a kind of project.
type Template struct {
	ID                  string     `yaml:"id" json:"id"`
	Name                string     `yaml:"name" json:"name"`
	Description         string     `yaml:"description" json:"description"`
	Category            string     `yaml:"category" json:"category"`
	Tags                []string   `yaml:"tags" json:"tags"`
	Prompts             Prompts    `yaml:"prompts" json:"prompts"`
	DefaultSections     []string   `yaml:"default_sections" json:"defaultSections"`
	EstimatedComplexity Complexity `yaml:"estimated_complexity" json:"estimatedComplexity"`
	EstimatedTimeframe  string     `yaml:"estimated_timeframe" json:"estimatedTimeframe"`
}

//go:embed templates.yaml
var builtin []byte

// Catalog is an immutable, ordered set of templates. It is safe for
// concurrent use.
type Catalog struct {
	categories []string
	templates  []Template
	byID       map[string]int
}

type catalogFile struct {
	Categories []string   `yaml:"categories"`
	Templates  []Template `yaml:"templates"`
}

// Default returns the catalog compiled into the binary.
func Default() *Catalog {
	c, err := Parse(builtin)
	if err != nil {
		panic(fmt.Sprintf("template: builtin catalog: %v", err))
	}
	return c
}

// LoadFromFile reads a catalog from a YAML file.
func LoadFromFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from trusted config
	if err != nil {
		return nil, fmt.Errorf("read template catalog %s: %w", path, err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("template catalog %s: %w", path, err)
	}
	return c, nil
}

// Parse decodes and validates a YAML catalog.
func Parse(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}

	c := &Catalog{
		categories: f.Categories,
		templates:  f.Templates,
		byID:       make(map[string]int, len(f.Templates)),
	}
	for i := range f.Templates {
		t := &f.Templates[i]
		if t.ID == "" {
			return nil, fmt.Errorf("template %d: id is required", i)
		}
		if _, dup := c.byID[t.ID]; dup {
			return nil, fmt.Errorf("template %q: duplicate id", t.ID)
		}
		if t.EstimatedComplexity != "" && !t.EstimatedComplexity.Valid() {
			return nil, fmt.Errorf("template %q: invalid complexity %q", t.ID, t.EstimatedComplexity)
		}
		c.byID[t.ID] = i
	}
	if len(c.templates) == 0 {
		return nil, errors.New("catalog has no templates")
	}
	return c, nil
}

// All returns every template in catalog order.
func (c *Catalog) All() []Template {
	out := make([]Template, len(c.templates))
	copy(out, c.templates)
	return out
}

// ByID returns the template with the given id.
func (c *Catalog) ByID(id string) (*Template, bool) {
	i, ok := c.byID[id]
	if !ok {
		return nil, false
	}
	t := c.templates[i]
	return &t, true
}

// ByCategory returns templates whose category matches exactly.
func (c *Catalog) ByCategory(category string) []Template {
	out := []Template{}
	for i := range c.templates {
		if c.templates[i].Category == category {
			out = append(out, c.templates[i])
		}
	}
	return out
}

// Search returns templates whose name, description or any tag contains
// query, case-insensitively.
func (c *Catalog) Search(query string) []Template {
	q := strings.ToLower(query)
	out := []Template{}
	for i := range c.templates {
		if matches(&c.templates[i], q) {
			out = append(out, c.templates[i])
		}
	}
	return out
}

func matches(t *Template, q string) bool {
	if strings.Contains(strings.ToLower(t.Name), q) || strings.Contains(strings.ToLower(t.Description), q) {
		return true
	}
	for _, tag := range t.Tags {
		if strings.Contains(strings.ToLower(tag), q) {
			return true
		}
	}
	return false
}

// Categories returns the known template categories, including ones with no
// templates yet.
func (c *Catalog) Categories() []string {
	out := make([]string, len(c.categories))
	copy(out, c.categories)
	return out
}
