// Package integration describes the external tools a plan can be shared to.
package integration

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Strob0t/PlanForge/internal/domain"
)

// Category groups integrations in the catalog.
type Category string

const (
	CategoryProjectManagement Category = "Project Management"
	CategoryDevelopment       Category = "Development"
	CategoryCommunication     Category = "Communication"
	CategoryDocumentation     Category = "Documentation"
)

// ExportType is the shape of data pushed to an integration.
type ExportType string

const (
	ExportTasks         ExportType = "tasks"
	ExportIssues        ExportType = "issues"
	ExportRepository    ExportType = "repository"
	ExportDocumentation ExportType = "documentation"
	ExportRoadmap       ExportType = "roadmap"
)

// FieldType controls how a config field is entered and validated.
type FieldType string

const (
	FieldText     FieldType = "text"
	FieldPassword FieldType = "password"
	FieldURL      FieldType = "url"
)

// ConfigField is one setting an integration needs.
type ConfigField struct {
	Key         string    `json:"key"`
	Label       string    `json:"label"`
	Type        FieldType `json:"type"`
	Required    bool      `json:"required"`
	Placeholder string    `json:"placeholder,omitempty"`
}

// Integration is a catalog entry.
type Integration struct {
	ID               string        `json:"id"`
	Name             string        `json:"name"`
	Description      string        `json:"description"`
	Category         Category      `json:"category"`
	RequiresAuth     bool          `json:"requiresAuth"`
	SupportedExports []ExportType  `json:"supportedExports"`
	ConfigFields     []ConfigField `json:"configFields"`
}

// Supports reports whether t is one of the integration's export types.
func (i *Integration) Supports(t ExportType) bool {
	for _, s := range i.SupportedExports {
		if s == t {
			return true
		}
	}
	return false
}

var catalog = []Integration{
	{
		ID: "jira", Name: "Jira", Category: CategoryProjectManagement, RequiresAuth: true,
		Description:      "Export project plans as Jira epics and stories",
		SupportedExports: []ExportType{ExportTasks, ExportIssues},
		ConfigFields: []ConfigField{
			{Key: "domain", Label: "Jira Domain", Type: FieldURL, Required: true, Placeholder: "https://yourcompany.atlassian.net"},
			{Key: "email", Label: "Email", Type: FieldText, Required: true, Placeholder: "your-email@company.com"},
			{Key: "apiToken", Label: "API Token", Type: FieldPassword, Required: true, Placeholder: "Your Jira API token"},
			{Key: "projectKey", Label: "Project Key", Type: FieldText, Required: true, Placeholder: "PROJ"},
		},
	},
	{
		ID: "trello", Name: "Trello", Category: CategoryProjectManagement, RequiresAuth: true,
		Description:      "Create Trello boards with cards for each project phase",
		SupportedExports: []ExportType{ExportTasks, ExportRoadmap},
		ConfigFields: []ConfigField{
			{Key: "apiKey", Label: "API Key", Type: FieldPassword, Required: true, Placeholder: "Your Trello API key"},
			{Key: "token", Label: "Token", Type: FieldPassword, Required: true, Placeholder: "Your Trello token"},
			{Key: "boardId", Label: "Board ID", Type: FieldText, Placeholder: "Leave empty to create new board"},
		},
	},
	{
		ID: "github", Name: "GitHub", Category: CategoryDevelopment, RequiresAuth: true,
		Description:      "Create GitHub repository with issues and project board",
		SupportedExports: []ExportType{ExportRepository, ExportIssues, ExportRoadmap},
		ConfigFields: []ConfigField{
			{Key: "token", Label: "Personal Access Token", Type: FieldPassword, Required: true, Placeholder: "ghp_xxxxxxxxxxxx"},
			{Key: "owner", Label: "Repository Owner", Type: FieldText, Required: true, Placeholder: "username or organization"},
			{Key: "repo", Label: "Repository Name", Type: FieldText, Placeholder: "Leave empty to create new repo"},
		},
	},
	{
		ID: "notion", Name: "Notion", Category: CategoryDocumentation, RequiresAuth: true,
		Description:      "Export project plan as structured Notion pages",
		SupportedExports: []ExportType{ExportDocumentation, ExportTasks},
		ConfigFields: []ConfigField{
			{Key: "token", Label: "Integration Token", Type: FieldPassword, Required: true, Placeholder: "secret_xxxxxxxxxxxx"},
			{Key: "databaseId", Label: "Database ID", Type: FieldText, Placeholder: "Leave empty to create new database"},
		},
	},
	{
		ID: "slack", Name: "Slack", Category: CategoryCommunication, RequiresAuth: true,
		Description:      "Share project plan summary in Slack channels",
		SupportedExports: []ExportType{ExportRoadmap},
		ConfigFields: []ConfigField{
			{Key: "webhookUrl", Label: "Webhook URL", Type: FieldURL, Required: true, Placeholder: "https://hooks.slack.com/services/..."},
			{Key: "channel", Label: "Channel", Type: FieldText, Required: true, Placeholder: "#general"},
		},
	},
	{
		ID: "discord", Name: "Discord", Category: CategoryCommunication, RequiresAuth: true,
		Description:      "Share the project roadmap in a Discord channel",
		SupportedExports: []ExportType{ExportRoadmap},
		ConfigFields: []ConfigField{
			{Key: "webhookUrl", Label: "Webhook URL", Type: FieldURL, Required: true, Placeholder: "https://discord.com/api/webhooks/..."},
			{Key: "username", Label: "Bot Name", Type: FieldText, Placeholder: "PlanForge"},
		},
	},
}

// All returns a copy of the catalog.
func All() []Integration {
	out := make([]Integration, len(catalog))
	copy(out, catalog)
	return out
}

// ByID returns the integration with the given id.
func ByID(id string) (*Integration, bool) {
	for i := range catalog {
		if catalog[i].ID == id {
			it := catalog[i]
			return &it, true
		}
	}
	return nil, false
}

// ByCategory returns the integrations in category c.
func ByCategory(c Category) []Integration {
	var out []Integration
	for i := range catalog {
		if catalog[i].Category == c {
			out = append(out, catalog[i])
		}
	}
	return out
}

// ValidateConfig checks cfg against the integration's fields: required
// keys must be non-blank, URL fields must parse, unknown keys are
// rejected. Errors wrap domain.ErrValidation or domain.ErrNotFound.
func ValidateConfig(id string, cfg map[string]string) error {
	it, ok := ByID(id)
	if !ok {
		return fmt.Errorf("integration %q: %w", id, domain.ErrNotFound)
	}

	known := make(map[string]bool, len(it.ConfigFields))
	for _, f := range it.ConfigFields {
		known[f.Key] = true
		v := strings.TrimSpace(cfg[f.Key])
		if v == "" {
			if f.Required {
				return fmt.Errorf("%w: %s is required", domain.ErrValidation, f.Key)
			}
			continue
		}
		if f.Type == FieldURL {
			if err := domain.ValidateVar(f.Key, v, "http_url"); err != nil {
				return err
			}
		}
	}

	var unknown []string
	for k := range cfg {
		if !known[k] {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return fmt.Errorf("%w: unknown config fields: %s", domain.ErrValidation, strings.Join(unknown, ", "))
	}
	return nil
}

// Redact returns cfg with password fields masked, for logging.
func Redact(id string, cfg map[string]string) map[string]string {
	it, _ := ByID(id)
	secret := map[string]bool{}
	if it != nil {
		for _, f := range it.ConfigFields {
			if f.Type == FieldPassword || f.Type == FieldURL {
				secret[f.Key] = true
			}
		}
	}
	out := make(map[string]string, len(cfg))
	for k, v := range cfg {
		if secret[k] && v != "" {
			v = "***"
		}
		out[k] = v
	}
	return out
}
