package generation

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	MinIdeaLength = 10
	MaxIdeaLength = 1000
)

// prohibitedTerms are matched case-insensitively as substrings of the idea.
var prohibitedTerms = []string{"hack", "exploit", "malware", "virus", "illegal", "fraud"}

// ValidationResult is the outcome of Validate. Error is empty when Valid.
type ValidationResult struct {
	Valid  bool
	Reason Reason
	Error  string
}

func invalid(reason Reason, msg string) ValidationResult {
	return ValidationResult{Reason: reason, Error: msg}
}

// Validate checks a generation request. The first failing check wins.
func Validate(req Request) ValidationResult {
	idea := req.Idea
	if !idea.Present || idea.Malformed || idea.Value == "" {
		return invalid(ReasonMissingIdea, "Project idea is required and must be a string")
	}
	trimmed := strings.TrimSpace(idea.Value)
	if trimmed == "" {
		return invalid(ReasonMissingIdea, "Project idea cannot be empty")
	}

	n := utf8.RuneCountInString(trimmed)
	if n < MinIdeaLength {
		return invalid(ReasonTooShort, "Project idea must be at least 10 characters long")
	}
	if n > MaxIdeaLength {
		return invalid(ReasonTooLong, "Project idea must be less than 1000 characters")
	}

	lower := strings.ToLower(trimmed)
	for _, term := range prohibitedTerms {
		if strings.Contains(lower, term) {
			return invalid(ReasonProhibitedContent, "Project idea contains inappropriate content")
		}
	}

	if req.TemplateID.Malformed {
		return invalid(ReasonInvalidContextField, "Template ID must be a string")
	}
	if req.ContextMalformed {
		return invalid(ReasonInvalidContextField, "Context must be an object")
	}
	if req.Context != nil {
		if msg := checkContext(req.Context); msg != "" {
			return invalid(ReasonInvalidContextField, msg)
		}
	}
	return ValidationResult{Valid: true}
}

func checkContext(c *Context) string {
	fields := []struct {
		malformed bool
		msg       string
	}{
		{c.ProjectType.Malformed, "Project type must be a string"},
		{c.Constraints.Malformed, "Constraints must be an array"},
		{c.TargetAudience.Malformed, "Target audience must be a string"},
		{c.Budget.Malformed, "Budget must be a string"},
		{c.Timeline.Malformed, "Timeline must be a string"},
		{c.TeamSize.Malformed, "Team size must be a string"},
		{c.BusinessGoals.Malformed, "Business goals must be an array"},
		{c.IntegrationRequirements.Malformed, "Integration requirements must be an array"},
		{c.AdditionalContext.Malformed, "Additional context must be a string"},
	}
	for _, f := range fields {
		if f.malformed {
			return f.msg
		}
	}
	return ""
}

var (
	scriptScheme  = regexp.MustCompile(`(?i)javascript:`)
	eventHandlers = regexp.MustCompile(`(?i)on\w+=`)
)

// SanitizeInput removes angle brackets, javascript: schemes and inline event
// handler fragments from user supplied text, then trims it.
func SanitizeInput(s string) string {
	s = strings.NewReplacer("<", "", ">", "").Replace(s)
	s = scriptScheme.ReplaceAllString(s, "")
	s = eventHandlers.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}
