// Package generation holds the pure parts of plan generation: request
// validation, prompt assembly and extraction of JSON from model output.
package generation

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Text is an optional string field whose JSON presence is explicit.
// Decoding never fails on a wrong shape; Malformed records it instead so the
// validator can report it.
type Text struct {
	Value     string
	Present   bool
	Malformed bool
}

// NewText returns a present Text.
func NewText(s string) Text { return Text{Value: s, Present: true} }

// Set reports whether the field carries a non-blank value.
func (t Text) Set() bool { return t.Present && !t.Malformed && strings.TrimSpace(t.Value) != "" }

// UnmarshalJSON implements json.Unmarshaler.
func (t *Text) UnmarshalJSON(data []byte) error {
	*t = Text{}
	if isNull(data) {
		return nil
	}
	t.Present = true
	if err := json.Unmarshal(data, &t.Value); err != nil {
		t.Malformed = true
		t.Value = ""
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (t Text) MarshalJSON() ([]byte, error) {
	if !t.Present || t.Malformed {
		return []byte("null"), nil
	}
	return json.Marshal(t.Value)
}

// List is an optional list-of-strings field whose JSON presence is explicit.
type List struct {
	Values    []string
	Present   bool
	Malformed bool
}

// NewList returns a present List.
func NewList(values ...string) List { return List{Values: values, Present: true} }

// Set reports whether the field carries at least one value.
func (l List) Set() bool { return l.Present && !l.Malformed && len(l.Values) > 0 }

// UnmarshalJSON implements json.Unmarshaler.
func (l *List) UnmarshalJSON(data []byte) error {
	*l = List{}
	if isNull(data) {
		return nil
	}
	l.Present = true
	if err := json.Unmarshal(data, &l.Values); err != nil {
		l.Malformed = true
		l.Values = nil
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (l List) MarshalJSON() ([]byte, error) {
	if !l.Present || l.Malformed {
		return []byte("null"), nil
	}
	if l.Values == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l.Values)
}

func isNull(data []byte) bool {
	return bytes.Equal(bytes.TrimSpace(data), []byte("null"))
}

// Context is the optional structured context attached to a request.
type Context struct {
	ProjectType             Text `json:"projectType,omitzero"`
	TargetAudience          Text `json:"targetAudience,omitzero"`
	Budget                  Text `json:"budget,omitzero"`
	Timeline                Text `json:"timeline,omitzero"`
	TeamSize                Text `json:"teamSize,omitzero"`
	Constraints             List `json:"constraints,omitzero"`
	BusinessGoals           List `json:"businessGoals,omitzero"`
	IntegrationRequirements List `json:"integrationRequirements,omitzero"`
	AdditionalContext       Text `json:"additionalContext,omitzero"`
}

// Request asks for one plan to be generated.
type Request struct {
	Idea       Text     `json:"idea"`
	TemplateID Text     `json:"templateId,omitzero"`
	Context    *Context `json:"context,omitempty"`

	// ContextMalformed is set when "context" was present but not an object.
	ContextMalformed bool `json:"-"`
}

// UnmarshalJSON decodes a request, tolerating a wrongly shaped context so the
// validator can report it with the other field errors.
func (r *Request) UnmarshalJSON(data []byte) error {
	var raw struct {
		Idea       Text            `json:"idea"`
		TemplateID Text            `json:"templateId"`
		Context    json.RawMessage `json:"context"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*r = Request{Idea: raw.Idea, TemplateID: raw.TemplateID}
	if len(raw.Context) == 0 || isNull(raw.Context) {
		return nil
	}
	var c Context
	if err := json.Unmarshal(raw.Context, &c); err != nil {
		r.ContextMalformed = true
		return nil
	}
	r.Context = &c
	return nil
}

// NewRequest builds a well-formed request for callers that already hold
// typed values (CLI, MCP).
func NewRequest(idea, templateID string, ctx *Context) Request {
	r := Request{Idea: NewText(idea), Context: ctx}
	if templateID != "" {
		r.TemplateID = NewText(templateID)
	}
	return r
}

// TrimmedIdea returns the idea without surrounding whitespace.
func (r *Request) TrimmedIdea() string {
	return strings.TrimSpace(r.Idea.Value)
}
