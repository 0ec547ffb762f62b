// Package generator defines the port for the external text generation service.
package generator

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// ErrNotConfigured is returned by adapters that lack a credential.
var ErrNotConfigured = errors.New("generator: not configured")

// Sampling holds the decoding parameters sent with every request.
type Sampling struct {
	Temperature     float64 `yaml:"temperature" json:"temperature"`
	TopK            int     `yaml:"top_k" json:"topK"`
	TopP            float64 `yaml:"top_p" json:"topP"`
	MaxOutputTokens int     `yaml:"max_output_tokens" json:"maxOutputTokens"`
}

// DefaultSampling mirrors the values the plan prompt was tuned with.
func DefaultSampling() Sampling {
	return Sampling{Temperature: 0.7, TopK: 40, TopP: 0.95, MaxOutputTokens: 8192}
}

// Response is the raw generator output. Candidates may be empty.
type Response struct {
	Candidates []string
	Model      string
}

// First returns the first candidate, or "" when there is none.
func (r *Response) First() string {
	if r == nil || len(r.Candidates) == 0 {
		return ""
	}
	return r.Candidates[0]
}

// Generator produces text from a prompt.
type Generator interface {
	// Name identifies the provider, e.g. "gemini".
	Name() string

	// Configured reports whether the adapter holds the credentials it needs.
	// Callers check it before doing any other work.
	Configured() bool

	// Generate sends one prompt. Non-success HTTP answers are returned as
	// *StatusError; transport failures are returned wrapped.
	Generate(ctx context.Context, prompt string, sampling Sampling) (*Response, error)
}

// StatusError is a non-success answer from the upstream service.
type StatusError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s API error: %d %s", e.Provider, e.StatusCode, http.StatusText(e.StatusCode))
}

// StatusCode returns the upstream status carried by err, or 0.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return 0
}

// UpstreamFault reports whether err indicates an upstream fault rather than a
// bad request: transport failures, 429 and 5xx. Circuit breakers count only
// these.
func UpstreamFault(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	code := StatusCode(err)
	if code == 0 {
		return true
	}
	return code == http.StatusTooManyRequests || code >= 500
}

// ModelsRequest describes how to list the models a provider serves.
type ModelsRequest struct {
	URL     string
	Headers map[string]string
}

// ModelSource is implemented by generators that can list their models.
type ModelSource interface {
	ModelsRequest() ModelsRequest
}
