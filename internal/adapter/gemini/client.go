// Package gemini implements the generator port against the Google Gemini
// generateContent REST API.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Strob0t/PlanForge/internal/port/generator"
	"github.com/Strob0t/PlanForge/internal/resilience"
)

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com"
	DefaultModel   = "gemini-1.5-flash-latest"

	maxResponseBytes = 4 << 20
)

// Config configures the Gemini client.
type Config struct {
	APIKey string
	// KeySource, when set, is consulted on every call instead of APIKey so
	// a reloaded credential takes effect without a restart.
	KeySource func() string
	BaseURL   string
	Model     string
	Timeout   time.Duration
}

// Client calls Gemini generateContent.
type Client struct {
	keySource  func() string
	baseURL    string
	model      string
	httpClient *http.Client
	breaker    *resilience.Breaker
}

var _ generator.Generator = (*Client)(nil)

// NewClient creates a Gemini client. An empty API key yields a client that
// reports itself unconfigured.
func NewClient(cfg Config) *Client {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		keySource:  keySource(cfg.APIKey, cfg.KeySource),
		baseURL:    base,
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// SetBreaker attaches a circuit breaker to outgoing calls.
func (c *Client) SetBreaker(b *resilience.Breaker) {
	c.breaker = b
}

// Name implements generator.Generator.
func (c *Client) Name() string { return "gemini" }

// Configured implements generator.Generator.
func (c *Client) Configured() bool { return c.keySource() != "" }

func keySource(static string, src func() string) func() string {
	if src != nil {
		return src
	}
	return func() string { return static }
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Parts []part `json:"parts"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	TopK            int     `json:"topK"`
	TopP            float64 `json:"topP"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
	ModelVersion string `json:"modelVersion"`
}

// Generate implements generator.Generator.
func (c *Client) Generate(ctx context.Context, prompt string, s generator.Sampling) (*generator.Response, error) {
	if !c.Configured() {
		return nil, generator.ErrNotConfigured
	}

	body, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
		GenerationConfig: generationConfig{
			Temperature:     s.Temperature,
			TopK:            s.TopK,
			TopP:            s.TopP,
			MaxOutputTokens: s.MaxOutputTokens,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal generate request: %w", err)
	}

	data, err := c.doRequest(ctx, body)
	if err != nil {
		return nil, err
	}

	var gr generateResponse
	if err := json.Unmarshal(data, &gr); err != nil {
		return nil, fmt.Errorf("unmarshal generate response: %w", err)
	}

	resp := &generator.Response{Model: gr.ModelVersion}
	for _, cand := range gr.Candidates {
		if len(cand.Content.Parts) == 0 {
			resp.Candidates = append(resp.Candidates, "")
			continue
		}
		resp.Candidates = append(resp.Candidates, cand.Content.Parts[0].Text)
	}
	return resp, nil
}

func (c *Client) endpoint() string {
	return fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		c.baseURL, url.PathEscape(c.model), url.QueryEscape(c.keySource()))
}

func (c *Client) doRequest(ctx context.Context, body []byte) ([]byte, error) {
	var result []byte
	call := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			// The key travels in the query string; keep it out of the error.
			return fmt.Errorf("gemini request: %w", redact(err))
		}
		defer func() { _ = resp.Body.Close() }()

		data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		if err != nil {
			return fmt.Errorf("read response: %w", err)
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return &generator.StatusError{Provider: "Gemini", StatusCode: resp.StatusCode, Body: string(data)}
		}
		result = data
		return nil
	}

	if c.breaker != nil {
		if err := c.breaker.Execute(call); err != nil {
			return nil, err
		}
		return result, nil
	}
	if err := call(); err != nil {
		return nil, err
	}
	return result, nil
}

// redact strips the request URL from transport errors.
func redact(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		return ue.Err
	}
	return err
}

var _ generator.ModelSource = (*Client)(nil)

// ModelsRequest implements generator.ModelSource. The key is sent as a
// header so it never appears in the URL.
func (c *Client) ModelsRequest() generator.ModelsRequest {
	return generator.ModelsRequest{
		URL:     c.baseURL + "/v1beta/models",
		Headers: map[string]string{"x-goog-api-key": c.keySource()},
	}
}
