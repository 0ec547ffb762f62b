// Package litellm implements the generator port against a LiteLLM proxy
// (OpenAI compatible chat completions).
package litellm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Strob0t/PlanForge/internal/port/generator"
	"github.com/Strob0t/PlanForge/internal/resilience"
)

const maxResponseBytes = 4 << 20

// Config configures the LiteLLM client.
type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// Client talks to the LiteLLM proxy.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	breaker    *resilience.Breaker
}

var _ generator.Generator = (*Client)(nil)

// NewClient creates a LiteLLM client.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// SetBreaker attaches a circuit breaker to all outgoing HTTP calls.
func (c *Client) SetBreaker(b *resilience.Breaker) {
	c.breaker = b
}

// Name implements generator.Generator.
func (c *Client) Name() string { return "litellm" }

// Configured implements generator.Generator. The proxy holds provider keys
// itself, so a base URL and model are enough.
func (c *Client) Configured() bool { return c.baseURL != "" && c.model != "" }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	TopP        float64       `json:"top_p"`
	TopK        int           `json:"top_k,omitempty"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Generate implements generator.Generator.
func (c *Client) Generate(ctx context.Context, prompt string, s generator.Sampling) (*generator.Response, error) {
	if !c.Configured() {
		return nil, generator.ErrNotConfigured
	}

	body, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: s.Temperature,
		TopP:        s.TopP,
		TopK:        s.TopK,
		MaxTokens:   s.MaxOutputTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal chat request: %w", err)
	}

	data, err := c.doRequest(ctx, http.MethodPost, "/v1/chat/completions", body)
	if err != nil {
		return nil, err
	}

	var cr chatResponse
	if err := json.Unmarshal(data, &cr); err != nil {
		return nil, fmt.Errorf("unmarshal chat response: %w", err)
	}
	resp := &generator.Response{Model: cr.Model}
	for _, ch := range cr.Choices {
		resp.Candidates = append(resp.Candidates, ch.Message.Content)
	}
	return resp, nil
}

// Health checks the proxy liveness endpoint.
func (c *Client) Health(ctx context.Context) (bool, error) {
	_, err := c.doRequest(ctx, http.MethodGet, "/health/liveliness", nil)
	return err == nil, err
}

func (c *Client) doRequest(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	var result []byte
	call := func() error {
		var bodyReader io.Reader
		if body != nil {
			bodyReader = bytes.NewReader(body)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}

		req.Header.Set("Content-Type", "application/json")
		if c.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.apiKey)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("http request: %w", err)
		}
		defer func() { _ = resp.Body.Close() }()

		data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		if err != nil {
			return fmt.Errorf("read response: %w", err)
		}

		if resp.StatusCode >= 400 {
			return &generator.StatusError{Provider: "LiteLLM", StatusCode: resp.StatusCode, Body: string(data)}
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

var _ generator.ModelSource = (*Client)(nil)

// ModelsRequest implements generator.ModelSource.
func (c *Client) ModelsRequest() generator.ModelsRequest {
	headers := map[string]string{}
	if c.apiKey != "" {
		headers["Authorization"] = "Bearer " + c.apiKey
	}
	return generator.ModelsRequest{URL: c.baseURL + "/v1/models", Headers: headers}
}
