package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Strob0t/PlanForge/internal/port/generator"
)

// DefaultModelsTTL is how long a provider's model list is cached.
const DefaultModelsTTL = 5 * time.Minute

// ModelService lists the models the configured generator can serve.
type ModelService struct {
	gen     generator.Generator
	fetcher *Fetcher
	ttl     time.Duration
}

// NewModelService creates a ModelService.
func NewModelService(gen generator.Generator, fetcher *Fetcher, ttl time.Duration) *ModelService {
	if ttl <= 0 {
		ttl = DefaultModelsTTL
	}
	return &ModelService{gen: gen, fetcher: fetcher, ttl: ttl}
}

// modelList accepts both the Gemini and the OpenAI list shapes.
type modelList struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
	Data []struct {
		ID string `json:"id"`
	} `json:"data"`
}

// List returns sorted model names. It returns generator.ErrNotConfigured
// when the provider lacks credentials.
func (s *ModelService) List(ctx context.Context) ([]string, error) {
	src, ok := s.gen.(generator.ModelSource)
	if !ok {
		return nil, fmt.Errorf("%s does not list models", s.gen.Name())
	}
	if !s.gen.Configured() {
		return nil, generator.ErrNotConfigured
	}

	req := src.ModelsRequest()
	var list modelList
	if err := s.fetcher.FetchJSON(ctx, req.URL, FetchOptions{Headers: req.Headers}, s.ttl, &list); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(list.Models)+len(list.Data))
	for _, m := range list.Models {
		names = append(names, strings.TrimPrefix(m.Name, "models/"))
	}
	for _, m := range list.Data {
		names = append(names, m.ID)
	}
	sort.Strings(names)
	return names, nil
}
