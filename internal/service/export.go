package service

import (
	"context"
	"fmt"

	cfotel "github.com/Strob0t/PlanForge/internal/adapter/otel"
	"github.com/Strob0t/PlanForge/internal/domain"
	"github.com/Strob0t/PlanForge/internal/domain/export"
)

// Export renders a saved plan as a downloadable document. Unknown formats
// are validation errors.
func (s *PlanService) Export(ctx context.Context, id, ownerID string, format export.Format, includeMetadata bool) (*export.Document, error) {
	if !supportedFormat(format) {
		return nil, fmt.Errorf("%w: %w", domain.ErrValidation, &export.ErrUnsupportedFormat{Format: string(format)})
	}

	p, err := s.Get(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}

	_, span := cfotel.StartExportSpan(ctx, id, string(format))
	doc, err := export.Render(p, format, includeMetadata)
	cfotel.EndSpan(span, err)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", format, err)
	}
	return doc, nil
}

func supportedFormat(f export.Format) bool {
	for _, known := range export.Formats() {
		if f == known {
			return true
		}
	}
	return false
}
