package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "planforge"

// StartGenerationSpan starts a span covering one plan generation.
func StartGenerationSpan(ctx context.Context, provider, templateID string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "plan.generate",
		trace.WithAttributes(
			attribute.String("generator.provider", provider),
			attribute.String("plan.template_id", templateID),
		),
	)
}

// StartExportSpan starts a span for rendering a plan export.
func StartExportSpan(ctx context.Context, planID, format string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "plan.export",
		trace.WithAttributes(
			attribute.String("plan.id", planID),
			attribute.String("export.format", format),
		),
	)
}

// StartIntegrationSpan starts a span for pushing a plan to an integration.
func StartIntegrationSpan(ctx context.Context, planID, integrationID, exportType string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "plan.integration",
		trace.WithAttributes(
			attribute.String("plan.id", planID),
			attribute.String("integration.id", integrationID),
			attribute.String("integration.export_type", exportType),
		),
	)
}

// EndSpan records err on span, if any, and ends it.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
