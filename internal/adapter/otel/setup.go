// Package otel wires OpenTelemetry tracing and metrics for PlanForge.
package otel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Config controls exporter setup.
type Config struct {
	Enabled     bool
	Endpoint    string
	ServiceName string
	Insecure    bool
	SampleRate  float64
	Timeout     time.Duration
}

// ShutdownFunc flushes and shuts down the providers.
type ShutdownFunc func(ctx context.Context) error

func noopShutdown(context.Context) error { return nil }

// Setup installs global OTLP gRPC trace and metric providers. When disabled
// the global no-op providers stay in place and the returned shutdown does
// nothing.
func Setup(ctx context.Context, cfg Config) (ShutdownFunc, error) {
	if !cfg.Enabled || cfg.Endpoint == "" {
		slog.Debug("otel disabled")
		return noopShutdown, nil
	}

	res, err := resource.New(ctx, resource.WithAttributes(
		attribute.String("service.name", cfg.ServiceName),
	))
	if err != nil {
		return nil, fmt.Errorf("otel resource: %w", err)
	}

	traceOpts := []otlptracegrpc.Option{
		otlptracegrpc.WithEndpoint(cfg.Endpoint),
		otlptracegrpc.WithTimeout(cfg.Timeout),
	}
	metricOpts := []otlpmetricgrpc.Option{
		otlpmetricgrpc.WithEndpoint(cfg.Endpoint),
		otlpmetricgrpc.WithTimeout(cfg.Timeout),
	}
	if cfg.Insecure {
		creds := grpc.WithTransportCredentials(insecure.NewCredentials())
		traceOpts = append(traceOpts, otlptracegrpc.WithInsecure(), otlptracegrpc.WithDialOption(creds))
		metricOpts = append(metricOpts, otlpmetricgrpc.WithInsecure(), otlpmetricgrpc.WithDialOption(creds))
	}

	traceExp, err := otlptracegrpc.New(ctx, traceOpts...)
	if err != nil {
		return nil, fmt.Errorf("otel trace exporter: %w", err)
	}
	metricExp, err := otlpmetricgrpc.New(ctx, metricOpts...)
	if err != nil {
		_ = traceExp.Shutdown(ctx)
		return nil, fmt.Errorf("otel metric exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExp),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRate))),
	)
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExp)),
		sdkmetric.WithResource(res),
	)

	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{},
	))

	slog.Info("otel enabled", "endpoint", cfg.Endpoint, "sample_rate", cfg.SampleRate)

	return func(ctx context.Context) error {
		return errors.Join(tp.Shutdown(ctx), mp.Shutdown(ctx))
	}, nil
}
