// internal/telemetry/tracer.go
// Package telemetry configures the OpenTelemetry tracer for the service.
// Spans are exported to stdout; production deployments swap the exporter
// by replacing InitTracer.
package telemetry

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/semconv/v1.26.0"
)

const serviceVersion = "0.1.0"

var tracerProvider *sdktrace.TracerProvider

// InitTracer installs a global tracer provider for the named service. Spans
// are pretty-printed only outside production to keep log volume down.
func InitTracer(serviceName, env string) (*sdktrace.TracerProvider, error) {
	var opts []stdouttrace.Option
	if env != "prod" {
		opts = append(opts, stdouttrace.WithPrettyPrint())
	}
	exporter, err := stdouttrace.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create trace exporter: %w", err)
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(serviceVersion),
			semconv.DeploymentEnvironment(env),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("build trace resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	tracerProvider = tp
	return tp, nil
}

// ShutdownTracer flushes buffered spans and stops the provider.
func ShutdownTracer(ctx context.Context) {
	if tracerProvider == nil {
		return
	}
	if err := tracerProvider.Shutdown(ctx); err != nil {
		slog.Error("tracer shutdown failed", "error", err)
	}
}
