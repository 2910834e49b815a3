// Package tracing wires the process-wide OpenTelemetry tracer used for
// per-stage span instrumentation (spec §4.8 "Stats include per-stage
// durations"), following the teacher's internal/tracing package. Unlike the
// teacher, no OTLP/gRPC exporter is wired: spans are emitted to stdout,
// which is enough to observe stage timing without an external collector.
package tracing

import (
	"context"
	"log"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

const ServiceName = "kgsearch"

// Tracer bundles the shutdown hook the caller must run on process exit.
type Tracer struct {
	Cleanup func(context.Context) error
}

// Init installs the global TracerProvider. Called once at startup by
// internal/container's wiring.
func Init() (*Tracer, error) {
	res := resource.NewWithAttributes(semconv.SchemaURL,
		semconv.TelemetrySDKLanguageGo,
		semconv.ServiceNameKey.String(ServiceName),
		attribute.String("component", "search-core"),
	)

	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(exporter),
	)
	otel.SetTracerProvider(tp)

	return &Tracer{
		Cleanup: func(ctx context.Context) error {
			ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			if err := tp.Shutdown(ctx); err != nil {
				log.Printf("error shutting down tracer provider: %v", err)
				return err
			}
			return nil
		},
	}, nil
}
