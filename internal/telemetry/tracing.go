package telemetry

import (
	"context"
	"os"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

var tracer trace.Tracer = otel.Tracer("nbody")

// InitTracing sets up an OTel tracer provider for this rank. Tracing is a
// no-op (default, always-sample-zero provider) unless OTEL_ENABLED=true,
// the way reddit-cluster-map/backend/internal/tracing gates its exporter.
// No span exporter is registered, so spans are sampled and ended in-process
// but not sent to a trace backend.
func InitTracing(serviceName string) (shutdown func(context.Context) error, err error) {
	if os.Getenv("OTEL_ENABLED") != "true" {
		return func(context.Context) error { return nil }, nil
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	otel.SetTracerProvider(tp)
	tracer = tp.Tracer(serviceName)

	return tp.Shutdown, nil
}

// StartSpan starts a span for one phase of one simulation step. The
// Simulator's Step, its tree build, local force pass, ring exchange and
// gather phases, and every ring round are traced this way; integration is
// not.
func StartSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return tracer.Start(ctx, name)
}
