// Package trace wires OpenTelemetry spans around the trading cycles.
// Spans print to stderr through the stdout exporter. When tracing is
// off every helper degrades to a no-op against the ambient context.
package trace

import (
	"context"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

const instrumentation = "quant-trading-bot"

var (
	tracer   trace.Tracer
	provider *sdktrace.TracerProvider
)

// Init installs the global tracer provider. Set TRACING_ENABLED=false
// to leave tracing off entirely.
func Init() error {
	if v := os.Getenv("TRACING_ENABLED"); v == "false" || v == "0" {
		return nil
	}

	exporter, err := stdouttrace.New(
		stdouttrace.WithWriter(os.Stderr),
		stdouttrace.WithPrettyPrint(),
	)
	if err != nil {
		return err
	}

	res, err := resource.New(context.Background(), resource.WithAttributes(
		semconv.ServiceName(instrumentation),
		semconv.ServiceVersion("1.0.0"),
	))
	if err != nil {
		return err
	}

	provider = sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(provider)
	tracer = provider.Tracer(instrumentation)
	return nil
}

// Shutdown flushes buffered spans. Safe to call when Init never ran.
func Shutdown(ctx context.Context) error {
	if provider == nil {
		return nil
	}
	return provider.Shutdown(ctx)
}

// StartSpan opens a child span when tracing is active. Otherwise it
// hands back whatever span already rides the context.
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	if tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return tracer.Start(ctx, name, opts...)
}

// GetTraceFields returns the active trace and span IDs for log
// correlation, with ok false when no recording span is present.
func GetTraceFields(ctx context.Context) (traceID, spanID string, ok bool) {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if !sc.IsValid() {
		return "", "", false
	}
	return sc.TraceID().String(), sc.SpanID().String(), true
}
