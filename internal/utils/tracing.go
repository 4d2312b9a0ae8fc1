package utils

import (
	"context"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// LogExporter writes finished spans to a logger at debug level
type LogExporter struct {
	logger zerolog.Logger
}

// ExportSpans implements sdktrace.SpanExporter
func (e *LogExporter) ExportSpans(ctx context.Context, spans []sdktrace.ReadOnlySpan) error {
	for _, span := range spans {
		event := e.logger.Debug().
			Str("span", span.Name()).
			Str("trace_id", span.SpanContext().TraceID().String()).
			Dur("duration", span.EndTime().Sub(span.StartTime()))
		for _, kv := range span.Attributes() {
			event = event.Str(string(kv.Key), kv.Value.Emit())
		}
		if span.Status().Code == codes.Error {
			event = event.Str("error", span.Status().Description)
		}
		event.Msg("Span finished")
	}
	return nil
}

// Shutdown implements sdktrace.SpanExporter
func (e *LogExporter) Shutdown(ctx context.Context) error {
	return nil
}

// NewTracerProvider creates a tracer provider exporting spans to logger
func NewTracerProvider(logger zerolog.Logger) *sdktrace.TracerProvider {
	return sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(&LogExporter{logger: logger}),
		sdktrace.WithResource(resource.NewSchemaless(
			attribute.String("service.name", "reelwatch"),
		)),
	)
}
