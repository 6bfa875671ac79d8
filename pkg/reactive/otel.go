package reactive

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Default tracer name for store spans.
const defaultTracerName = "reactive"

func defaultTracer() trace.Tracer {
	return otel.Tracer(defaultTracerName)
}

// startSpan opens a span for a store operation. The returned function ends
// it, recording err when non-nil.
func (s *Store) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, func(deps []string, err error)) {
	ctx, span := s.tracer.Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
	return ctx, func(deps []string, err error) {
		if deps != nil {
			span.SetAttributes(attribute.StringSlice("reactive.dependencies", deps))
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.End()
	}
}
