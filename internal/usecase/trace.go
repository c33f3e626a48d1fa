package usecase

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var usecaseTracer = otel.Tracer("matchsync/internal/usecase")
var usecaseNoopSpan = trace.SpanFromContext(context.Background())

// startCycleSpan opens the root span of a cycle. Stage spans hang off it.
func startCycleSpan(ctx context.Context, game, runID string) (context.Context, trace.Span) {
	return usecaseTracer.Start(ctx, "usecase.CycleService.Run",
		trace.WithNewRoot(),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.String("game", game), attribute.String("run_id", runID)),
	)
}

// startUsecaseSpan only opens a child span when the caller is already traced.
func startUsecaseSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if strings.TrimSpace(name) == "" {
		return ctx, usecaseNoopSpan
	}
	if !trace.SpanFromContext(ctx).SpanContext().IsValid() {
		return ctx, usecaseNoopSpan
	}
	return usecaseTracer.Start(ctx, name, trace.WithAttributes(attrs...))
}
