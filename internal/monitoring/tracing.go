package monitoring

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/ritunjaym/vector-catalog-service"

// Tracer returns the gateway tracer. Without an installed SDK this is a
// no-op provider; exporter setup belongs to the deployment, not this repo.
func Tracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

// StartSpan opens a named span as a child of whatever is in ctx.
func StartSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return Tracer().Start(ctx, name)
}

// SetCorrelationID tags the active span with the request correlation id.
// A missing id is a no-op.
func SetCorrelationID(ctx context.Context, id string) {
	if id == "" {
		return
	}
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("correlation_id", id))
}

type correlationKey struct{}

// ContextWithCorrelationID stores the request correlation id for log and
// span enrichment downstream.
func ContextWithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationKey{}, id)
}

// CorrelationIDFromContext returns the stored correlation id, or "".
func CorrelationIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(correlationKey{}).(string)
	return id
}

// ContextLogger returns base enriched with the correlation id bound to
// ctx, or base unchanged when none is bound.
func ContextLogger(ctx context.Context, base *slog.Logger) *slog.Logger {
	if id := CorrelationIDFromContext(ctx); id != "" {
		return base.With("correlation_id", id)
	}
	return base
}
