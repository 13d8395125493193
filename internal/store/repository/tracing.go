package repository

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tair/hiking-store/internal/store/domain"
)

var tracer = otel.Tracer("store-repository")

// startSpan opens a client span for a single backend call
func startSpan(ctx context.Context, name, system string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs, attribute.String("db.system", system))
	return tracer.Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...),
	)
}

// endSpan records err on span (if any) and ends it. Expected outcomes such
// as a missing search index are not marked as span errors.
func endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, domain.ErrIndexNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func categoryAttrs(categories []domain.Category) attribute.KeyValue {
	names := make([]string, len(categories))
	for i, c := range categories {
		names[i] = string(c)
	}
	return attribute.StringSlice("store.categories", names)
}
