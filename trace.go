package xsqlgraph

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/go-mizu/xsqlgraph"

// startSpan opens a span on the global tracer provider. Without an
// installed provider the span is a no-op.
func startSpan(ctx context.Context, name string, l *Layout) (context.Context, trace.Span) {
	ctx, span := otel.Tracer(instrumentationName).Start(ctx, name, trace.WithSpanKind(trace.SpanKindClient))
	span.SetAttributes(attribute.String("xsqlgraph.split_on", l.splitOn()))
	return ctx, span
}

func recordAssembly(span trace.Span, res *assembly) {
	span.SetAttributes(
		attribute.Int("xsqlgraph.positions", res.positions),
		attribute.Int("xsqlgraph.rows", res.rows),
		attribute.Int("xsqlgraph.instances", res.instances),
		attribute.Int("xsqlgraph.roots", len(res.roots)),
	)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
