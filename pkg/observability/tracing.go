// Package observability provides OpenTelemetry tracing for rowmap materializations
package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/ajitpratap0/rowmap"

// Attribute keys recorded on materialization spans.
const (
	AttrReader  = attribute.Key("rowmap.reader")
	AttrArity   = attribute.Key("rowmap.arity")
	AttrRows    = attribute.Key("rowmap.rows")
	AttrOutcome = attribute.Key("rowmap.outcome")
)

// Tracer returns the rowmap tracer from the global provider. It is looked up
// on every call so providers installed after package init are honoured.
func Tracer() trace.Tracer {
	return otel.Tracer(instrumentationName)
}

// Span wraps one materialization span
type Span struct {
	span trace.Span
}

// StartMaterialize opens a span for reading reader with the given arity.
func StartMaterialize(ctx context.Context, reader string, arity int) (context.Context, *Span) {
	ctx, span := Tracer().Start(ctx, "rowmap.materialize",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(AttrReader.String(reader), AttrArity.Int(arity)),
	)
	return ctx, &Span{span: span}
}

// End records the result and ends the span. Cancellation is not an error
// status; it is reported through the outcome attribute only.
func (s *Span) End(rows int, outcome string, err error, cancelled bool) {
	s.span.SetAttributes(AttrRows.Int(rows), AttrOutcome.String(outcome))
	switch {
	case err != nil && !cancelled:
		s.span.RecordError(err)
		s.span.SetStatus(codes.Error, err.Error())
	default:
		s.span.SetStatus(codes.Ok, "")
	}
	s.span.End()
}
