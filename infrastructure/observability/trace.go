package observability

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation name used by the orchestrator.
const TracerName = "github.com/felixgeelhaar/vigil"

// DefaultTracer returns the orchestrator tracer from the global provider.
func DefaultTracer() trace.Tracer {
	return otel.Tracer(TracerName)
}

// EndSpan marks the span failed when err is non-nil and ends it.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
