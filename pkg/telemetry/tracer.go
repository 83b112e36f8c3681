package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/codeready-toolchain/meetingscribe"

// StartTaskSpan opens a span around one workflow task execution using the
// process-global OTEL TracerProvider. No exporter is configured here;
// deployment wires one in via the standard OTEL_EXPORTER_OTLP_* env vars
// (otel.SetTracerProvider), and in their absence the default provider's
// spans are simply dropped, so tracing is inert rather than broken when
// unconfigured.
func StartTaskSpan(ctx context.Context, taskType, taskName string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "workflow.task."+taskType,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("task.type", taskType),
			attribute.String("task.name", taskName),
		),
	)
}

// EndTaskSpan finalizes span, recording err on it when non-nil.
func EndTaskSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
