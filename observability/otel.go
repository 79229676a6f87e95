package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// OTelEmitter turns each domain event into a point-in-time OpenTelemetry
// span, so node dispatch across a batch shows up in a trace backend without
// the core ever importing a tracing SDK directly.
type OTelEmitter struct {
	tracer trace.Tracer
}

// NewOTelEmitter builds an OTelEmitter from a tracer obtained via
// otel.Tracer("flowdag").
func NewOTelEmitter(tracer trace.Tracer) *OTelEmitter {
	return &OTelEmitter{tracer: tracer}
}

func (o *OTelEmitter) Emit(event Event) {
	_, span := o.tracer.Start(context.Background(), event.Msg)
	defer span.End()
	o.annotate(span, event)
}

func (o *OTelEmitter) EmitBatch(ctx context.Context, events []Event) error {
	for _, event := range events {
		_, span := o.tracer.Start(ctx, event.Msg)
		o.annotate(span, event)
		span.End()
	}
	return nil
}

func (o *OTelEmitter) annotate(span trace.Span, event Event) {
	span.SetAttributes(
		attribute.String("run_id", event.RunID),
		attribute.Int("line_index", event.LineIndex),
		attribute.String("node_name", event.NodeName),
	)
	for k, v := range event.Meta {
		span.SetAttributes(attribute.String(k, fmt.Sprintf("%v", v)))
	}
	if errMsg, ok := event.Meta["error"].(string); ok {
		span.SetStatus(codes.Error, errMsg)
		span.RecordError(fmt.Errorf("%s", errMsg))
	}
}

// Flush has nothing to do beyond what the configured span processor already
// handles on its own schedule; callers wanting a synchronous export should
// call ForceFlush on the underlying TracerProvider directly.
func (o *OTelEmitter) Flush(context.Context) error { return nil }
