package cmd

import (
	"context"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/dshills/flowdag/observability"
)

// buildTraceEmitter wires an observability.OTelEmitter against an in-process
// SDK TracerProvider when --trace is set. No exporter is attached here: a
// collector endpoint is a deployment concern, left to whoever wires the
// binary's environment (OTEL_EXPORTER_* env vars are read by the SDK's own
// auto-configuration once an exporter is added), so without one this is only
// useful for local span shape inspection via the provider's sampler.
//
// shutdown must be called after the batch finishes to flush any span
// processors before the process exits.
func buildTraceEmitter(traceEnabled bool) (emitter observability.Emitter, shutdown func(context.Context) error) {
	if !traceEnabled {
		return nil, func(context.Context) error { return nil }
	}
	tp := sdktrace.NewTracerProvider(sdktrace.WithSampler(sdktrace.AlwaysSample()))
	tracer := tp.Tracer("flowdag")
	return observability.NewOTelEmitter(tracer), tp.Shutdown
}
