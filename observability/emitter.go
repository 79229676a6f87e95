package observability

import "context"

// Emitter receives domain events from a running batch. Implementations must
// be non-blocking and safe for concurrent use — the Batch Engine calls Emit
// from every in-flight line's goroutine.
type Emitter interface {
	// Emit sends a single event. Must not block or panic.
	Emit(event Event)

	// EmitBatch sends multiple events in declaration order.
	EmitBatch(ctx context.Context, events []Event) error

	// Flush blocks until any buffered events are delivered.
	Flush(ctx context.Context) error
}
