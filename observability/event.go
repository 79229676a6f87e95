// Package observability provides event emission, diagnostic logging, and
// metrics for DAG execution: the domain event stream (Emitter) is distinct
// from the diagnostic logger, which never carries domain data.
package observability

// Event is one observability event emitted during a line or aggregation run.
type Event struct {
	// RunID identifies the batch run that produced this event.
	RunID string

	// LineIndex is the 0-based row index within the batch; -1 for
	// aggregation-level or batch-level events.
	LineIndex int

	// NodeName identifies which node emitted this event; empty for
	// line-level or batch-level events.
	NodeName string

	// Msg is a short event name; the batch engine emits "line finished" and
	// "input resolution failed".
	Msg string

	// Meta carries event-specific structured data (duration_ms, error, ...).
	Meta map[string]any
}
