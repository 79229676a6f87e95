package observability

import "context"

// NullEmitter discards every event. It is the default when no Emitter is
// configured, so library use never forces output.
type NullEmitter struct{}

// NewNullEmitter returns a NullEmitter.
func NewNullEmitter() *NullEmitter { return &NullEmitter{} }

func (n *NullEmitter) Emit(Event) {}

func (n *NullEmitter) EmitBatch(context.Context, []Event) error { return nil }

func (n *NullEmitter) Flush(context.Context) error { return nil }
