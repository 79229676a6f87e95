// Package dagcore implements the dependency-driven scheduler at the heart of
// flowdag: given a flow of nodes wired together with input bindings, it
// decides which nodes are ready, which must be bypassed, and how bypass
// propagates through downstream consumers.
package dagcore

// BindingKind discriminates the three ways a node input can be sourced.
type BindingKind int

const (
	// BindingLiteral carries a concrete value fixed at flow-load time.
	BindingLiteral BindingKind = iota
	// BindingFlowInput resolves against the current line's flow inputs.
	BindingFlowInput
	// BindingNodeRef resolves against a completed (or bypassed-with-return) node's output.
	BindingNodeRef
)

// Binding is a tagged union over Literal, FlowInputRef and NodeRef value
// sources, parsed once at flow-load time (see the loader package).
type Binding struct {
	Kind BindingKind

	// Literal is populated when Kind == BindingLiteral.
	Literal any

	// FlowInput is populated when Kind == BindingFlowInput.
	FlowInput string

	// NodeName and Path are populated when Kind == BindingNodeRef.
	// Path is the dotted-path segments to descend into the node's output;
	// empty means "the whole output".
	NodeName string
	Path     []string
}

// Lit builds a literal binding.
func Lit(v any) Binding {
	return Binding{Kind: BindingLiteral, Literal: v}
}

// FlowInputRef builds a binding that resolves against a declared flow input.
func FlowInputRef(name string) Binding {
	return Binding{Kind: BindingFlowInput, FlowInput: name}
}

// NodeRef builds a binding that resolves against a node's output, optionally
// descending a dotted path (e.g. NodeRef("classify", "label", "confidence")).
func NodeRef(name string, path ...string) Binding {
	return Binding{Kind: BindingNodeRef, NodeName: name, Path: path}
}

// IsNodeRef reports whether the binding participates in the NodeRef
// dependency graph used for readiness and cycle detection.
func (b Binding) IsNodeRef() bool {
	return b.Kind == BindingNodeRef
}
