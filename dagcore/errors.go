package dagcore

import (
	"errors"
	"fmt"
)

// Sentinel errors matching the fixed taxonomy of the error model. Callers
// should match with errors.Is: the FlowError/NodeError values raised for
// these conditions carry one of them as Cause.
var (
	// ErrInvalidReference is raised when a binding refers to an unknown
	// node, flow input, or output path.
	ErrInvalidReference = errors.New("invalid reference")

	// ErrReferenceNodeBypassed is raised when a skip.return_value (or any
	// other resolved binding) points at a node that was bypassed without
	// recording an output.
	ErrReferenceNodeBypassed = errors.New("reference node bypassed")

	// ErrNoProgress is raised when pending nodes remain but none are ready
	// or bypassable — a stuck graph, which should never happen for an
	// acyclic, loader-validated flow, but is guarded against defensively.
	ErrNoProgress = errors.New("no progress: no runnable nodes remain pending")

	// ErrCanceled is raised when a line or batch is canceled before completion.
	ErrCanceled = errors.New("canceled")

	// ErrCompletionConflict is raised when Complete is called twice for the
	// same node with differing outputs.
	ErrCompletionConflict = errors.New("node already completed with a different output")
)

// FlowError reports a failure that is not attributable to a single node's
// callable: load-time validation failures and reference resolution
// failures. A scheduler-level stall is reported as a NodeError with code
// NO_PROGRESS.
type FlowError struct {
	Code    string
	Message string
	Cause   error
}

func (e *FlowError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Message
}

// Unwrap supports errors.Is/errors.As against the sentinel errors above.
func (e *FlowError) Unwrap() error { return e.Cause }

// NodeError reports a failure attributable to a specific node: its callable
// raised, its skip/activate machinery hit a bypassed reference, or its
// completion conflicted with a prior value.
type NodeError struct {
	Code     string
	Message  string
	NodeName string
	Cause    error
}

func (e *NodeError) Error() string {
	if e.NodeName != "" {
		return fmt.Sprintf("node %s: %s", e.NodeName, e.Message)
	}
	return e.Message
}

// Unwrap supports errors.Is/errors.As against the sentinel errors above.
func (e *NodeError) Unwrap() error { return e.Cause }

// asNodeError normalizes an arbitrary error into a *NodeError for a given
// node, preserving an existing *NodeError/*FlowError's code where possible.
func asNodeError(nodeName string, err error) *NodeError {
	var ne *NodeError
	if errors.As(err, &ne) {
		if ne.NodeName == "" {
			ne.NodeName = nodeName
		}
		return ne
	}
	var fe *FlowError
	if errors.As(err, &fe) {
		return &NodeError{Code: fe.Code, Message: fe.Message, NodeName: nodeName, Cause: fe.Cause}
	}
	return &NodeError{Code: "NODE_EXECUTION_ERROR", Message: err.Error(), NodeName: nodeName, Cause: err}
}
