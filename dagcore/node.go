package dagcore

import (
	"context"
	"fmt"
)

// ParamSpec describes one parameter of a node's callable signature.
type ParamSpec struct {
	Name       string
	HasDefault bool
}

// Signature is the load-time-only metadata get_valid_inputs needs to decide
// whether a bypassed-without-output dependency can be omitted (default wins)
// or must be passed as nil. It deliberately carries no reflection over an
// actual function value.
type Signature struct {
	Params []ParamSpec
}

// HasDefault reports whether the named parameter has a default value.
// Unknown parameters report false.
func (s Signature) HasDefault(name string) bool {
	for _, p := range s.Params {
		if p.Name == name {
			return p.HasDefault
		}
	}
	return false
}

// SkipSpec is a node's optional skip clause: when Condition resolves to
// ConditionValue, the node is bypassed and ReturnValue is recorded as its
// output instead of running the node's callable.
type SkipSpec struct {
	Condition      Binding
	ConditionValue any
	ReturnValue    Binding
}

// ActivateSpec is a node's optional activate clause: the node only runs when
// Condition resolves to ConditionValue.
type ActivateSpec struct {
	Condition      Binding
	ConditionValue any
}

// Node is an immutable flow node. Nodes are built once by the loader and
// never mutated afterward; all run-scoped mutable state lives in Manager.
type Node struct {
	Name string

	// Inputs maps parameter name to its binding. InputOrder preserves the
	// declared parameter order for invocation even though scheduling does
	// not depend on it.
	Inputs     map[string]Binding
	InputOrder []string

	// Skip and Activate are mutually exclusive (enforced by the loader).
	Skip     *SkipSpec
	Activate *ActivateSpec

	IsAggregation bool
	Signature     Signature
}

// Callable is the minimal contract the scheduler needs from a node's actual
// implementation. Concrete adapters (pure functions, HTTP tools, LLM chat
// models) live in the callable package and are resolved through a Registry
// at dispatch time, keeping Node itself free of any execution concern.
type Callable interface {
	Signature() Signature
	Invoke(ctx context.Context, params map[string]any) (any, error)
}

// Registry resolves a node name to the Callable that implements it.
type Registry interface {
	Resolve(nodeName string) (Callable, error)
}

// MapRegistry is the simplest Registry: a fixed name-to-Callable map.
type MapRegistry map[string]Callable

// Resolve implements Registry.
func (r MapRegistry) Resolve(name string) (Callable, error) {
	c, ok := r[name]
	if !ok {
		return nil, &FlowError{Code: "MISSING_CALLABLE", Message: fmt.Sprintf("no callable registered for node %q", name)}
	}
	return c, nil
}
