package dagcore

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// Resolve evaluates a binding against the current line's flow inputs and the
// run's completed-output map, consulting bypassed to distinguish "unknown
// reference" from "reference to a node bypassed without an output".
//
// completed and bypassed are plain maps, not Manager internals: callers
// normally go through Manager.resolveLocked, but Resolve is exported standalone
// because the Value Resolver is specified as an independent component.
func Resolve(b Binding, flowInputs map[string]any, completed map[string]any, bypassed map[string]struct{}) (any, error) {
	switch b.Kind {
	case BindingLiteral:
		return b.Literal, nil

	case BindingFlowInput:
		v, ok := flowInputs[b.FlowInput]
		if !ok {
			return nil, &FlowError{
				Code:    "INVALID_REFERENCE",
				Message: fmt.Sprintf("flow input %q is not declared", b.FlowInput),
				Cause:   ErrInvalidReference,
			}
		}
		return v, nil

	case BindingNodeRef:
		out, ok := completed[b.NodeName]
		if !ok {
			if _, isBypassed := bypassed[b.NodeName]; isBypassed {
				return nil, &NodeError{
					Code:     "REFERENCE_NODE_BYPASSED",
					NodeName: b.NodeName,
					Message:  fmt.Sprintf("node %q is bypassed and has no recorded output", b.NodeName),
					Cause:    ErrReferenceNodeBypassed,
				}
			}
			return nil, &FlowError{
				Code:    "INVALID_REFERENCE",
				Message: fmt.Sprintf("node %q has not produced an output", b.NodeName),
				Cause:   ErrInvalidReference,
			}
		}
		if len(b.Path) == 0 {
			return out, nil
		}
		return descend(out, b.Path)

	default:
		return nil, &FlowError{Code: "INVALID_REFERENCE", Message: fmt.Sprintf("unknown binding kind %d", b.Kind), Cause: ErrInvalidReference}
	}
}

// descend walks a dotted path into a node's output. Outputs are arbitrary
// Go values produced by node callables (maps, slices, scalars); rather than
// hand-roll a reflective walker, the value is round-tripped through JSON and
// the path resolved with gjson, whose path syntax is the one sjson uses for
// the batch package's multimedia descriptor rewriting.
func descend(v any, path []string) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, &FlowError{
			Code:    "INVALID_REFERENCE",
			Message: fmt.Sprintf("output is not representable as JSON: %v", err),
			Cause:   ErrInvalidReference,
		}
	}
	query := strings.Join(path, ".")
	result := gjson.GetBytes(data, query)
	if !result.Exists() {
		return nil, &FlowError{
			Code:    "INVALID_REFERENCE",
			Message: fmt.Sprintf("path %q not found in output", query),
			Cause:   ErrInvalidReference,
		}
	}
	return result.Value(), nil
}
