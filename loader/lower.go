package loader

import (
	"sort"

	"github.com/dshills/flowdag/dagcore"
)

// lower converts a parsed document into an immutable dagcore.Flow, parsing
// every binding string exactly once.
func lower(doc *document) (*dagcore.Flow, error) {
	nodes := make([]*dagcore.Node, 0, len(doc.Nodes))
	for _, nd := range doc.Nodes {
		node, err := lowerNode(nd)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}

	if err := validateStructure(nodes); err != nil {
		return nil, err
	}

	declaredOutputs := make(map[string]dagcore.Binding, len(doc.Outputs))
	declaredOutputOrder := make([]string, 0, len(doc.Outputs))
	for name := range doc.Outputs {
		declaredOutputOrder = append(declaredOutputOrder, name)
	}
	sort.Strings(declaredOutputOrder)
	for _, name := range declaredOutputOrder {
		b, err := parseBinding(doc.Outputs[name])
		if err != nil {
			return nil, err
		}
		declaredOutputs[name] = b
	}

	declaredInputs := make(map[string]dagcore.InputType, len(doc.Inputs))
	for name, in := range doc.Inputs {
		declaredInputs[name] = dagcore.InputType{Name: name, Type: in.Type, Required: in.Required}
	}

	return dagcore.NewFlow(nodes, declaredOutputs, declaredOutputOrder, declaredInputs), nil
}

func lowerNode(nd nodeDoc) (*dagcore.Node, error) {
	if nd.Name == "" {
		return nil, &dagcore.FlowError{Code: "INVALID_NODE", Message: "node missing name"}
	}

	inputOrder := make([]string, 0, len(nd.Inputs))
	for name := range nd.Inputs {
		inputOrder = append(inputOrder, name)
	}
	sort.Strings(inputOrder)

	inputs := make(map[string]dagcore.Binding, len(nd.Inputs))
	for _, name := range inputOrder {
		b, err := parseInputBinding(nd.Inputs[name])
		if err != nil {
			return nil, err
		}
		inputs[name] = b
	}

	hasDefault := make(map[string]bool, len(nd.Defaults))
	for _, name := range nd.Defaults {
		hasDefault[name] = true
	}
	params := make([]dagcore.ParamSpec, len(inputOrder))
	for i, name := range inputOrder {
		params[i] = dagcore.ParamSpec{Name: name, HasDefault: hasDefault[name]}
	}

	node := &dagcore.Node{
		Name:          nd.Name,
		Inputs:        inputs,
		InputOrder:    inputOrder,
		IsAggregation: nd.Aggregation,
		Signature:     dagcore.Signature{Params: params},
	}

	if nd.Skip != nil {
		condition, err := parseBinding(nd.Skip.When)
		if err != nil {
			return nil, err
		}
		returnValue, err := parseBinding(nd.Skip.Return)
		if err != nil {
			return nil, err
		}
		node.Skip = &dagcore.SkipSpec{
			Condition:      condition,
			ConditionValue: nd.Skip.Is,
			ReturnValue:    returnValue,
		}
	}

	if nd.Activate != nil {
		condition, err := parseBinding(nd.Activate.When)
		if err != nil {
			return nil, err
		}
		node.Activate = &dagcore.ActivateSpec{
			Condition:      condition,
			ConditionValue: nd.Activate.Is,
		}
	}

	return node, nil
}
