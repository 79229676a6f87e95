package dagcore

// InputType describes a declared flow input for validation purposes. It is
// intentionally coarse — the core never type-checks values, only the loader
// uses this to validate row/line inputs before a run starts.
type InputType struct {
	Name     string
	Type     string // "string", "int", "bool", "object", "list", "image", ...
	Required bool
}

// Flow is the immutable, load-time product of the flow definition: a set of
// nodes plus declared inputs/outputs. The NodeRef-induced dependency graph
// over Flow.Nodes must be acyclic; the loader enforces this before a Flow is
// ever handed to the scheduler.
type Flow struct {
	Nodes      []*Node
	nodeByName map[string]*Node

	DeclaredOutputs     map[string]Binding
	DeclaredOutputOrder []string

	DeclaredInputs map[string]InputType
}

// NewFlow indexes nodes by name. Callers (the loader, or tests constructing
// flows by hand) are responsible for having already validated uniqueness and
// acyclicity.
func NewFlow(nodes []*Node, declaredOutputs map[string]Binding, declaredOutputOrder []string, declaredInputs map[string]InputType) *Flow {
	idx := make(map[string]*Node, len(nodes))
	for _, n := range nodes {
		idx[n.Name] = n
	}
	return &Flow{
		Nodes:               nodes,
		nodeByName:          idx,
		DeclaredOutputs:     declaredOutputs,
		DeclaredOutputOrder: declaredOutputOrder,
		DeclaredInputs:      declaredInputs,
	}
}

// Node looks up a node by name.
func (f *Flow) Node(name string) (*Node, bool) {
	n, ok := f.nodeByName[name]
	return n, ok
}

// NonAggregationNodes returns the nodes eligible for per-line scheduling.
func (f *Flow) NonAggregationNodes() []*Node {
	out := make([]*Node, 0, len(f.Nodes))
	for _, n := range f.Nodes {
		if !n.IsAggregation {
			out = append(out, n)
		}
	}
	return out
}

// AggregationNodes returns the nodes scheduled only by the Aggregation Executor.
func (f *Flow) AggregationNodes() []*Node {
	out := make([]*Node, 0)
	for _, n := range f.Nodes {
		if n.IsAggregation {
			out = append(out, n)
		}
	}
	return out
}

// Dependencies returns every binding that participates in n's readiness
// check: its inputs plus skip.{condition,return_value} plus activate.condition.
func Dependencies(n *Node) []Binding {
	deps := make([]Binding, 0, len(n.InputOrder)+2)
	for _, name := range n.InputOrder {
		deps = append(deps, n.Inputs[name])
	}
	if n.Skip != nil {
		deps = append(deps, n.Skip.Condition, n.Skip.ReturnValue)
	}
	if n.Activate != nil {
		deps = append(deps, n.Activate.Condition)
	}
	return deps
}
