package loader

import (
	"github.com/dshills/flowdag/dagcore"
)

// validateStructure checks the invariants a JSON Schema cannot express:
// unique node names, at most one of skip/activate per node, all NodeRef
// targets exist, and aggregation nodes are referenced only by other
// aggregation nodes.
func validateStructure(nodes []*dagcore.Node) error {
	byName := make(map[string]*dagcore.Node, len(nodes))
	for _, n := range nodes {
		if _, dup := byName[n.Name]; dup {
			return &dagcore.FlowError{Code: "DUPLICATE_NODE", Message: "duplicate node name: " + n.Name}
		}
		if n.Skip != nil && n.Activate != nil {
			return &dagcore.FlowError{Code: "INVALID_NODE", Message: "node " + n.Name + " declares both skip and activate"}
		}
		byName[n.Name] = n
	}

	for _, n := range nodes {
		for _, dep := range dagcore.Dependencies(n) {
			if !dep.IsNodeRef() {
				continue
			}
			target, ok := byName[dep.NodeName]
			if !ok {
				return &dagcore.FlowError{Code: "UNKNOWN_NODE_REFERENCE", Message: "node " + n.Name + " references unknown node " + dep.NodeName}
			}
			if target.IsAggregation && !n.IsAggregation {
				return &dagcore.FlowError{Code: "INVALID_AGGREGATION_REFERENCE", Message: "non-aggregation node " + n.Name + " references aggregation node " + target.Name}
			}
		}
	}

	if err := checkAcyclic(nodes); err != nil {
		return err
	}
	return nil
}

// checkAcyclic runs Kahn's algorithm over the NodeRef-induced dependency
// graph. A non-empty remainder after repeatedly removing zero-indegree
// nodes means a cycle exists.
func checkAcyclic(nodes []*dagcore.Node) error {
	indegree := make(map[string]int, len(nodes))
	dependents := make(map[string][]string, len(nodes))
	for _, n := range nodes {
		if _, ok := indegree[n.Name]; !ok {
			indegree[n.Name] = 0
		}
		for _, dep := range dagcore.Dependencies(n) {
			if !dep.IsNodeRef() {
				continue
			}
			indegree[n.Name]++
			dependents[dep.NodeName] = append(dependents[dep.NodeName], n.Name)
		}
	}

	queue := make([]string, 0, len(nodes))
	for name, deg := range indegree {
		if deg == 0 {
			queue = append(queue, name)
		}
	}

	visited := 0
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		visited++
		for _, dependent := range dependents[name] {
			indegree[dependent]--
			if indegree[dependent] == 0 {
				queue = append(queue, dependent)
			}
		}
	}

	if visited != len(nodes) {
		return &dagcore.FlowError{Code: "CYCLE", Message: "flow contains a cycle in its node dependency graph"}
	}
	return nil
}
