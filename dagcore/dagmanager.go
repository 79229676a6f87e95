package dagcore

import (
	"reflect"
	"sort"
	"sync"
)

// Manager owns the pending/completed/bypassed sets for one scheduling run —
// either a single line (over the flow's non-aggregation nodes) or the
// aggregation pass (over the flow's aggregation nodes, with per-line output
// vectors pre-seeded into completed). It performs no blocking work; all
// methods are synchronous and safe for concurrent use by the per-line
// dispatcher up to concurrency cap P.
type Manager struct {
	mu sync.Mutex

	flowInputs map[string]any
	pending    map[string]*Node
	completed  map[string]any
	bypassed   map[string]struct{}

	// dualMembershipCompat controls whether a skip-with-return node's
	// return value is also written into completed, matching the source
	// system's documented "not a good practice" behavior. Default true.
	dualMembershipCompat bool
}

// ManagerOption configures a Manager at construction time.
type ManagerOption func(*Manager)

// WithSeedCompleted pre-populates the completed-outputs map before any node
// runs. The Aggregation Executor uses this to expose per-line output vectors
// for non-aggregation nodes as if they were already-completed dependencies.
func WithSeedCompleted(seed map[string]any) ManagerOption {
	return func(m *Manager) {
		for k, v := range seed {
			m.completed[k] = v
		}
	}
}

// WithDualMembershipCompat overrides the default dual-membership behavior
// for skip-with-return nodes.
func WithDualMembershipCompat(enabled bool) ManagerOption {
	return func(m *Manager) { m.dualMembershipCompat = enabled }
}

// NewManager constructs a Manager whose pending set is exactly `nodes`.
// Callers choose which subset of a Flow to schedule: LineExecutor passes
// Flow.NonAggregationNodes(), AggregationExecutor passes Flow.AggregationNodes().
func NewManager(nodes []*Node, flowInputs map[string]any, opts ...ManagerOption) *Manager {
	m := &Manager{
		flowInputs:           flowInputs,
		pending:              make(map[string]*Node, len(nodes)),
		completed:            make(map[string]any),
		bypassed:             make(map[string]struct{}),
		dualMembershipCompat: true,
	}
	for _, n := range nodes {
		m.pending[n.Name] = n
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// BypassResult is one node's bypass decision, returned by PopBypassableNodes.
type BypassResult struct {
	Node      *Node
	Output    any
	HasOutput bool
}

// PopReadyNodes returns every pending node whose full dependency closure has
// resolved (each NodeRef target is in completed or bypassed), removing them
// from pending. Order is unspecified by contract; this implementation sorts
// by name for deterministic test fixtures.
func (m *Manager) PopReadyNodes() []*Node {
	m.mu.Lock()
	defer m.mu.Unlock()

	var ready []*Node
	for _, n := range m.pending {
		if m.isReady(n) {
			ready = append(ready, n)
		}
	}
	sort.Slice(ready, func(i, j int) bool { return ready[i].Name < ready[j].Name })
	for _, n := range ready {
		delete(m.pending, n.Name)
	}
	return ready
}

// PopBypassableNodes evaluates bypass rules over every ready pending node,
// moves the bypassed ones into the bypassed set (recording any skip-with-
// return output into completed per dualMembershipCompat), and returns them.
func (m *Manager) PopBypassableNodes() ([]BypassResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var results []BypassResult
	var readyNames []string
	for name, n := range m.pending {
		if m.isReady(n) {
			readyNames = append(readyNames, name)
		}
	}
	sort.Strings(readyNames)

	for _, name := range readyNames {
		n := m.pending[name]
		bypass, output, hasOutput, err := m.evaluateBypass(n)
		if err != nil {
			return nil, err
		}
		if !bypass {
			continue
		}
		m.bypassed[name] = struct{}{}
		if hasOutput && m.dualMembershipCompat {
			m.completed[name] = output
		}
		delete(m.pending, name)
		results = append(results, BypassResult{Node: n, Output: output, HasOutput: hasOutput})
	}
	return results, nil
}

// GetValidInputs builds the parameter map for a ready node's callable,
// applying the default-elision rule: a NodeRef input whose target is
// bypassed-without-output is omitted when the parameter has a default, or
// set to nil otherwise.
func (m *Manager) GetValidInputs(n *Node) (map[string]any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	params := make(map[string]any, len(n.InputOrder))
	for _, name := range n.InputOrder {
		b := n.Inputs[name]
		if m.isDependencyBypassedWithoutOutput(b) {
			if n.Signature.HasDefault(name) {
				continue
			}
			params[name] = nil
			continue
		}
		v, err := m.resolveLocked(b)
		if err != nil {
			return nil, err
		}
		params[name] = v
	}
	return params, nil
}

// Complete records a node's output. Re-completing with an identical value is
// a no-op; re-completing with a different value is an error.
func (m *Manager) Complete(name string, output any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.completed[name]; ok {
		if !reflect.DeepEqual(existing, output) {
			return &NodeError{Code: "COMPLETE_CONFLICT", NodeName: name, Message: "node already completed with a different output", Cause: ErrCompletionConflict}
		}
		return nil
	}
	m.completed[name] = output
	return nil
}

// Completed reports whether every node has left the pending set.
func (m *Manager) Completed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending) == 0
}

// CompletedOutputs returns a snapshot copy of the completed-outputs map.
func (m *Manager) CompletedOutputs() map[string]any {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]any, len(m.completed))
	for k, v := range m.completed {
		out[k] = v
	}
	return out
}

// BypassedNames returns a snapshot copy of the bypassed set.
func (m *Manager) BypassedNames() map[string]struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]struct{}, len(m.bypassed))
	for k := range m.bypassed {
		out[k] = struct{}{}
	}
	return out
}

// PendingNames returns the names still pending, sorted for determinism.
func (m *Manager) PendingNames() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.pending))
	for k := range m.pending {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (m *Manager) isReady(n *Node) bool {
	for _, dep := range Dependencies(n) {
		if dep.Kind != BindingNodeRef {
			continue
		}
		if _, ok := m.completed[dep.NodeName]; ok {
			continue
		}
		if _, ok := m.bypassed[dep.NodeName]; ok {
			continue
		}
		return false
	}
	return true
}

// evaluateBypass implements the three-rule skip/activate precedence.
// Must be called with m.mu held.
func (m *Manager) evaluateBypass(n *Node) (bypass bool, output any, hasOutput bool, err error) {
	if n.Skip != nil {
		if !m.isDependencyBypassedWithoutOutput(n.Skip.Condition) {
			condVal, rerr := m.resolveLocked(n.Skip.Condition)
			if rerr != nil {
				return false, nil, false, rerr
			}
			if valuesEqual(condVal, n.Skip.ConditionValue) {
				if m.isDependencyBypassedWithoutOutput(n.Skip.ReturnValue) {
					return false, nil, false, &NodeError{
						Code:     "REFERENCE_NODE_BYPASSED",
						NodeName: n.Name,
						Message:  "skip.return references a node that was bypassed without an output",
						Cause:    ErrReferenceNodeBypassed,
					}
				}
				retVal, rerr := m.resolveLocked(n.Skip.ReturnValue)
				if rerr != nil {
					return false, nil, false, rerr
				}
				return true, retVal, true, nil
			}
		}
	}

	if n.Activate != nil {
		if m.isDependencyBypassedWithoutOutput(n.Activate.Condition) {
			return true, nil, false, nil
		}
		condVal, rerr := m.resolveLocked(n.Activate.Condition)
		if rerr != nil {
			return false, nil, false, rerr
		}
		if !valuesEqual(condVal, n.Activate.ConditionValue) {
			return true, nil, false, nil
		}
		return false, nil, false, nil
	}

	var refCount int
	allBypassed := true
	for _, name := range n.InputOrder {
		b := n.Inputs[name]
		if b.Kind != BindingNodeRef {
			continue
		}
		refCount++
		if !m.isDependencyBypassedWithoutOutput(b) {
			allBypassed = false
		}
	}
	if refCount > 0 && allBypassed {
		return true, nil, false, nil
	}
	return false, nil, false, nil
}

func (m *Manager) isDependencyBypassedWithoutOutput(b Binding) bool {
	if b.Kind != BindingNodeRef {
		return false
	}
	_, isBypassed := m.bypassed[b.NodeName]
	_, hasCompleted := m.completed[b.NodeName]
	return isBypassed && !hasCompleted
}

func (m *Manager) resolveLocked(b Binding) (any, error) {
	return Resolve(b, m.flowInputs, m.completed, m.bypassed)
}

// valuesEqual compares skip/activate condition values: scalars compare by
// ==, everything else (maps, slices, structs) compares structurally.
func valuesEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == b
	}
	switch a.(type) {
	case string, bool, int, int64, float64, float32:
		return a == b
	default:
		return reflect.DeepEqual(a, b)
	}
}
