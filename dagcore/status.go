package dagcore

import "time"

// Status is a point in the NotStarted < Running < {Completed, Bypassed,
// Failed, Canceled} lattice. The terminal states are mutually exclusive.
type Status int

const (
	StatusNotStarted Status = iota
	StatusRunning
	StatusCompleted
	StatusBypassed
	StatusFailed
	StatusCanceled
)

func (s Status) String() string {
	switch s {
	case StatusNotStarted:
		return "NotStarted"
	case StatusRunning:
		return "Running"
	case StatusCompleted:
		return "Completed"
	case StatusBypassed:
		return "Bypassed"
	case StatusFailed:
		return "Failed"
	case StatusCanceled:
		return "Canceled"
	default:
		return "Unknown"
	}
}

// NodeRunInfo is the per-node record emitted by the Line Executor (and the
// Aggregation Executor, over its own subgraph).
type NodeRunInfo struct {
	NodeName  string
	Status    Status
	Output    any
	Error     *NodeError
	StartedAt time.Time
	EndedAt   time.Time
}

// HasOutput reports whether this node produced an observable output —
// true for Completed nodes and for Bypassed nodes whose skip clause fired
// with a non-nil return value (the "bypassed ∧ completed" dual membership).
func (n *NodeRunInfo) HasOutput() bool {
	if n == nil {
		return false
	}
	switch n.Status {
	case StatusCompleted:
		return true
	case StatusBypassed:
		return n.Output != nil
	default:
		return false
	}
}

// RunInfo is the aggregate status of a single line (or aggregation) run.
type RunInfo struct {
	Status Status
	Error  *NodeError
}

// AggregateStatus derives overall run status from per-node statuses:
// Completed iff none are Failed or Canceled (Bypassed never degrades it).
func AggregateStatus(infos map[string]*NodeRunInfo) Status {
	status := StatusCompleted
	for _, info := range infos {
		switch info.Status {
		case StatusFailed:
			return StatusFailed
		case StatusCanceled:
			status = StatusCanceled
		}
	}
	return status
}
