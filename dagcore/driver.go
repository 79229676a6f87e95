package dagcore

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// RunResult is the shared product of driving a Manager to completion: the
// per-node run records (in termination order) plus the aggregate status.
// LineExecutor and AggregationExecutor each wrap this with their own output
// materialization step.
type RunResult struct {
	NodeRunInfos map[string]*NodeRunInfo
	NodeRunOrder []string
	RunInfo      RunInfo
}

// DriverConfig controls the fixed-point loop's concurrency.
type DriverConfig struct {
	// Concurrency bounds how many ready nodes from a single PopReadyNodes
	// batch run in parallel. Zero or negative means unbounded (errgroup's
	// default, no SetLimit call).
	Concurrency int

	// Hooks lets a caller observe dispatch events without dagcore depending
	// on a concrete metrics SDK. Any nil field is simply not called.
	Hooks DispatchHooks
}

// DispatchHooks are the node-scheduling events a caller (the Batch Engine)
// can observe to drive external instrumentation.
type DispatchHooks struct {
	// OnFrontierDepth reports how many nodes were popped ready in one round
	// of the fixed-point loop, before they're dispatched.
	OnFrontierDepth func(depth int)
	// OnNodeStart is called once per node, right before its callable runs.
	OnNodeStart func()
	// OnNodeEnd is called once per node after its callable returns,
	// regardless of outcome.
	OnNodeEnd func()
	// OnNodeLatency reports a completed node's wall-clock execution time.
	OnNodeLatency func(nodeName string, d time.Duration)
}

// nodeFailure carries which node failed through errgroup.Wait's error.
type nodeFailure struct {
	nodeName string
	err      *NodeError
}

func (f *nodeFailure) Error() string { return f.err.Error() }
func (f *nodeFailure) Unwrap() error { return f.err }

// Drive runs the fixed-point loop: pop bypassable nodes, pop ready nodes
// and dispatch them (bounded by cfg.Concurrency), fold outputs back,
// repeat until Manager.Completed().
//
// now is injected so tests can control StartedAt/EndedAt without relying on
// wall-clock time.
func Drive(ctx context.Context, mgr *Manager, registry Registry, cfg DriverConfig, now func() time.Time) *RunResult {
	if now == nil {
		now = time.Now
	}
	result := &RunResult{NodeRunInfos: make(map[string]*NodeRunInfo)}
	var mu sync.Mutex

	record := func(info *NodeRunInfo) {
		mu.Lock()
		result.NodeRunInfos[info.NodeName] = info
		result.NodeRunOrder = append(result.NodeRunOrder, info.NodeName)
		mu.Unlock()
	}

	for {
		select {
		case <-ctx.Done():
			cancelRemaining(mgr, record)
			result.RunInfo = RunInfo{Status: StatusCanceled, Error: &NodeError{Code: "CANCELED", Message: ctx.Err().Error(), Cause: ErrCanceled}}
			return result
		default:
		}

		bypassedNow, err := mgr.PopBypassableNodes()
		if err != nil {
			ne := asNodeError("", err)
			notStartRemaining(mgr, record)
			result.RunInfo = RunInfo{Status: StatusFailed, Error: ne}
			return result
		}
		for _, b := range bypassedNow {
			record(&NodeRunInfo{NodeName: b.Node.Name, Status: StatusBypassed, Output: b.Output, StartedAt: now(), EndedAt: now()})
		}

		ready := mgr.PopReadyNodes()
		if len(ready) == 0 {
			if mgr.Completed() {
				break
			}
			if len(bypassedNow) == 0 {
				ne := &NodeError{Code: "NO_PROGRESS", Message: "no ready or bypassable nodes but nodes remain pending", Cause: ErrNoProgress}
				notStartRemaining(mgr, record)
				result.RunInfo = RunInfo{Status: StatusFailed, Error: ne}
				return result
			}
			continue
		}

		if cfg.Hooks.OnFrontierDepth != nil {
			cfg.Hooks.OnFrontierDepth(len(ready))
		}

		g, gctx := errgroup.WithContext(ctx)
		if cfg.Concurrency > 0 {
			g.SetLimit(cfg.Concurrency)
		}
		for _, n := range ready {
			n := n
			g.Go(func() (err error) {
				if cfg.Hooks.OnNodeStart != nil {
					cfg.Hooks.OnNodeStart()
				}
				if cfg.Hooks.OnNodeEnd != nil {
					defer cfg.Hooks.OnNodeEnd()
				}
				start := now()
				defer func() {
					if nf, ok := err.(*nodeFailure); ok {
						record(&NodeRunInfo{NodeName: nf.nodeName, Status: StatusFailed, Error: nf.err, StartedAt: start, EndedAt: now()})
					}
				}()
				params, err := mgr.GetValidInputs(n)
				if err != nil {
					return &nodeFailure{nodeName: n.Name, err: asNodeError(n.Name, err)}
				}
				callable, err := registry.Resolve(n.Name)
				if err != nil {
					return &nodeFailure{nodeName: n.Name, err: asNodeError(n.Name, err)}
				}
				out, err := callable.Invoke(gctx, params)
				if err != nil {
					return &nodeFailure{nodeName: n.Name, err: &NodeError{Code: "NODE_EXECUTION_ERROR", NodeName: n.Name, Message: err.Error(), Cause: err}}
				}
				if err := mgr.Complete(n.Name, out); err != nil {
					return &nodeFailure{nodeName: n.Name, err: asNodeError(n.Name, err)}
				}
				end := now()
				record(&NodeRunInfo{NodeName: n.Name, Status: StatusCompleted, Output: out, StartedAt: start, EndedAt: end})
				if cfg.Hooks.OnNodeLatency != nil {
					cfg.Hooks.OnNodeLatency(n.Name, end.Sub(start))
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			if nf, ok := err.(*nodeFailure); ok {
				notStartRemaining(mgr, record)
				result.RunInfo = RunInfo{Status: StatusFailed, Error: nf.err}
				return result
			}
			notStartRemaining(mgr, record)
			result.RunInfo = RunInfo{Status: StatusFailed, Error: asNodeError("", err)}
			return result
		}
	}

	result.RunInfo = RunInfo{Status: AggregateStatus(result.NodeRunInfos)}
	return result
}

func notStartRemaining(mgr *Manager, record func(*NodeRunInfo)) {
	for _, name := range mgr.PendingNames() {
		record(&NodeRunInfo{NodeName: name, Status: StatusNotStarted})
	}
}

func cancelRemaining(mgr *Manager, record func(*NodeRunInfo)) {
	for _, name := range mgr.PendingNames() {
		record(&NodeRunInfo{NodeName: name, Status: StatusCanceled})
	}
}
