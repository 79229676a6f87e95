package dagcore

import (
	"context"
	"fmt"
	"time"
)

// LineResult is the outcome of driving one input record through a flow.
type LineResult struct {
	Output       map[string]any
	Warnings     []string
	RunInfo      RunInfo
	NodeRunInfos map[string]*NodeRunInfo
	NodeRunOrder []string

	// NodeOutputs is a snapshot of every node's recorded output (completed,
	// including skip-with-return dual membership); it feeds the Aggregation
	// Executor's per-line vector assembly.
	NodeOutputs map[string]any
}

// LineOption configures a single LineExecutor.Run call.
type LineOption func(*DriverConfig)

// WithLineConcurrency sets the per-line concurrency cap P. P<=0 means
// unbounded.
func WithLineConcurrency(p int) LineOption {
	return func(cfg *DriverConfig) { cfg.Concurrency = p }
}

// WithDispatchHooks attaches node-scheduling observers for this line's run.
func WithDispatchHooks(hooks DispatchHooks) LineOption {
	return func(cfg *DriverConfig) { cfg.Hooks = hooks }
}

// LineExecutor drives one line (one input record) of a flow to completion.
type LineExecutor struct {
	Flow      *Flow
	Registry  Registry
	Now       func() time.Time
	DualCompat *bool // nil means default (true); see WithDualMembershipCompat
}

// NewLineExecutor builds a LineExecutor bound to a flow and callable registry.
func NewLineExecutor(flow *Flow, registry Registry) *LineExecutor {
	return &LineExecutor{Flow: flow, Registry: registry}
}

// Run executes one line: inputs are this line's flow-input values.
func (le *LineExecutor) Run(ctx context.Context, inputs map[string]any, opts ...LineOption) *LineResult {
	cfg := DriverConfig{}
	for _, o := range opts {
		o(&cfg)
	}

	var mgrOpts []ManagerOption
	if le.DualCompat != nil {
		mgrOpts = append(mgrOpts, WithDualMembershipCompat(*le.DualCompat))
	}
	mgr := NewManager(le.Flow.NonAggregationNodes(), inputs, mgrOpts...)

	run := Drive(ctx, mgr, le.Registry, cfg, le.Now)

	result := &LineResult{
		RunInfo:      run.RunInfo,
		NodeRunInfos: run.NodeRunInfos,
		NodeRunOrder: run.NodeRunOrder,
		NodeOutputs:  mgr.CompletedOutputs(),
	}

	if run.RunInfo.Status == StatusCompleted {
		outputs, warnings := le.materializeOutputs(mgr, inputs)
		result.Output = outputs
		result.Warnings = warnings
	}
	return result
}

// materializeOutputs resolves the flow's declared outputs against the
// line's final completed-outputs map, turning a reference to a
// bypassed-without-output node into a nil value plus a non-fatal warning.
func (le *LineExecutor) materializeOutputs(mgr *Manager, flowInputs map[string]any) (map[string]any, []string) {
	outputs := make(map[string]any, len(le.Flow.DeclaredOutputOrder))
	var warnings []string

	completed := mgr.CompletedOutputs()
	bypassed := mgr.BypassedNames()

	for _, name := range le.Flow.DeclaredOutputOrder {
		b := le.Flow.DeclaredOutputs[name]
		v, err := Resolve(b, flowInputs, completed, bypassed)
		if err != nil {
			if b.Kind == BindingNodeRef {
				if _, isBypassed := bypassed[b.NodeName]; isBypassed {
					outputs[name] = nil
					warnings = append(warnings, fmt.Sprintf("The node referenced by output:'%s' is bypassed, which is not recommended.", b.NodeName))
					continue
				}
			}
			outputs[name] = nil
			warnings = append(warnings, fmt.Sprintf("failed to resolve declared output %q: %v", name, err))
			continue
		}
		outputs[name] = v
	}
	return outputs, warnings
}
