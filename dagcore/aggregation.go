package dagcore

import (
	"context"
	"time"
)

// LineRecord is one completed (or failed) line's contribution to an
// aggregation pass: its own flow inputs plus every node's recorded output,
// both keyed exactly as LineResult.NodeOutputs/the line's input record.
type LineRecord struct {
	FlowInputs  map[string]any
	NodeOutputs map[string]any
}

// AggregationResult is the outcome of driving the aggregation subgraph once
// across every line in a batch.
type AggregationResult struct {
	RunInfo      RunInfo
	NodeRunInfos map[string]*NodeRunInfo
	NodeRunOrder []string
	NodeOutputs  map[string]any
}

// AggregationExecutor drives a flow's aggregation nodes once per batch, over
// vectors assembled from every line's per-node outputs rather than scalars.
type AggregationExecutor struct {
	Flow     *Flow
	Registry Registry
	Now      func() time.Time
}

// NewAggregationExecutor builds an AggregationExecutor bound to a flow and
// callable registry.
func NewAggregationExecutor(flow *Flow, registry Registry) *AggregationExecutor {
	return &AggregationExecutor{Flow: flow, Registry: registry}
}

// Run drives the aggregation subgraph once. lines is ordered the same way
// the batch ran them; vectors preserve that order so a callable can zip a
// node's per-line outputs back against the original row index.
func (ae *AggregationExecutor) Run(ctx context.Context, lines []LineRecord, opts ...LineOption) *AggregationResult {
	cfg := DriverConfig{}
	for _, o := range opts {
		o(&cfg)
	}

	seed := buildVectorSeed(ae.Flow, lines)
	flowInputVectors := buildFlowInputVectors(lines)

	mgr := NewManager(ae.Flow.AggregationNodes(), flowInputVectors, WithSeedCompleted(seed))

	run := Drive(ctx, mgr, ae.Registry, cfg, ae.Now)

	return &AggregationResult{
		RunInfo:      run.RunInfo,
		NodeRunInfos: run.NodeRunInfos,
		NodeRunOrder: run.NodeRunOrder,
		NodeOutputs:  mgr.CompletedOutputs(),
	}
}

// buildVectorSeed turns each non-aggregation node's per-line output into a
// []any vector (nil for lines where the node never produced one, e.g. it was
// bypassed without a return value, or the line failed before reaching it),
// so an aggregation node's NodeRef inputs resolve exactly as if that vector
// were itself a completed node's output — no branching in Resolve or
// evaluateBypass is aware aggregation is happening at all.
func buildVectorSeed(flow *Flow, lines []LineRecord) map[string]any {
	seed := make(map[string]any, len(flow.NonAggregationNodes()))
	for _, n := range flow.NonAggregationNodes() {
		vec := make([]any, len(lines))
		for i, line := range lines {
			vec[i] = line.NodeOutputs[n.Name]
		}
		seed[n.Name] = vec
	}
	return seed
}

// buildFlowInputVectors turns each declared flow input into a []any vector
// across lines, so an aggregation node can depend on FlowInputRef bindings
// the same way a line-scoped node does.
func buildFlowInputVectors(lines []LineRecord) map[string]any {
	names := map[string]struct{}{}
	for _, line := range lines {
		for k := range line.FlowInputs {
			names[k] = struct{}{}
		}
	}
	vectors := make(map[string]any, len(names))
	for name := range names {
		vec := make([]any, len(lines))
		for i, line := range lines {
			vec[i] = line.FlowInputs[name]
		}
		vectors[name] = vec
	}
	return vectors
}
