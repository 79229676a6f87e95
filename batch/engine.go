package batch

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/dshills/flowdag/dagcore"
	"github.com/dshills/flowdag/observability"
	"github.com/dshills/flowdag/store"
)

// Result is a completed batch run: every line's output in line-number
// order, the node/line status summary, and the aggregation pass's result
// when the flow has aggregation nodes.
type Result struct {
	RunID       string
	Lines       []LineOutput
	Status      *StatusSummary
	Aggregation *dagcore.AggregationResult
}

// Engine fans a flow out over a row source with bounded line concurrency,
// then runs the aggregation subgraph once across every line.
type Engine struct {
	flow     *dagcore.Flow
	registry dagcore.Registry
	rows     RowSource
	cfg      Config
}

// NewEngine builds an Engine. flow and registry are the runnable flow and
// its callables; rows supplies one input record per line.
func NewEngine(flow *dagcore.Flow, registry dagcore.Registry, rows RowSource, opts ...Option) *Engine {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	return &Engine{flow: flow, registry: registry, rows: rows, cfg: cfg}
}

type lineJob struct {
	index int
	row   map[string]any
}

type lineOutcome struct {
	index  int
	output LineOutput
	record dagcore.LineRecord
}

// Run drives the batch to completion: reads every row, runs up to
// Config.Concurrency lines concurrently, writes outputs.jsonl once every
// line has finished (ordered by line number), and then drives the
// aggregation subgraph once.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	runID := e.cfg.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	now := e.cfg.Now
	if now == nil {
		now = time.Now
	}
	startedAt := now()

	if e.cfg.Store != nil {
		if err := e.cfg.Store.SaveRun(ctx, store.RunRecord{
			RunID:     runID,
			FlowPath:  e.cfg.FlowPath,
			Status:    dagcore.StatusRunning.String(),
			StartedAt: startedAt,
		}); err != nil {
			return nil, fmt.Errorf("batch: save run start: %w", err)
		}
	}

	var sink *OutputSink
	if e.cfg.OutDir != "" {
		s, err := NewOutputSink(e.cfg.OutDir, e.cfg.Sidecar)
		if err != nil {
			return nil, err
		}
		sink = s
		defer sink.Close()
	}

	jobs := make(chan lineJob)
	var readErr error

	g, gctx := errgroup.WithContext(ctx)
	if e.cfg.Concurrency > 0 {
		g.SetLimit(e.cfg.Concurrency)
	}

	var produceWG sync.WaitGroup
	produceWG.Add(1)
	go func() {
		defer produceWG.Done()
		defer close(jobs)
		for index := 0; ; index++ {
			row, ok, err := e.rows.Next(gctx)
			if err != nil {
				readErr = fmt.Errorf("batch: read row %d: %w", index, err)
				return
			}
			if !ok {
				return
			}
			select {
			case jobs <- lineJob{index: index, row: row}:
			case <-gctx.Done():
				return
			}
		}
	}()

	var mu sync.Mutex
	var outcomes []lineOutcome
	var nodesInflight atomic.Int64
	var linesInflight atomic.Int64

	for job := range jobs {
		job := job
		g.Go(func() error {
			if e.cfg.Metrics != nil {
				e.cfg.Metrics.SetBatchLinesInflight(int(linesInflight.Add(1)))
				defer func() { e.cfg.Metrics.SetBatchLinesInflight(int(linesInflight.Add(-1))) }()
			}
			output, record := e.runLine(gctx, runID, job.index, job.row, now, &nodesInflight)
			mu.Lock()
			outcomes = append(outcomes, lineOutcome{index: job.index, output: output, record: record})
			completed, failed, total := tallyOutcomes(outcomes)
			mu.Unlock()
			if e.cfg.StatusCache != nil {
				_ = e.cfg.StatusCache.PutRunStatus(gctx, store.RunRecord{
					RunID:      runID,
					FlowPath:   e.cfg.FlowPath,
					TotalLines: total,
					Completed:  completed,
					Failed:     failed,
					Status:     dagcore.StatusRunning.String(),
					StartedAt:  startedAt,
				})
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	produceWG.Wait()
	if readErr != nil {
		return nil, readErr
	}

	sort.Slice(outcomes, func(i, j int) bool { return outcomes[i].index < outcomes[j].index })

	summary := newStatusSummary()
	lines := make([]LineOutput, len(outcomes))
	records := make([]dagcore.LineRecord, len(outcomes))
	for i, o := range outcomes {
		summary.recordLine(o.output.RunInfo, o.output.NodeRunInfos)
		lines[i] = o.output
		records[i] = o.record
		if sink != nil {
			if err := sink.Write(ctx, o.output); err != nil {
				return nil, err
			}
		}
	}

	var aggResult *dagcore.AggregationResult
	if len(e.flow.AggregationNodes()) > 0 {
		ae := dagcore.NewAggregationExecutor(e.flow, e.registry)
		ae.Now = now
		aggResult = ae.Run(ctx, records, dagcore.WithDispatchHooks(e.dispatchHooks(&nodesInflight)))
	}

	if e.cfg.Store != nil {
		finalStatus := dagcore.StatusCompleted
		if summary.Lines.Failed > 0 {
			finalStatus = dagcore.StatusFailed
		} else if summary.Lines.Canceled > 0 {
			finalStatus = dagcore.StatusCanceled
		}
		var aggOutputs map[string]any
		if aggResult != nil {
			aggOutputs = aggResult.NodeOutputs
		}
		finalRecord := store.RunRecord{
			RunID:            runID,
			FlowPath:         e.cfg.FlowPath,
			TotalLines:       summary.Lines.Total,
			Completed:        summary.Lines.Completed,
			Failed:           summary.Lines.Failed,
			Status:           finalStatus.String(),
			StartedAt:        startedAt,
			EndedAt:          now(),
			AggregateOutputs: aggOutputs,
		}
		if err := e.cfg.Store.SaveRun(ctx, finalRecord); err != nil {
			return nil, fmt.Errorf("batch: save run end: %w", err)
		}
		if e.cfg.StatusCache != nil {
			_ = e.cfg.StatusCache.PutRunStatus(ctx, finalRecord)
		}
	}

	return &Result{RunID: runID, Lines: lines, Status: summary, Aggregation: aggResult}, nil
}

// tallyOutcomes computes running completed/failed/total counts over outcomes
// recorded so far, for a StatusCache refresh that doesn't wait for the whole
// batch to finish. Caller holds mu.
func tallyOutcomes(outcomes []lineOutcome) (completed, failed, total int) {
	for _, o := range outcomes {
		total++
		switch o.output.RunInfo.Status {
		case dagcore.StatusCompleted:
			completed++
		case dagcore.StatusFailed:
			failed++
		}
	}
	return completed, failed, total
}

// runLine maps one row into flow inputs and drives it through the Line
// Executor. A mapping failure is this line's own InputResolutionFailed
// error, not a batch abort.
func (e *Engine) runLine(ctx context.Context, runID string, index int, row map[string]any, now func() time.Time, nodesInflight *atomic.Int64) (LineOutput, dagcore.LineRecord) {
	lineStart := now()
	inputs, err := mapRowToLineInputs(row, e.cfg.InputsMapping)
	if err != nil {
		e.emit(index, "input resolution failed", map[string]any{"error": err.Error()})
		runInfo := dagcore.RunInfo{
			Status: dagcore.StatusFailed,
			Error:  &dagcore.NodeError{Code: "INPUT_RESOLUTION_FAILED", Message: err.Error(), Cause: err},
		}
		e.saveLine(ctx, runID, index, runInfo, nil, lineStart, now())
		return LineOutput{LineNumber: index, RunInfo: runInfo}, dagcore.LineRecord{}
	}

	le := dagcore.NewLineExecutor(e.flow, e.registry)
	le.Now = now
	result := le.Run(ctx, inputs,
		dagcore.WithLineConcurrency(e.cfg.LineConcurrency),
		dagcore.WithDispatchHooks(e.dispatchHooks(nodesInflight)))

	e.emit(index, "line finished", map[string]any{"status": result.RunInfo.Status.String()})
	if e.cfg.Metrics != nil {
		for _, info := range result.NodeRunInfos {
			switch info.Status {
			case dagcore.StatusBypassed:
				e.cfg.Metrics.IncBypassed(info.NodeName)
			case dagcore.StatusFailed:
				e.cfg.Metrics.IncFailed(info.NodeName)
			}
		}
	}
	e.saveLine(ctx, runID, index, result.RunInfo, result.Output, lineStart, now())

	output := LineOutput{
		LineNumber:   index,
		Output:       result.Output,
		Warnings:     result.Warnings,
		RunInfo:      result.RunInfo,
		NodeRunInfos: result.NodeRunInfos,
	}
	record := dagcore.LineRecord{FlowInputs: inputs, NodeOutputs: result.NodeOutputs}
	return output, record
}

// saveLine persists one line's outcome, if a Store is configured. Errors are
// swallowed rather than aborting the line: a persistence failure must not
// turn a successfully executed line into a batch failure.
func (e *Engine) saveLine(ctx context.Context, runID string, index int, runInfo dagcore.RunInfo, output map[string]any, startedAt, endedAt time.Time) {
	if e.cfg.Store == nil {
		return
	}
	line := store.LineRecord{
		RunID:     runID,
		LineIndex: index,
		Status:    runInfo.Status.String(),
		Output:    output,
		StartedAt: startedAt,
		EndedAt:   endedAt,
	}
	if runInfo.Error != nil {
		line.Error = runInfo.Error.Error()
	}
	if err := e.cfg.Store.SaveLine(ctx, line); err != nil && e.cfg.Logger != nil {
		e.cfg.Logger.Errorw("save line record", "run_id", runID, "line", index, "error", err)
	}
}

// dispatchHooks wires dagcore's scheduling events into Prometheus, if
// metrics are configured. nodesInflight is shared across every line (and the
// aggregation pass) running under this Engine, since "nodes inflight" is a
// whole-batch gauge, not a per-line one.
func (e *Engine) dispatchHooks(nodesInflight *atomic.Int64) dagcore.DispatchHooks {
	m := e.cfg.Metrics
	if m == nil {
		return dagcore.DispatchHooks{}
	}
	return dagcore.DispatchHooks{
		OnFrontierDepth: m.SetFrontierDepth,
		OnNodeStart:     func() { m.SetNodesInflight(int(nodesInflight.Add(1))) },
		OnNodeEnd:       func() { m.SetNodesInflight(int(nodesInflight.Add(-1))) },
		OnNodeLatency: func(nodeName string, d time.Duration) {
			m.ObserveNodeLatency(nodeName, float64(d.Milliseconds()))
		},
	}
}

func (e *Engine) emit(lineIndex int, msg string, meta map[string]any) {
	if e.cfg.Emitter == nil {
		return
	}
	e.cfg.Emitter.Emit(observability.Event{LineIndex: lineIndex, Msg: msg, Meta: meta})
}
