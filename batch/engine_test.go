package batch

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dshills/flowdag/dagcore"
)

type sliceRowSource struct {
	rows []map[string]any
	i    int
	mu   sync.Mutex
}

func (s *sliceRowSource) Next(ctx context.Context) (map[string]any, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.i >= len(s.rows) {
		return nil, false, nil
	}
	row := s.rows[s.i]
	s.i++
	return row, true, nil
}

type doubleCallable struct{}

func (doubleCallable) Signature() dagcore.Signature {
	return dagcore.Signature{Params: []dagcore.ParamSpec{{Name: "n"}}}
}

func (doubleCallable) Invoke(_ context.Context, params map[string]any) (any, error) {
	n, _ := params["n"].(float64)
	return n * 2, nil
}

type sumAggCallable struct{}

func (sumAggCallable) Signature() dagcore.Signature {
	return dagcore.Signature{Params: []dagcore.ParamSpec{{Name: "values"}}}
}

func (sumAggCallable) Invoke(_ context.Context, params map[string]any) (any, error) {
	vec, _ := params["values"].([]any)
	var sum float64
	for _, v := range vec {
		if f, ok := v.(float64); ok {
			sum += f
		}
	}
	return sum, nil
}

func fixedNow() time.Time { return time.Unix(0, 0) }

func buildTestFlow() *dagcore.Flow {
	doubled := &dagcore.Node{
		Name:       "doubled",
		Inputs:     map[string]dagcore.Binding{"n": dagcore.FlowInputRef("n")},
		InputOrder: []string{"n"},
	}
	total := &dagcore.Node{
		Name:          "total",
		Inputs:        map[string]dagcore.Binding{"values": dagcore.NodeRef("doubled")},
		InputOrder:    []string{"values"},
		IsAggregation: true,
	}
	declaredOutputs := map[string]dagcore.Binding{"doubled": dagcore.NodeRef("doubled")}
	return dagcore.NewFlow([]*dagcore.Node{doubled, total}, declaredOutputs, []string{"doubled"}, nil)
}

func TestEngineRunProducesOrderedLinesAndAggregation(t *testing.T) {
	flow := buildTestFlow()
	registry := dagcore.MapRegistry{"doubled": doubleCallable{}, "total": sumAggCallable{}}
	rows := &sliceRowSource{rows: []map[string]any{
		{"x": 1.0}, {"x": 2.0}, {"x": 3.0},
	}}

	engine := NewEngine(flow, registry, rows,
		WithInputsMapping(map[string]string{"n": "${data.x}"}),
		WithConcurrency(2),
		WithNow(fixedNow),
	)

	result, err := engine.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.Lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(result.Lines))
	}
	for i, line := range result.Lines {
		if line.LineNumber != i {
			t.Fatalf("line %d out of order: got line_number %d", i, line.LineNumber)
		}
	}
	if result.Status.Lines.Completed != 3 {
		t.Fatalf("expected 3 completed lines, got %+v", result.Status.Lines)
	}
	if result.Aggregation == nil {
		t.Fatal("expected an aggregation result")
	}
	total := result.Aggregation.NodeOutputs["total"]
	if total != 12.0 {
		t.Fatalf("expected total 12.0 (2+4+6), got %v", total)
	}
}

func TestEngineRunRecordsInputResolutionFailureWithoutAbortingBatch(t *testing.T) {
	flow := buildTestFlow()
	registry := dagcore.MapRegistry{"doubled": doubleCallable{}, "total": sumAggCallable{}}
	rows := &sliceRowSource{rows: []map[string]any{
		{"x": 1.0}, {"wrong_column": 2.0},
	}}

	engine := NewEngine(flow, registry, rows,
		WithInputsMapping(map[string]string{"n": "${data.x}"}),
		WithNow(fixedNow),
	)

	result, err := engine.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Status.Lines.Failed != 1 || result.Status.Lines.Completed != 1 {
		t.Fatalf("expected 1 failed and 1 completed line, got %+v", result.Status.Lines)
	}
}

func TestMapRowToLineInputsMissingColumn(t *testing.T) {
	_, err := mapRowToLineInputs(map[string]any{"a": 1}, map[string]string{"n": "${data.b}"})
	if err == nil || !strings.Contains(err.Error(), "no column") {
		t.Fatalf("expected missing-column error, got %v", err)
	}
}

func TestDecodeMultimediaKey(t *testing.T) {
	mime, kind, ok := decodeMultimediaKey("data:image/png;base64")
	if !ok || mime != "image/png" || kind != "base64" {
		t.Fatalf("unexpected decode: %s %s %v", mime, kind, ok)
	}
	if _, _, ok := decodeMultimediaKey("not-a-descriptor"); ok {
		t.Fatal("expected ok=false for a non-descriptor key")
	}
}

func TestWalkDecodeMultimediaReplacesNestedRefs(t *testing.T) {
	row := map[string]any{
		"image": map[string]any{"data:image/png;path": "photo.png"},
		"label": "cat",
	}
	decoded := walkDecodeMultimedia(row).(map[string]any)
	ref, ok := decoded["image"].(MultimediaRef)
	if !ok {
		t.Fatalf("expected MultimediaRef, got %T", decoded["image"])
	}
	if ref.MIME != "image/png" || ref.Kind != "path" || ref.Value != "photo.png" {
		t.Fatalf("unexpected ref: %+v", ref)
	}
}
