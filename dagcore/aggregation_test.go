package dagcore

import (
	"context"
	"reflect"
	"testing"
)

func TestAggregationExecutorAcrossLines(t *testing.T) {
	score := &Node{Name: "score", Inputs: map[string]Binding{"x": FlowInputRef("x")}, InputOrder: []string{"x"}}
	lineFlow := NewFlow([]*Node{score}, map[string]Binding{"score": NodeRef("score")}, []string{"score"}, nil)
	lineRegistry := MapRegistry{
		"score": funcCallable{fn: func(p map[string]any) (any, error) {
			return p["x"].(int) * 10, nil
		}},
	}
	le := NewLineExecutor(lineFlow, lineRegistry)
	le.Now = fixedNow

	var records []LineRecord
	for _, x := range []int{1, 2, 3} {
		res := le.Run(context.Background(), map[string]any{"x": x})
		records = append(records, LineRecord{
			FlowInputs:  map[string]any{"x": x},
			NodeOutputs: res.NodeOutputs,
		})
	}

	avg := &Node{
		Name:          "average",
		Inputs:        map[string]Binding{"scores": NodeRef("score")},
		InputOrder:    []string{"scores"},
		IsAggregation: true,
	}
	aggFlow := NewFlow(append([]*Node{score}, avg), nil, nil, nil)
	aggRegistry := MapRegistry{
		"average": funcCallable{fn: func(p map[string]any) (any, error) {
			vec := p["scores"].([]any)
			sum := 0
			for _, v := range vec {
				sum += v.(int)
			}
			return sum / len(vec), nil
		}},
	}

	ae := NewAggregationExecutor(aggFlow, aggRegistry)
	ae.Now = fixedNow
	result := ae.Run(context.Background(), records)

	if result.RunInfo.Status != StatusCompleted {
		t.Fatalf("expected Completed, got %v (%v)", result.RunInfo.Status, result.RunInfo.Error)
	}
	if result.NodeOutputs["average"] != 20 {
		t.Fatalf("expected average=20, got %v", result.NodeOutputs["average"])
	}
}

func TestBuildVectorSeedHandlesBypassedLines(t *testing.T) {
	n := &Node{Name: "n"}
	flow := NewFlow([]*Node{n}, nil, nil, nil)
	lines := []LineRecord{
		{NodeOutputs: map[string]any{"n": 1}},
		{NodeOutputs: map[string]any{}}, // bypassed without output
	}
	seed := buildVectorSeed(flow, lines)
	want := []any{1, nil}
	if !reflect.DeepEqual(seed["n"], want) {
		t.Fatalf("expected %v, got %v", want, seed["n"])
	}
}
