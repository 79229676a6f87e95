package loader

import (
	"reflect"
	"strings"
	"testing"

	"github.com/dshills/flowdag/dagcore"
)

func TestLoadBytesLinearFlow(t *testing.T) {
	const flowYAML = `
inputs:
  topic:
    type: string
    required: true
outputs:
  result: ${summarize.output}
nodes:
  - name: fetch
    inputs:
      query: ${flow.topic}
  - name: summarize
    inputs:
      text: ${fetch.output}
`
	flow, err := LoadBytes([]byte(flowYAML))
	if err != nil {
		t.Fatalf("LoadBytes: %v", err)
	}
	if len(flow.Nodes) != 2 {
		t.Fatalf("expected 2 nodes, got %d", len(flow.Nodes))
	}
	summarize, ok := flow.Node("summarize")
	if !ok {
		t.Fatal("summarize node missing")
	}
	textBinding := summarize.Inputs["text"]
	if textBinding.Kind != dagcore.BindingNodeRef || textBinding.NodeName != "fetch" {
		t.Fatalf("expected NodeRef(fetch), got %+v", textBinding)
	}
	out, ok := flow.DeclaredOutputs["result"]
	if !ok || out.Kind != dagcore.BindingNodeRef || out.NodeName != "summarize" {
		t.Fatalf("expected declared output bound to summarize, got %+v", out)
	}
}

func TestLoadBytesDetectsCycle(t *testing.T) {
	const flowYAML = `
nodes:
  - name: a
    inputs:
      x: ${b.output}
  - name: b
    inputs:
      x: ${a.output}
`
	_, err := LoadBytes([]byte(flowYAML))
	if err == nil {
		t.Fatal("expected cycle error, got nil")
	}
	var fe *dagcore.FlowError
	if !asFlowError(err, &fe) || fe.Code != "CYCLE" {
		t.Fatalf("expected CYCLE flow error, got %v", err)
	}
}

func TestLoadBytesRejectsUnknownNodeReference(t *testing.T) {
	const flowYAML = `
nodes:
  - name: a
    inputs:
      x: ${missing.output}
`
	_, err := LoadBytes([]byte(flowYAML))
	if err == nil || !strings.Contains(err.Error(), "UNKNOWN_NODE_REFERENCE") {
		t.Fatalf("expected unknown node reference error, got %v", err)
	}
}

func TestLoadBytesRejectsAggregationReferencedFromNonAggregation(t *testing.T) {
	const flowYAML = `
nodes:
  - name: per_line
    inputs:
      x: ${avg.output}
  - name: avg
    aggregation: true
`
	_, err := LoadBytes([]byte(flowYAML))
	if err == nil || !strings.Contains(err.Error(), "INVALID_AGGREGATION_REFERENCE") {
		t.Fatalf("expected aggregation reference error, got %v", err)
	}
}

func TestLoadBytesRejectsDualSkipActivate(t *testing.T) {
	const flowYAML = `
nodes:
  - name: a
    skip:
      when: ${flow.x}
      is: true
      return: ${flow.x}
    activate:
      when: ${flow.x}
      is: true
`
	_, err := LoadBytes([]byte(flowYAML))
	if err == nil || !strings.Contains(err.Error(), "INVALID_NODE") {
		t.Fatalf("expected dual skip/activate error, got %v", err)
	}
}

func TestLoadBytesSkipDefaultHandling(t *testing.T) {
	const flowYAML = `
nodes:
  - name: gate
    inputs:
      flag: ${flow.enabled}
    skip:
      when: ${flow.enabled}
      is: false
      return: ${flow.fallback}
  - name: consumer
    inputs:
      v: ${gate.output}
    defaults: [v]
`
	flow, err := LoadBytes([]byte(flowYAML))
	if err != nil {
		t.Fatalf("LoadBytes: %v", err)
	}
	consumer, _ := flow.Node("consumer")
	if !consumer.Signature.HasDefault("v") {
		t.Fatal("expected v to have a default per the defaults list")
	}
}

func TestLoadBytesTypedLiteralInputs(t *testing.T) {
	const flowYAML = `
nodes:
  - name: configure
    inputs:
      retries: 3
      verbose: true
      threshold: 0.5
      tags:
        - a
        - b
      options:
        mode: fast
        limit: 10
      label: plain string
`
	flow, err := LoadBytes([]byte(flowYAML))
	if err != nil {
		t.Fatalf("LoadBytes: %v", err)
	}
	configure, ok := flow.Node("configure")
	if !ok {
		t.Fatal("configure node missing")
	}

	cases := []struct {
		name string
		want any
	}{
		{"retries", 3},
		{"verbose", true},
		{"threshold", 0.5},
		{"tags", []any{"a", "b"}},
		{"options", map[string]any{"mode": "fast", "limit": 10}},
		{"label", "plain string"},
	}
	for _, c := range cases {
		b := configure.Inputs[c.name]
		if b.Kind != dagcore.BindingLiteral {
			t.Fatalf("input %q: expected BindingLiteral, got %+v", c.name, b)
		}
		if !reflect.DeepEqual(b.Literal, c.want) {
			t.Fatalf("input %q: expected literal %#v, got %#v", c.name, c.want, b.Literal)
		}
	}
}

func asFlowError(err error, target **dagcore.FlowError) bool {
	fe, ok := err.(*dagcore.FlowError)
	if !ok {
		return false
	}
	*target = fe
	return true
}
