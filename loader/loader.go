package loader

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/dshills/flowdag/dagcore"
)

var compiledSchema *jsonschema.Schema

func init() {
	raw, err := json.Marshal(flowSchema)
	if err != nil {
		panic(fmt.Sprintf("loader: marshal embedded flow schema: %v", err))
	}
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft7
	if err := compiler.AddResource("flow.json", bytes.NewReader(raw)); err != nil {
		panic(fmt.Sprintf("loader: add flow schema resource: %v", err))
	}
	compiledSchema, err = compiler.Compile("flow.json")
	if err != nil {
		panic(fmt.Sprintf("loader: compile flow schema: %v", err))
	}
}

// Load reads a flow definition from path, validates it, and lowers it into
// a dagcore.Flow ready for execution.
func Load(path string) (*dagcore.Flow, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &dagcore.FlowError{Code: "READ_FAILED", Message: err.Error(), Cause: err}
	}
	return LoadBytes(raw)
}

// LoadBytes parses and validates a flow definition already in memory.
func LoadBytes(raw []byte) (*dagcore.Flow, error) {
	var generic any
	if err := yaml.Unmarshal(raw, &generic); err != nil {
		return nil, &dagcore.FlowError{Code: "PARSE_FAILED", Message: err.Error(), Cause: err}
	}
	normalized, err := toJSONCompatible(generic)
	if err != nil {
		return nil, &dagcore.FlowError{Code: "PARSE_FAILED", Message: err.Error(), Cause: err}
	}
	if err := compiledSchema.Validate(normalized); err != nil {
		return nil, &dagcore.FlowError{Code: "SCHEMA_INVALID", Message: err.Error(), Cause: err}
	}

	var doc document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, &dagcore.FlowError{Code: "PARSE_FAILED", Message: err.Error(), Cause: err}
	}

	return lower(&doc)
}

// CallableSpec names the callable implementation a node document declared
// via its `uses` block. The scheduler never consults this; it exists for
// callers (the CLI runner) that build a dagcore.Registry from a flow
// document rather than wiring one by hand.
type CallableSpec struct {
	NodeName string
	Type     string
	Config   map[string]any
}

// CallableSpecs reads path and returns the uses-block of every node that
// declared one, in document order. Nodes without a uses block are omitted.
func CallableSpecs(path string) ([]CallableSpec, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &dagcore.FlowError{Code: "READ_FAILED", Message: err.Error(), Cause: err}
	}
	return CallableSpecsBytes(raw)
}

// CallableSpecsBytes is CallableSpecs over an in-memory document.
func CallableSpecsBytes(raw []byte) ([]CallableSpec, error) {
	var doc document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, &dagcore.FlowError{Code: "PARSE_FAILED", Message: err.Error(), Cause: err}
	}
	var specs []CallableSpec
	for _, nd := range doc.Nodes {
		if nd.Uses == nil {
			continue
		}
		specs = append(specs, CallableSpec{NodeName: nd.Name, Type: nd.Uses.Type, Config: nd.Uses.Config})
	}
	return specs, nil
}

// toJSONCompatible converts yaml.v3's decoded map[string]interface{} tree
// (which yaml already produces for mapping nodes) through a JSON
// round-trip so jsonschema, which expects JSON-native types, never sees a
// YAML-specific representation.
func toJSONCompatible(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}
