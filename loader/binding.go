package loader

import (
	"strings"

	"github.com/dshills/flowdag/dagcore"
)

// parseBinding parses a binding string into a dagcore.Binding. Recognized
// forms: "${flow.<name>}", "${<node>.output}", "${<node>.output.<path>}".
// Anything else is treated as a string literal value.
func parseBinding(raw string) (dagcore.Binding, error) {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "${") || !strings.HasSuffix(trimmed, "}") {
		return dagcore.Lit(raw), nil
	}
	inner := strings.TrimSuffix(strings.TrimPrefix(trimmed, "${"), "}")
	parts := strings.Split(inner, ".")
	if len(parts) == 0 || parts[0] == "" {
		return dagcore.Binding{}, &dagcore.FlowError{Code: "INVALID_BINDING", Message: "empty binding reference: " + raw}
	}

	if parts[0] == "flow" {
		if len(parts) != 2 {
			return dagcore.Binding{}, &dagcore.FlowError{Code: "INVALID_BINDING", Message: "flow input reference must be ${flow.<name>}: " + raw}
		}
		return dagcore.FlowInputRef(parts[1]), nil
	}

	// ${<node>.output[.<path...>]}
	if len(parts) < 2 || parts[1] != "output" {
		return dagcore.Binding{}, &dagcore.FlowError{Code: "INVALID_BINDING", Message: "node reference must be ${<node>.output[.<path>]}: " + raw}
	}
	nodeName := parts[0]
	path := parts[2:]
	return dagcore.NodeRef(nodeName, path...), nil
}

// parseInputBinding parses a node input value decoded from YAML/JSON, which
// may be a binding reference string or any native scalar/structured literal
// (number, bool, list, map). Only string values are checked for the "${...}"
// reference syntax; every other shape is passed through as-is via
// dagcore.Lit, so a node can declare a literal number, boolean, or nested
// object/array input without it being coerced to a Go string.
func parseInputBinding(raw any) (dagcore.Binding, error) {
	s, ok := raw.(string)
	if !ok {
		return dagcore.Lit(raw), nil
	}
	return parseBinding(s)
}
