package loader

// flowSchema is the JSON Schema describing the on-disk shape of a flow
// definition: top-level inputs/outputs/nodes, each node carrying name,
// inputs, an optional skip or activate clause, and an aggregation flag.
// Authored as a Go literal rather than an embedded file so the loader has no
// external-file dependency beyond the flow document itself.
var flowSchema = map[string]any{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type":    "object",
	"required": []any{"nodes"},
	"properties": map[string]any{
		"inputs": map[string]any{
			"type": "object",
			"additionalProperties": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"type":     map[string]any{"type": "string"},
					"required": map[string]any{"type": "boolean"},
				},
			},
		},
		"outputs": map[string]any{
			"type":                 "object",
			"additionalProperties": map[string]any{"type": "string"},
		},
		"nodes": map[string]any{
			"type":  "array",
			"items": nodeSchema,
		},
	},
}

var nodeSchema = map[string]any{
	"type":     "object",
	"required": []any{"name"},
	"properties": map[string]any{
		"name": map[string]any{"type": "string", "minLength": 1},
		"inputs": map[string]any{
			"type": "object",
			// A node input may be a "${...}" binding reference string or any
			// native scalar/structured literal (number, bool, list, map);
			// parseInputBinding decides which, so no shape is enforced here.
			"additionalProperties": map[string]any{},
		},
		"skip": map[string]any{
			"type":     "object",
			"required": []any{"when", "return"},
			"properties": map[string]any{
				"when":   map[string]any{"type": "string"},
				"return": map[string]any{"type": "string"},
			},
		},
		"activate": map[string]any{
			"type":     "object",
			"required": []any{"when"},
			"properties": map[string]any{
				"when": map[string]any{"type": "string"},
			},
		},
		"aggregation": map[string]any{"type": "boolean"},
		"defaults": map[string]any{
			"type":  "array",
			"items": map[string]any{"type": "string"},
		},
		"uses": map[string]any{
			"type":     "object",
			"required": []any{"type"},
			"properties": map[string]any{
				"type":   map[string]any{"type": "string"},
				"config": map[string]any{"type": "object"},
			},
		},
	},
}
