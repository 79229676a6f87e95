// Package loader reads a flow definition from disk, validates it against a
// JSON Schema, and lowers it into the immutable dagcore.Flow/dagcore.Node
// structs the scheduler runs against.
package loader

// document is the intermediate, YAML-shaped representation of a flow
// definition, decoded before binding strings are parsed and the node graph
// is validated.
type document struct {
	Inputs  map[string]inputDoc `yaml:"inputs"`
	Outputs map[string]string   `yaml:"outputs"`
	Nodes   []nodeDoc           `yaml:"nodes"`
}

type inputDoc struct {
	Type     string `yaml:"type"`
	Required bool   `yaml:"required"`
}

type nodeDoc struct {
	Name        string         `yaml:"name"`
	Inputs      map[string]any `yaml:"inputs"`
	Skip        *skipDoc       `yaml:"skip"`
	Activate    *activateDoc   `yaml:"activate"`
	Aggregation bool           `yaml:"aggregation"`
	Defaults    []string       `yaml:"defaults"`
	Uses        *usesDoc       `yaml:"uses"`
}

// usesDoc names the callable implementation a node runs against at dispatch
// time. The scheduler itself never looks at this — only CallableSpecs does,
// for callers building a dagcore.Registry from a flow document.
type usesDoc struct {
	Type   string         `yaml:"type"`
	Config map[string]any `yaml:"config"`
}

type skipDoc struct {
	When   string `yaml:"when"`
	Is     any    `yaml:"is"`
	Return string `yaml:"return"`
}

type activateDoc struct {
	When string `yaml:"when"`
	Is   any    `yaml:"is"`
}
