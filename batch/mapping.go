package batch

import (
	"fmt"
	"regexp"
	"strings"
)

var dataTemplateRef = regexp.MustCompile(`^\$\{data\.([A-Za-z0-9_.]+)\}$`)

// InputResolutionError reports a row missing a column a mapping template
// refers to. It aborts only the one line, not the batch.
type InputResolutionError struct {
	FlowInput string
	Column    string
}

func (e *InputResolutionError) Error() string {
	return fmt.Sprintf("input %q: row has no column %q", e.FlowInput, e.Column)
}

// mapRowToLineInputs builds one line's flow inputs from a row, substituting
// each mapping's ${data.<col>} template. A mapping value that is exactly one
// template reference yields the row's value unchanged (preserving type,
// including MultimediaRef); anything else is treated as a literal.
func mapRowToLineInputs(row map[string]any, mapping map[string]string) (map[string]any, error) {
	inputs := make(map[string]any, len(mapping))
	for flowInput, template := range mapping {
		if m := dataTemplateRef.FindStringSubmatch(strings.TrimSpace(template)); m != nil {
			col := m[1]
			v, ok := row[col]
			if !ok {
				return nil, &InputResolutionError{FlowInput: flowInput, Column: col}
			}
			inputs[flowInput] = v
			continue
		}
		inputs[flowInput] = template
	}
	return inputs, nil
}
