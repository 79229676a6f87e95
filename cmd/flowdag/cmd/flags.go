package cmd

import "github.com/spf13/pflag"

// addFlowFlag registers the --flow flag shared by run and validate onto fs,
// binding it into target. Each caller marks the flag required on its own
// command.
func addFlowFlag(fs *pflag.FlagSet, target *string) {
	fs.StringVar(target, "flow", "", "Path to the flow definition YAML (required)")
}
