package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/flowdag/loader"
)

var validateFlowPath string

func init() {
	addFlowFlag(validateCmd.Flags(), &validateFlowPath)
	_ = validateCmd.MarkFlagRequired("flow")
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a flow definition without running it",
	RunE: func(cmd *cobra.Command, args []string) error {
		flow, err := loader.Load(validateFlowPath)
		if err != nil {
			return fmt.Errorf("flow invalid: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "flow valid: %d node(s), %d declared output(s)\n",
			len(flow.Nodes), len(flow.DeclaredOutputOrder))
		return nil
	},
}
