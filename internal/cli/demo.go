package cli

import (
	"github.com/spf13/cobra"

	"github.com/wippyai/bindkit/internal/demo"
)

// NewDemoCommand creates the demo command.
func NewDemoCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Run the built-in binding scenario",
		Long: `Run a deterministic scenario over the built-in demo bindings:
reference counting, copy independence, conversion rules with base-chain
dispatch, and weak self-references.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return demo.Scenario(cmd.OutOrStdout())
		},
	}
}
