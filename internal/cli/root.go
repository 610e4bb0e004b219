// Package cli implements the bindkit command line interface.
package cli

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wippyai/bindkit/call"
	"github.com/wippyai/bindkit/ownership"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
}

// NewRootCommand creates the root command for the bindkit CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "bindkit",
		Short: "bindkit - foreign object binding toolkit",
		Long:  "Inspect and exercise bindkit type registries, conversion rules, and ownership lifecycles.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.Verbose {
				logger, err := zap.NewDevelopment()
				if err != nil {
					return err
				}
				ownership.SetLogger(logger.Named("ownership"))
				call.SetLogger(logger.Named("call"))
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose lifecycle logging")

	cmd.AddCommand(NewDemoCommand(opts))
	cmd.AddCommand(NewInspectCommand(opts))
	cmd.AddCommand(NewManifestCommand(opts))
	cmd.AddCommand(NewInteractiveCommand(opts))

	return cmd
}
