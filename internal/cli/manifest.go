package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wippyai/bindkit/manifest"
)

// NewManifestCommand creates the manifest command group.
func NewManifestCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "manifest",
		Short: "Work with declarative binding manifests",
	}
	cmd.AddCommand(newManifestValidateCommand())
	cmd.AddCommand(newManifestSchemaCommand())
	return cmd
}

func newManifestValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>",
		Short: "Parse and validate a binding manifest",
		Args:  cobra.ExactArgs(1),
		// Validation errors carry their own context.
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			m, err := manifest.Parse(f)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "valid: %d types, %d rules, %d functions\n",
				len(m.Types), len(m.Rules), len(m.Functions))
			return nil
		},
	}
}

func newManifestSchemaCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the manifest JSON schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := manifest.Schema()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
}
