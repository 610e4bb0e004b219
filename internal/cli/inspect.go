package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/wippyai/bindkit/call"
	"github.com/wippyai/bindkit/internal/demo"
	"github.com/wippyai/bindkit/registry"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	nameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	detailStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

// NewInspectCommand creates the inspect command.
func NewInspectCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect",
		Short: "List the demo registry's types, rules, and functions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := demo.Build()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			fmt.Fprintln(out, headerStyle.Render("Types"))
			b.Registry.Each(func(t *registry.Type) bool {
				fmt.Fprintln(out, "  "+formatType(t))
				return true
			})

			fmt.Fprintln(out)
			fmt.Fprintln(out, headerStyle.Render("Conversion Rules"))
			b.Registry.Rules().Each(func(src, dst *registry.Type) bool {
				fmt.Fprintf(out, "  %s -> %s\n",
					nameStyle.Render(src.Name), nameStyle.Render(dst.Name))
				return true
			})

			fmt.Fprintln(out)
			fmt.Fprintln(out, headerStyle.Render("Functions"))
			b.Adapter.EachFunc(func(f *call.Func) bool {
				fmt.Fprintln(out, "  "+formatFunc(f))
				return true
			})
			return nil
		},
	}
}

func formatType(t *registry.Type) string {
	s := nameStyle.Render(t.Name) + " " + detailStyle.Render(t.Strategy.String())
	if t.Base != nil {
		s += dimStyle.Render(" base=" + t.Base.Name)
	}
	if n := t.Constructors(); n > 0 {
		s += dimStyle.Render(fmt.Sprintf(" ctors=%d", n))
	}
	return s
}

func formatFunc(f *call.Func) string {
	var params []string
	for _, p := range f.Params() {
		params = append(params, detailStyle.Render(p.Type)+dimStyle.Render("/"+p.Mode.String()))
	}
	s := nameStyle.Render(f.Name()) + "(" + strings.Join(params, ", ") + ")"
	if r := f.Result(); r != "" {
		s += " -> " + detailStyle.Render(r)
	}
	return s
}
