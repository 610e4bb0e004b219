package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/wippyai/bindkit"
	"github.com/wippyai/bindkit/call"
	"github.com/wippyai/bindkit/internal/demo"
	"github.com/wippyai/bindkit/ownership"
)

var (
	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

// NewInteractiveCommand creates the interactive command.
func NewInteractiveCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "interactive",
		Short: "Call demo functions interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := demo.Build()
			if err != nil {
				return err
			}
			p := tea.NewProgram(newInteractiveModel(b), tea.WithAltScreen())
			_, err = p.Run()
			return err
		},
	}
}

type modelState int

const (
	stateSelectFunc modelState = iota
	stateInputArgs
	stateShowResult
)

type interactiveModel struct {
	err      error
	bindings *demo.Bindings
	result   string
	funcs    []*call.Func
	inputs   []textinput.Model
	selected int
	focusIdx int
	state    modelState
}

func newInteractiveModel(b *demo.Bindings) *interactiveModel {
	m := &interactiveModel{
		bindings: b,
		state:    stateSelectFunc,
	}
	b.Adapter.EachFunc(func(f *call.Func) bool {
		m.funcs = append(m.funcs, f)
		return true
	})
	return m
}

type callResultMsg struct {
	err    error
	result string
}

func (m *interactiveModel) Init() tea.Cmd {
	return nil
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			if m.state != stateInputArgs || msg.String() == "ctrl+c" {
				return m, tea.Quit
			}

		case "up", "k":
			if m.state == stateSelectFunc && m.selected > 0 {
				m.selected--
			}

		case "down", "j":
			if m.state == stateSelectFunc && m.selected < len(m.funcs)-1 {
				m.selected++
			}

		case "enter":
			switch m.state {
			case stateSelectFunc:
				m.prepareInputs()
				if len(m.inputs) == 0 {
					return m, m.callFunction
				}
				m.state = stateInputArgs

			case stateInputArgs:
				return m, m.callFunction

			case stateShowResult:
				m.state = stateSelectFunc
				m.result = ""
				m.err = nil
			}

		case "tab":
			if m.state == stateInputArgs && len(m.inputs) > 1 {
				m.inputs[m.focusIdx].Blur()
				m.focusIdx = (m.focusIdx + 1) % len(m.inputs)
				m.inputs[m.focusIdx].Focus()
			}

		case "esc":
			switch m.state {
			case stateInputArgs:
				m.state = stateSelectFunc
				m.inputs = nil
			case stateShowResult:
				m.state = stateSelectFunc
				m.result = ""
				m.err = nil
			}
		}

	case callResultMsg:
		m.result = msg.result
		m.err = msg.err
		m.state = stateShowResult
	}

	if m.state == stateInputArgs {
		var cmds []tea.Cmd
		for i := range m.inputs {
			var cmd tea.Cmd
			m.inputs[i], cmd = m.inputs[i].Update(msg)
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)
	}

	return m, nil
}

func (m *interactiveModel) prepareInputs() {
	f := m.funcs[m.selected]
	params := f.Params()
	m.inputs = make([]textinput.Model, len(params))
	for i, p := range params {
		ti := textinput.New()
		ti.Placeholder = p.Type
		ti.Prompt = fmt.Sprintf("arg%d: ", i)
		ti.Width = 40
		if i == 0 {
			ti.Focus()
		}
		m.inputs[i] = ti
	}
	m.focusIdx = 0
}

// callFunction parses each input against the declared parameter type.
// For object parameters the input is treated as constructor arguments
// for that type; the object lives only for the duration of the call.
func (m *interactiveModel) callFunction() tea.Msg {
	f := m.funcs[m.selected]
	params := f.Params()

	args := make([]any, len(m.inputs))
	var temps []any
	for i, input := range m.inputs {
		arg, temp, err := m.convertArg(input.Value(), params[i].Type)
		if err != nil {
			releaseTemps(temps)
			return callResultMsg{err: err}
		}
		args[i] = arg
		if temp != nil {
			temps = append(temps, temp)
		}
	}

	out, err := m.bindings.Adapter.Invoke(f.Name(), args...)
	releaseTemps(temps)
	if err != nil {
		return callResultMsg{err: err}
	}

	switch r := out.(type) {
	case nil:
		return callResultMsg{result: "(no result)"}
	case ownership.Ref:
		defer r.Release()
		return callResultMsg{result: fmt.Sprintf("%v", r.Value())}
	case ownership.Shared:
		defer r.Release()
		return callResultMsg{result: fmt.Sprintf("%v", r.Value())}
	default:
		return callResultMsg{result: fmt.Sprintf("%v", out)}
	}
}

// convertArg parses value for the named parameter type. Builtins parse
// directly; anything else constructs a temporary instance of the type.
func (m *interactiveModel) convertArg(value, typeName string) (arg, temp any, err error) {
	switch typeName {
	case "bool":
		return value == "true" || value == "1", nil, nil
	case "int64":
		v, err := strconv.ParseInt(value, 10, 64)
		return v, nil, err
	case "float64":
		v, err := strconv.ParseFloat(value, 64)
		return v, nil, err
	case "string":
		return value, nil, nil
	}

	ctorArgs := parseLiterals(value)
	obj, err := m.bindings.Adapter.Construct(typeName, ctorArgs...)
	if err != nil {
		return nil, nil, err
	}
	return obj, obj, nil
}

// parseLiterals splits a comma-separated input into typed literals:
// integer, float, then bare string.
func parseLiterals(value string) []any {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	args := make([]any, len(parts))
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if v, err := strconv.ParseInt(p, 10, 64); err == nil {
			args[i] = v
			continue
		}
		if v, err := strconv.ParseFloat(p, 64); err == nil {
			args[i] = v
			continue
		}
		args[i] = p
	}
	return args
}

func releaseTemps(temps []any) {
	for _, t := range temps {
		switch h := t.(type) {
		case ownership.Ref:
			_ = h.Release()
		case ownership.Shared:
			_ = h.Release()
		}
	}
}

func (m *interactiveModel) View() string {
	if m.err != nil && m.state != stateShowResult {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err))
	}

	var b strings.Builder

	b.WriteString(headerStyle.Render("bindkit"))
	b.WriteString("\n\n")

	switch m.state {
	case stateSelectFunc:
		b.WriteString("Select a function to call:\n\n")
		for i, f := range m.funcs {
			cursor := "  "
			if i == m.selected {
				cursor = "> "
				b.WriteString(selectedStyle.Render(cursor + m.formatEntry(f)))
			} else {
				b.WriteString(cursor + m.formatEntry(f))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ select • enter call • q quit"))

	case stateInputArgs:
		f := m.funcs[m.selected]
		b.WriteString(fmt.Sprintf("Calling %s\n\n", nameStyle.Render(f.Name())))
		params := f.Params()
		for i, input := range m.inputs {
			b.WriteString(input.View())
			b.WriteString(" ")
			b.WriteString(detailStyle.Render(paramHint(params[i])))
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("tab next field • enter call • esc back"))

	case stateShowResult:
		f := m.funcs[m.selected]
		b.WriteString(fmt.Sprintf("Result of %s:\n\n", nameStyle.Render(f.Name())))
		if m.err != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		} else {
			b.WriteString(resultStyle.Render(m.result))
		}
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter continue • q quit"))
	}

	return b.String()
}

func (m *interactiveModel) formatEntry(f *call.Func) string {
	var params []string
	for _, p := range f.Params() {
		params = append(params, detailStyle.Render(p.Type))
	}
	result := ""
	if r := f.Result(); r != "" {
		result = " -> " + detailStyle.Render(r)
	}
	return nameStyle.Render(f.Name()) + "(" + strings.Join(params, ", ") + ")" + result
}

func paramHint(p call.ParamInfo) string {
	if p.Mode == bindkit.AccessRaw || p.Mode == bindkit.AccessCopy {
		return p.Type
	}
	return p.Type + " (" + p.Mode.String() + ")"
}
