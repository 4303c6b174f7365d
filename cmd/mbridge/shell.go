package main

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/wippyai/mbridge"
	"github.com/wippyai/mbridge/callin"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

// shown is how many past commands the shell keeps on screen.
const shown = 20

// NewShellCommand creates the shell command.
func NewShellCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Interactive M command prompt",
		Long: `Interactive M command prompt. Each line runs through mexec.

A line starting with ? evaluates an expression and prints its value:
  ?$H
  ?$$fact^vavistagtm(5)`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := &bytes.Buffer{}
			// the program handles interrupts and returns, so Close runs
			b, err := rootOpts.open(cmd, mbridge.WithOutput(out), mbridge.WithoutSignalHandling())
			if err != nil {
				return err
			}
			defer b.Close()

			p := tea.NewProgram(newShellModel(ctxOf(cmd), b, out), tea.WithContext(ctxOf(cmd)))
			_, err = p.Run()
			return err
		},
	}
}

type shellEntry struct {
	err    error
	line   string
	output string
}

type shellModel struct {
	ctx     context.Context
	bridge  *mbridge.Bridge
	out     *bytes.Buffer
	input   textinput.Model
	entries []shellEntry
	lines   []string
	recall  int
	running bool
}

type execResultMsg struct {
	entry shellEntry
}

func newShellModel(ctx context.Context, b *mbridge.Bridge, out *bytes.Buffer) *shellModel {
	ti := textinput.New()
	ti.Prompt = promptStyle.Render("M> ")
	ti.Placeholder = `write "hello",!`
	ti.Width = 72
	ti.CharLimit = 0
	ti.Focus()
	return &shellModel{ctx: ctx, bridge: b, out: out, input: ti}
}

func (m *shellModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *shellModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyCtrlD:
			return m, tea.Quit

		case tea.KeyEnter:
			line := strings.TrimSpace(m.input.Value())
			if line == "" || m.running {
				return m, nil
			}
			if line == "halt" || line == "h" {
				return m, tea.Quit
			}
			m.lines = append(m.lines, line)
			m.recall = len(m.lines)
			m.input.SetValue("")
			m.running = true
			return m, m.run(line)

		case tea.KeyUp:
			if m.recall > 0 {
				m.recall--
				m.input.SetValue(m.lines[m.recall])
				m.input.CursorEnd()
			}
			return m, nil

		case tea.KeyDown:
			if m.recall < len(m.lines)-1 {
				m.recall++
				m.input.SetValue(m.lines[m.recall])
				m.input.CursorEnd()
			} else {
				m.recall = len(m.lines)
				m.input.SetValue("")
			}
			return m, nil
		}

	case execResultMsg:
		m.running = false
		m.entries = append(m.entries, msg.entry)
		if len(m.entries) > shown {
			m.entries = m.entries[len(m.entries)-shown:]
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// run executes one line. The engine's WRITE output for the line is
// drained into the entry.
func (m *shellModel) run(line string) tea.Cmd {
	return func() tea.Msg {
		e := shellEntry{line: line}
		if expr, ok := strings.CutPrefix(line, "?"); ok {
			rv, err := m.bridge.Exec(m.ctx, "set s0="+expr, callin.Out(""))
			if err == nil {
				m.out.WriteString(rv.Text(0))
			}
			e.err = err
		} else {
			_, e.err = m.bridge.Exec(m.ctx, line)
		}
		e.output = m.out.String()
		m.out.Reset()
		return execResultMsg{entry: e}
	}
}

func (m *shellModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("M Shell"))
	b.WriteString(" ")
	b.WriteString(m.bridge.Config().Engine)
	b.WriteString("\n\n")

	for _, e := range m.entries {
		b.WriteString(promptStyle.Render("M> "))
		b.WriteString(e.line)
		b.WriteString("\n")
		if e.output != "" {
			b.WriteString(resultStyle.Render(strings.TrimRight(e.output, "\n")))
			b.WriteString("\n")
		}
		if e.err != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", e.err)))
			b.WriteString("\n")
		}
	}

	b.WriteString(m.input.View())
	b.WriteString("\n\n")
	if m.running {
		b.WriteString(helpStyle.Render("running..."))
	} else {
		b.WriteString(helpStyle.Render("enter run • ?expr evaluate • ↑/↓ history • ctrl+c quit"))
	}
	return b.String()
}
