package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"
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

const historySize = 12

// NewInteractiveCommand creates the interactive command.
func NewInteractiveCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "interactive",
		Aliases: []string{"i"},
		Short:   "Allocate and cast objects by hand in a terminal UI",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !term.IsTerminal(int(os.Stdin.Fd())) {
				return errors.New("interactive mode needs a terminal on stdin")
			}
			cfg, err := LoadConfig(rootOpts.Config)
			if err != nil {
				return err
			}
			return runInteractive(cmd.Context(), cfg)
		},
	}
}

type entry struct {
	err    error
	input  string
	output string
}

type interactiveModel struct {
	session *Session
	history []entry
	input   textinput.Model
	quit    bool
}

func newInteractiveModel(s *Session) *interactiveModel {
	ti := textinput.New()
	ti.Placeholder = "alloc foo"
	ti.Prompt = promptStyle.Render("tag> ")
	ti.CharLimit = 256
	ti.Focus()

	return &interactiveModel{
		session: s,
		input:   ti,
	}
}

func (m *interactiveModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.quit = true
			return m, tea.Quit

		case tea.KeyEnter:
			line := strings.TrimSpace(m.input.Value())
			m.input.SetValue("")
			if line == "" {
				return m, nil
			}
			out, err := m.session.Exec(line)
			if errors.Is(err, ErrQuit) {
				m.quit = true
				return m, tea.Quit
			}
			m.push(entry{input: line, output: out, err: err})
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *interactiveModel) push(e entry) {
	m.history = append(m.history, e)
	if len(m.history) > historySize {
		m.history = m.history[len(m.history)-historySize:]
	}
}

func (m *interactiveModel) View() string {
	if m.quit {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("tagdemo"))
	b.WriteString(fmt.Sprintf(" %d live\n\n", m.session.Len()))

	for _, e := range m.history {
		b.WriteString(promptStyle.Render("> " + e.input))
		b.WriteString("\n")
		if e.err != nil {
			b.WriteString(errorStyle.Render(e.err.Error()))
		} else if e.output != "" {
			b.WriteString(resultStyle.Render(e.output))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n\n")
	b.WriteString(helpStyle.Render("enter run • help commands • esc quit"))
	return b.String()
}

func runInteractive(ctx context.Context, cfg Config) error {
	s, err := NewSession(ctx, cfg)
	if err != nil {
		return err
	}
	defer s.Close(ctx)

	p := tea.NewProgram(newInteractiveModel(s), tea.WithAltScreen())
	_, err = p.Run()
	return err
}
