package screens

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mrsinham/ircost/cmd/ircost/wizard/components"
)

var (
	successTitleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("42")).
				Bold(true)

	errorTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	messageStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("244")).
			Italic(true)
)

// CompletionScreen reports a written file
type CompletionScreen struct {
	title string
	lines []string
	done  bool
}

// NewCompletionScreen creates a completion screen
func NewCompletionScreen(title string, lines ...string) *CompletionScreen {
	return &CompletionScreen{title: title, lines: lines}
}

// Init implements tea.Model
func (s *CompletionScreen) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model
func (s *CompletionScreen) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "ctrl+c", "esc", "enter", "q":
			s.done = true
			return s, tea.Quit
		}
	}
	return s, nil
}

// View implements tea.Model
func (s *CompletionScreen) View() string {
	var sb strings.Builder

	sb.WriteString(successTitleStyle.Render("✓ " + s.title))
	sb.WriteString("\n\n")
	for _, l := range s.lines {
		sb.WriteString("  ")
		sb.WriteString(messageStyle.Render(l))
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
	sb.WriteString(hintStyle.Render("Press Enter or q to exit"))

	return sb.String()
}

// Done returns true if the user is finished
func (s *CompletionScreen) Done() bool { return s.done }

// ErrorScreen displays an error that stopped the wizard
type ErrorScreen struct {
	err  error
	done bool
}

// NewErrorScreen creates a new error screen
func NewErrorScreen(err error) *ErrorScreen {
	return &ErrorScreen{
		err: err,
	}
}

// Init implements tea.Model
func (s *ErrorScreen) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model
func (s *ErrorScreen) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "ctrl+c", "esc", "enter", "q":
			s.done = true
			return s, tea.Quit
		}
	}
	return s, nil
}

// View implements tea.Model
func (s *ErrorScreen) View() string {
	var sb strings.Builder

	sb.WriteString(errorTitleStyle.Render("✗ Cost calculation stopped"))
	sb.WriteString("\n\n")

	sb.WriteString(components.TitleStyle.Render("Error:"))
	sb.WriteString("\n")
	sb.WriteString("  ")
	sb.WriteString(messageStyle.Render(s.err.Error()))
	sb.WriteString("\n\n")

	sb.WriteString(hintStyle.Render("Check the price list and reference tables, then restart. Press Enter or q to exit"))

	return sb.String()
}

// Done returns true if the user is finished
func (s *ErrorScreen) Done() bool {
	return s.done
}
