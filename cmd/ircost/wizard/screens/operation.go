package screens

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/mrsinham/ircost/cmd/ircost/wizard/components"
	"github.com/mrsinham/ircost/internal/session"
	"github.com/mrsinham/ircost/internal/tables"
)

// OperationScreen selects the procedure. "Others" reveals a free-text field.
type OperationScreen struct {
	form      *huh.Form
	helpPanel *components.HelpPanel
	choice    string
	custom    string
	notice    string
	done      bool
	back      bool
	cancelled bool
}

// NewOperationScreen creates the operation page.
func NewOperationScreen(choice, custom string, names []string, required bool, notice string) *OperationScreen {
	s := &OperationScreen{
		helpPanel: components.NewHelpPanel(),
		choice:    choice,
		custom:    custom,
		notice:    notice,
	}

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Key("operation").
				Title("Operation").
				Options(huh.NewOptions(names...)...).
				Value(&s.choice),
		),
		huh.NewGroup(
			huh.NewInput().
				Key("custom_operation").
				Title("Specify Other Operation").
				Value(&s.custom).
				Validate(requiredText("operation name", required)),
		).WithHideFunc(func() bool { return s.choice != tables.OtherOperation }),
	).WithShowHelp(false).WithShowErrors(true)

	return s
}

// Init implements tea.Model
func (s *OperationScreen) Init() tea.Cmd {
	return s.form.Init()
}

// Update implements tea.Model
func (s *OperationScreen) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			s.cancelled = true
			return s, tea.Quit
		case "esc":
			s.back = true
			return s, nil
		}
	case tea.WindowSizeMsg:
		s.helpPanel.SetSize(msg.Width/3, msg.Height/2)
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	if focused := s.form.GetFocusedField(); focused != nil {
		s.helpPanel.SetField(focused.GetKey())
	}

	if s.form.State == huh.StateCompleted {
		s.done = true
	}

	return s, cmd
}

// View implements tea.Model
func (s *OperationScreen) View() string {
	if s.cancelled {
		return "Cancelled.\n"
	}

	parts := []string{components.StepTitle(2, TotalSteps, session.StepOperationSelect.Title())}
	if s.notice != "" {
		parts = append(parts, components.NoticeStyle.Render(s.notice))
	}
	parts = append(parts,
		s.form.View(),
		"",
		s.helpPanel.View(),
		"",
		"Enter: Next page | Esc: Previous page | Ctrl+C: Quit",
	)

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// Done returns true if the form was completed
func (s *OperationScreen) Done() bool { return s.done }

// Back returns true if the user asked for the previous page
func (s *OperationScreen) Back() bool { return s.back }

// Cancelled returns true if the user cancelled
func (s *OperationScreen) Cancelled() bool { return s.cancelled }

// Choice returns the selected operation and the free text, if any.
func (s *OperationScreen) Choice() (string, string) { return s.choice, s.custom }
