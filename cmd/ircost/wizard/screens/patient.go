// Package screens holds one bubbletea model per wizard page.
package screens

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/mrsinham/ircost/cmd/ircost/wizard/components"
	"github.com/mrsinham/ircost/internal/session"
	"github.com/mrsinham/ircost/internal/tables"
)

// TotalSteps is the number of wizard pages.
const TotalSteps = 5

// PatientScreen collects patient identity and payment scheme
type PatientScreen struct {
	form      *huh.Form
	helpPanel *components.HelpPanel
	patient   session.Patient
	scheme    string
	notice    string
	done      bool
	cancelled bool
	width     int
	height    int
}

// NewPatientScreen creates the patient page prefilled with p. With required
// set, blank text fields are rejected in the form.
func NewPatientScreen(p session.Patient, schemes []tables.Scheme, required bool, notice string) *PatientScreen {
	s := &PatientScreen{
		helpPanel: components.NewHelpPanel(),
		patient:   p,
		scheme:    string(p.Scheme),
		notice:    notice,
	}

	options := make([]huh.Option[string], 0, len(schemes))
	for _, sc := range schemes {
		options = append(options, huh.NewOption(sc.Label, string(sc.ID)))
	}

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("first_name").
				Title("First Name").
				Value(&s.patient.FirstName).
				Validate(requiredText("first name", required)),

			huh.NewInput().
				Key("last_name").
				Title("Last Name").
				Value(&s.patient.LastName).
				Validate(requiredText("last name", required)),

			huh.NewInput().
				Key("hn").
				Title("HN").
				Description("Hospital number").
				Value(&s.patient.HN).
				Validate(requiredText("HN", required)),

			huh.NewInput().
				Key("diagnosis").
				Title("Diagnosis").
				Value(&s.patient.Diagnosis).
				Validate(requiredText("diagnosis", required)),

			huh.NewSelect[string]().
				Key("scheme").
				Title("Healthcare Scheme").
				Options(options...).
				Value(&s.scheme),
		),
	).WithShowHelp(false).WithShowErrors(true)

	return s
}

// requiredText returns a validator rejecting blank values when enabled.
func requiredText(label string, enabled bool) func(string) error {
	return func(v string) error {
		if enabled && strings.TrimSpace(v) == "" {
			return fmt.Errorf("%s is required", label)
		}
		return nil
	}
}

// Init implements tea.Model
func (s *PatientScreen) Init() tea.Cmd {
	return s.form.Init()
}

// Update implements tea.Model
func (s *PatientScreen) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			s.cancelled = true
			return s, tea.Quit
		}
	case tea.WindowSizeMsg:
		s.width = msg.Width
		s.height = msg.Height
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
func (s *PatientScreen) View() string {
	if s.cancelled {
		return "Cancelled.\n"
	}

	parts := []string{components.StepTitle(1, TotalSteps, session.StepPatientInfo.Title())}
	if s.notice != "" {
		parts = append(parts, components.NoticeStyle.Render(s.notice))
	}
	parts = append(parts,
		s.form.View(),
		"",
		s.helpPanel.View(),
		"",
		"Tab: Next field | Enter: Next page | Esc: Quit",
	)

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// Done returns true if the form was completed
func (s *PatientScreen) Done() bool { return s.done }

// Cancelled returns true if the user cancelled
func (s *PatientScreen) Cancelled() bool { return s.cancelled }

// Patient returns the entered patient
func (s *PatientScreen) Patient() session.Patient {
	p := s.patient
	p.Scheme = tables.SchemeID(s.scheme)
	return p
}
