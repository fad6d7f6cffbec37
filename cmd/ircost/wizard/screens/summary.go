package screens

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/mrsinham/ircost/cmd/ircost/wizard/components"
	"github.com/mrsinham/ircost/internal/cost"
	"github.com/mrsinham/ircost/internal/report"
	"github.com/mrsinham/ircost/internal/session"
)

// SummaryAction represents the action selected on the summary screen
type SummaryAction string

const (
	// SummaryActionNext continues to the report page
	SummaryActionNext SummaryAction = "next"
	// SummaryActionSave writes the session to a YAML file
	SummaryActionSave SummaryAction = "save"
	// SummaryActionBack returns to the equipment page
	SummaryActionBack SummaryAction = "back"
	// SummaryActionCancel exits the wizard
	SummaryActionCancel SummaryAction = "cancel"
)

var (
	summaryPanelStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("63")).
				Padding(1, 2)

	summaryTitleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("63")).
				Bold(true).
				MarginBottom(1)

	summaryLabelStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("244"))

	summaryValueStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("252")).
				Bold(true)
)

// SummaryInfo is what the summary page shows.
type SummaryInfo struct {
	Patient     session.Patient
	SchemeLabel string
	Operation   string
	Summary     cost.Summary
	Format      report.Format
}

// SummaryScreen displays the itemized cost and the totals
type SummaryScreen struct {
	form      *huh.Form
	helpPanel *components.HelpPanel
	info      SummaryInfo
	notice    string
	action    string
	done      bool
	cancelled bool
}

// NewSummaryScreen creates a new summary screen
func NewSummaryScreen(info SummaryInfo, notice string) *SummaryScreen {
	s := &SummaryScreen{
		helpPanel: components.NewHelpPanel(),
		info:      info,
		notice:    notice,
		action:    string(SummaryActionNext),
	}

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Key("action").
				Title("Select an action").
				Options(
					huh.NewOption("Generate report", string(SummaryActionNext)),
					huh.NewOption("Save session to YAML", string(SummaryActionSave)),
					huh.NewOption("Back to equipment", string(SummaryActionBack)),
					huh.NewOption("Cancel and exit", string(SummaryActionCancel)),
				).
				Value(&s.action),
		),
	).WithShowHelp(false)

	return s
}

// Init implements tea.Model
func (s *SummaryScreen) Init() tea.Cmd {
	return s.form.Init()
}

// Update implements tea.Model
func (s *SummaryScreen) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			s.cancelled = true
			return s, tea.Quit
		case "esc":
			// Esc goes back instead of cancelling
			s.action = string(SummaryActionBack)
			s.done = true
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
func (s *SummaryScreen) View() string {
	if s.cancelled {
		return "Cancelled.\n"
	}

	parts := []string{
		components.StepTitle(4, TotalSteps, session.StepCostSummary.Title()),
		summaryPanelStyle.Render(s.buildPatientPanel()),
		summaryPanelStyle.Render(s.buildCostTable()),
	}
	if s.notice != "" {
		parts = append(parts, components.NoticeStyle.Render(s.notice))
	}
	parts = append(parts,
		"",
		s.form.View(),
		"",
		"Enter: Select action | Esc: Back",
	)

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (s *SummaryScreen) buildPatientPanel() string {
	var sb strings.Builder
	row := func(label, value string) {
		sb.WriteString(summaryLabelStyle.Render(label + ": "))
		sb.WriteString(summaryValueStyle.Render(value))
		sb.WriteString("\n")
	}

	p := s.info.Patient
	row("Name", p.FullName())
	row("HN", p.HN)
	row("Diagnosis", p.Diagnosis)
	row("Healthcare Scheme", s.info.SchemeLabel)
	row("Operation", s.info.Operation)

	return strings.TrimSuffix(sb.String(), "\n")
}

// buildCostTable renders one row per used item and the three totals.
func (s *SummaryScreen) buildCostTable() string {
	sum := s.info.Summary
	f := s.info.Format

	nameWidth := len("Equipment")
	for _, l := range sum.Lines {
		nameWidth = max(nameWidth, lipgloss.Width(l.Name))
	}

	var sb strings.Builder
	sb.WriteString(summaryTitleStyle.Render("Equipment Used"))
	sb.WriteString("\n")
	sb.WriteString(summaryLabelStyle.Render(fmt.Sprintf("%-*s %5s %14s %14s", nameWidth, "Equipment", "Qty", "Cost", "Reimbursed")))
	sb.WriteString("\n")

	if len(sum.Lines) == 0 {
		sb.WriteString(summaryLabelStyle.Render("(no equipment)"))
		sb.WriteString("\n")
	}
	for _, l := range sum.Lines {
		sb.WriteString(fmt.Sprintf("%-*s %5d %14s %14s\n", nameWidth, l.Name, l.Quantity,
			report.FormatAmount(l.Cost, f), report.FormatAmount(l.Reimbursement, f)))
	}

	sb.WriteString("\n")
	total := func(label string, v string) {
		sb.WriteString(summaryLabelStyle.Render(label + ": "))
		sb.WriteString(summaryValueStyle.Render(v))
		sb.WriteString("\n")
	}
	total("Total Cost", report.FormatAmount(sum.TotalCost, f))
	total("Total Reimbursement", report.FormatAmount(sum.TotalReimbursement, f))
	total("Out-of-pocket Cost", report.FormatAmount(sum.OutOfPocket, f))

	return strings.TrimSuffix(sb.String(), "\n")
}

// Done returns true if an action was chosen
func (s *SummaryScreen) Done() bool { return s.done }

// Cancelled returns true if the user cancelled
func (s *SummaryScreen) Cancelled() bool { return s.cancelled }

// Action returns the chosen action
func (s *SummaryScreen) Action() SummaryAction { return SummaryAction(s.action) }
