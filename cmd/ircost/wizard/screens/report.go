package screens

import (
	"fmt"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/mrsinham/ircost/cmd/ircost/wizard/components"
	"github.com/mrsinham/ircost/internal/session"
)

// ReportScreen asks where and in which format to write the summary document
type ReportScreen struct {
	form      *huh.Form
	helpPanel *components.HelpPanel
	path      string
	format    string
	notice    string
	done      bool
	back      bool
	cancelled bool
}

// NewReportScreen creates the report page.
func NewReportScreen(path, format string, formats []string, notice string) *ReportScreen {
	s := &ReportScreen{
		helpPanel: components.NewHelpPanel(),
		path:      path,
		format:    format,
		notice:    notice,
	}

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Key("report_format").
				Title("Format").
				Options(huh.NewOptions(formats...)...).
				Value(&s.format),

			huh.NewInput().
				Key("report_path").
				Title("Save report to").
				Value(&s.path).
				Validate(func(v string) error {
					if strings.TrimSpace(v) == "" {
						return fmt.Errorf("path is required")
					}
					return nil
				}),
		),
	).WithShowHelp(false).WithShowErrors(true)

	return s
}

// Init implements tea.Model
func (s *ReportScreen) Init() tea.Cmd {
	return s.form.Init()
}

// Update implements tea.Model
func (s *ReportScreen) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
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
func (s *ReportScreen) View() string {
	if s.cancelled {
		return "Cancelled.\n"
	}

	parts := []string{components.StepTitle(5, TotalSteps, session.StepReportDownload.Title())}
	if s.notice != "" {
		parts = append(parts, components.NoticeStyle.Render(s.notice))
	}
	parts = append(parts,
		s.form.View(),
		"",
		s.helpPanel.View(),
		"",
		"Enter: Write report | Esc: Back to summary | Ctrl+C: Quit",
	)

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// Done returns true if the form was completed
func (s *ReportScreen) Done() bool { return s.done }

// Back returns true if the user asked for the previous page
func (s *ReportScreen) Back() bool { return s.back }

// Cancelled returns true if the user cancelled
func (s *ReportScreen) Cancelled() bool { return s.cancelled }

// Format returns the chosen format name.
func (s *ReportScreen) Format() string { return s.format }

// Path returns the output path with its extension replaced by ext.
func (s *ReportScreen) Path(ext string) string {
	return WithExtension(s.path, ext)
}

// WithExtension replaces the extension of path.
func WithExtension(path, ext string) string {
	path = strings.TrimSpace(path)
	return strings.TrimSuffix(path, filepath.Ext(path)) + "." + ext
}
