package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("63")).
			MarginBottom(1)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("244")).
			MarginBottom(1)

	NoticeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	HelpPanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(1, 2)

	HelpTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("63")).
			Bold(true)

	HelpDescStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	// Prices and limits of the focused item.
	HelpFactStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("114"))

	HelpDetailStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("244"))
)

// StepTitle renders the heading of a wizard page.
func StepTitle(n, total int, title string) string {
	return TitleStyle.Render(fmt.Sprintf("STEP %d/%d - %s", n, total, title))
}
