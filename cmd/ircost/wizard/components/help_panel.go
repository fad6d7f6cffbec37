package components

import (
	"strings"

	"github.com/mrsinham/ircost/cmd/ircost/wizard/help"
)

// HelpPanel shows help for the focused form field. A key of the form
// "group:item" uses the text of group, titled with item, followed by the
// facts registered for that exact key.
type HelpPanel struct {
	key    string
	facts  map[string][]string
	width  int
	height int
}

// NewHelpPanel creates an empty panel.
func NewHelpPanel() *HelpPanel {
	return &HelpPanel{
		facts:  make(map[string][]string),
		width:  60,
		height: 10,
	}
}

// SetField selects the field whose help is shown.
func (h *HelpPanel) SetField(key string) { h.key = key }

// Field returns the help group of the focused field.
func (h *HelpPanel) Field() string {
	group, _, _ := strings.Cut(h.key, ":")
	return group
}

// SetFacts attaches lines such as prices or limits to one field key.
func (h *HelpPanel) SetFacts(key string, lines ...string) {
	h.facts[key] = lines
}

// SetSize fits the panel into the terminal.
func (h *HelpPanel) SetSize(width, height int) {
	h.width = max(width, 30)
	h.height = height
}

// View renders the panel. Details are cut to the available height.
func (h *HelpPanel) View() string {
	style := HelpPanelStyle.Width(h.width - 4)

	group, item, _ := strings.Cut(h.key, ":")
	text, ok := help.Texts[group]
	if !ok {
		return style.Render(HelpDetailStyle.Render("Move to a field to see its help"))
	}

	title := text.Title
	if item != "" {
		title = strings.ToUpper(item)
	}
	parts := []string{
		"ℹ️  " + HelpTitleStyle.Render(title),
		HelpDescStyle.Render(text.Description),
	}
	facts := h.facts[h.key]
	if len(facts) > 0 {
		parts = append(parts, HelpFactStyle.Render(strings.Join(facts, "\n")))
	}
	if details := clipLines(text.Details, h.height-4-len(facts)); details != "" {
		parts = append(parts, HelpDetailStyle.Render(details))
	}
	return style.Render(strings.Join(parts, "\n\n"))
}

// clipLines keeps at most n lines of s, marking the cut with an ellipsis.
// A non-positive n keeps everything.
func clipLines(s string, n int) string {
	lines := strings.Split(s, "\n")
	if n <= 0 || len(lines) <= n {
		return s
	}
	return strings.Join(lines[:n], "\n") + " …"
}
