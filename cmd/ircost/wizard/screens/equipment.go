package screens

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/mrsinham/ircost/cmd/ircost/wizard/components"
	"github.com/mrsinham/ircost/internal/cost"
	"github.com/mrsinham/ircost/internal/session"
)

// equipmentPerPage is the number of quantity inputs per form group.
const equipmentPerPage = 8

// EquipmentField is one quantity input. UnitCost and UnitReimbursement are
// preformatted amounts shown in the help panel; empty ones are omitted.
type EquipmentField struct {
	Name              string
	Max               int
	Quantity          int
	UnitCost          string
	UnitReimbursement string
}

// facts lists what the help panel shows for the field.
func (f EquipmentField) facts() []string {
	var lines []string
	if f.UnitCost != "" {
		lines = append(lines, "Unit cost: "+f.UnitCost)
	}
	if f.UnitReimbursement != "" {
		lines = append(lines, "Reimbursed per unit: "+f.UnitReimbursement)
	}
	if f.Max == 1 {
		return append(lines, "Accepted: 0-1 (single use)")
	}
	return append(lines, fmt.Sprintf("Accepted: 0-%d", f.Max))
}

// EquipmentScreen edits the quantity of every catalog item
type EquipmentScreen struct {
	form      *huh.Form
	helpPanel *components.HelpPanel
	fields    []EquipmentField
	values    []string
	operation string
	done      bool
	back      bool
	cancelled bool
}

// NewEquipmentScreen creates the equipment page with the given starting
// quantities, in catalog order.
func NewEquipmentScreen(operation string, fields []EquipmentField) *EquipmentScreen {
	s := &EquipmentScreen{
		helpPanel: components.NewHelpPanel(),
		fields:    fields,
		values:    make([]string, len(fields)),
		operation: operation,
	}

	var groups []*huh.Group
	var page []huh.Field
	pages := (len(fields) + equipmentPerPage - 1) / equipmentPerPage

	for i, f := range fields {
		s.values[i] = strconv.Itoa(f.Quantity)
		limit := f.Max
		key := "equipment:" + f.Name
		s.helpPanel.SetFacts(key, f.facts()...)
		page = append(page, huh.NewInput().
			Key(key).
			Title(f.Name).
			Description(fmt.Sprintf("0-%d", limit)).
			CharLimit(4).
			Value(&s.values[i]).
			Validate(func(v string) error {
				_, err := ParseQuantity(v, limit)
				return err
			}))

		if len(page) == equipmentPerPage || i == len(fields)-1 {
			g := huh.NewGroup(page...)
			if pages > 1 {
				g = g.Title(fmt.Sprintf("Page %d/%d", len(groups)+1, pages))
			}
			groups = append(groups, g)
			page = nil
		}
	}

	if len(groups) == 0 {
		groups = append(groups, huh.NewGroup(
			huh.NewNote().Title("No equipment").Description("The catalog is empty."),
		))
	}

	s.form = huh.NewForm(groups...).WithShowHelp(false).WithShowErrors(true)
	return s
}

// ParseQuantity reads a quantity input. Blank means 0.
func ParseQuantity(v string, limit int) (int, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("enter a whole number")
	}
	if n < 0 || n > limit {
		return 0, fmt.Errorf("must be between 0 and %d", limit)
	}
	return n, nil
}

// Init implements tea.Model
func (s *EquipmentScreen) Init() tea.Cmd {
	return s.form.Init()
}

// Update implements tea.Model
func (s *EquipmentScreen) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
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
func (s *EquipmentScreen) View() string {
	if s.cancelled {
		return "Cancelled.\n"
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		components.StepTitle(3, TotalSteps, session.StepEquipmentSelect.Title()),
		components.SubtitleStyle.Render("Operation: "+s.operation),
		s.form.View(),
		"",
		s.helpPanel.View(),
		"",
		"Tab: Next item | Enter: Next page | Esc: Previous page | Ctrl+C: Quit",
	)
}

// Done returns true if the form was completed
func (s *EquipmentScreen) Done() bool { return s.done }

// Back returns true if the user asked for the previous page
func (s *EquipmentScreen) Back() bool { return s.back }

// Cancelled returns true if the user cancelled
func (s *EquipmentScreen) Cancelled() bool { return s.cancelled }

// Selection returns the entered quantities. Inputs that fail to parse keep
// their starting value.
func (s *EquipmentScreen) Selection() cost.Selection {
	sel := make(cost.Selection, len(s.fields))
	for i, f := range s.fields {
		n, err := ParseQuantity(s.values[i], f.Max)
		if err != nil {
			n = f.Quantity
		}
		sel[f.Name] = n
	}
	return sel
}
