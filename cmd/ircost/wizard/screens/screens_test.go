package screens

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mrsinham/ircost/internal/session"
	"github.com/mrsinham/ircost/internal/tables"
)

func TestParseQuantity(t *testing.T) {
	tests := []struct {
		input   string
		limit   int
		want    int
		wantErr bool
	}{
		{"", 100, 0, false},
		{"  ", 100, 0, false},
		{"3", 100, 3, false},
		{" 7 ", 100, 7, false},
		{"100", 100, 100, false},
		{"101", 100, 0, true},
		{"2", 1, 0, true},
		{"-1", 100, 0, true},
		{"two", 100, 0, true},
		{"1.5", 100, 0, true},
	}

	for _, tt := range tests {
		got, err := ParseQuantity(tt.input, tt.limit)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseQuantity(%q, %d) error = %v, wantErr %v", tt.input, tt.limit, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseQuantity(%q, %d) = %d, want %d", tt.input, tt.limit, got, tt.want)
		}
	}
}

func TestEquipmentScreen_Selection(t *testing.T) {
	s := NewEquipmentScreen("Diagnostic angiogram", []EquipmentField{
		{Name: "Angiogram", Max: 100, Quantity: 1},
		{Name: "femoral sheath", Max: 1, Quantity: 1},
		{Name: "Coil", Max: 100, Quantity: 0},
	})

	s.values[0] = "4"
	s.values[1] = "9" // above the limit, keeps the starting value
	s.values[2] = ""

	sel := s.Selection()
	if sel["Angiogram"] != 4 {
		t.Errorf("Expected Angiogram 4, got %d", sel["Angiogram"])
	}
	if sel["femoral sheath"] != 1 {
		t.Errorf("Expected femoral sheath 1, got %d", sel["femoral sheath"])
	}
	if q, ok := sel["Coil"]; !ok || q != 0 {
		t.Errorf("Expected Coil 0, got %d (present %v)", q, ok)
	}
}

func TestEquipmentScreen_EmptyCatalog(t *testing.T) {
	s := NewEquipmentScreen("Others", nil)
	if len(s.Selection()) != 0 {
		t.Error("Expected empty selection")
	}
	if !strings.Contains(s.View(), "STEP 3/5") {
		t.Errorf("Expected step heading, got:\n%s", s.View())
	}
}

func TestEquipmentScreen_EscGoesBack(t *testing.T) {
	s := NewEquipmentScreen("Others", []EquipmentField{{Name: "Coil", Max: 100}})
	s.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if !s.Back() || s.Cancelled() {
		t.Errorf("Expected back without cancel, got back=%v cancelled=%v", s.Back(), s.Cancelled())
	}
}

func TestEquipmentScreen_HelpShowsItemFacts(t *testing.T) {
	s := NewEquipmentScreen("Diagnostic angiogram", []EquipmentField{
		{Name: "femoral sheath", Max: 1, UnitCost: "450.00", UnitReimbursement: "400.00"},
		{Name: "Coil", Max: 100},
	})

	s.helpPanel.SetField("equipment:femoral sheath")
	view := s.helpPanel.View()
	for _, want := range []string{"FEMORAL SHEATH", "Unit cost: 450.00", "Reimbursed per unit: 400.00", "0-1 (single use)"} {
		if !strings.Contains(view, want) {
			t.Errorf("Expected %q in help:\n%s", want, view)
		}
	}

	s.helpPanel.SetField("equipment:Coil")
	view = s.helpPanel.View()
	if strings.Contains(view, "Unit cost") {
		t.Errorf("Expected no price without a unit cost:\n%s", view)
	}
	if !strings.Contains(view, "Accepted: 0-100") {
		t.Errorf("Expected limit in help:\n%s", view)
	}
}

func TestPatientScreen_Patient(t *testing.T) {
	tb, err := tables.Default()
	if err != nil {
		t.Fatalf("tables.Default failed: %v", err)
	}
	p := session.Patient{FirstName: "Somchai", HN: "HN-1", Scheme: "C"}
	s := NewPatientScreen(p, tb.Schemes, false, "")

	got := s.Patient()
	if got.FirstName != "Somchai" || got.HN != "HN-1" || got.Scheme != "C" {
		t.Errorf("Expected prefilled patient, got %+v", got)
	}
	if !strings.Contains(s.View(), "Patient Information") {
		t.Errorf("Expected page title, got:\n%s", s.View())
	}
}

func TestRequiredText(t *testing.T) {
	if err := requiredText("HN", false)(""); err != nil {
		t.Errorf("Expected optional field to accept blank, got %v", err)
	}
	if err := requiredText("HN", true)("  "); err == nil {
		t.Error("Expected required field to reject blank")
	}
	if err := requiredText("HN", true)("HN-1"); err != nil {
		t.Errorf("Expected value accepted, got %v", err)
	}
}

func TestSummaryScreen_EscMeansBack(t *testing.T) {
	s := NewSummaryScreen(SummaryInfo{SchemeLabel: "UCEP Scheme", Operation: "Others"}, "")
	if !strings.Contains(s.View(), "(no equipment)") {
		t.Errorf("Expected empty equipment note, got:\n%s", s.View())
	}

	s.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if !s.Done() || s.Action() != SummaryActionBack {
		t.Errorf("Expected back action, got done=%v action=%s", s.Done(), s.Action())
	}
}

func TestWithExtension(t *testing.T) {
	tests := []struct {
		path, ext, want string
	}{
		{"summary.pdf", "txt", "summary.txt"},
		{"out/report", "png", "out/report.png"},
		{" archive.v1.pdf ", "dcm", "archive.v1.dcm"},
	}
	for _, tt := range tests {
		if got := WithExtension(tt.path, tt.ext); got != tt.want {
			t.Errorf("WithExtension(%q, %q) = %q, want %q", tt.path, tt.ext, got, tt.want)
		}
	}
}
