package tables

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefault_LoadsBuiltinTables(t *testing.T) {
	tb, err := Default()
	if err != nil {
		t.Fatalf("Default failed: %v", err)
	}

	if len(tb.Schemes) != 5 {
		t.Errorf("Expected 5 schemes, got %d", len(tb.Schemes))
	}
	if len(tb.Operations) != 5 {
		t.Errorf("Expected 5 operations, got %d", len(tb.Operations))
	}

	s, ok := tb.Scheme("B")
	if !ok {
		t.Fatal("Expected scheme B to exist")
	}
	if s.Label != "UCEP Scheme" || s.Column != "UCEP Scheme" {
		t.Errorf("Unexpected scheme B: %+v", s)
	}
}

func TestOperationNames_OthersLast(t *testing.T) {
	tb, err := Default()
	if err != nil {
		t.Fatalf("Default failed: %v", err)
	}

	names := tb.OperationNames()
	if len(names) != 6 {
		t.Fatalf("Expected 6 operation names, got %d", len(names))
	}
	if names[0] != "Diagnostic angiogram" {
		t.Errorf("Expected first operation 'Diagnostic angiogram', got %q", names[0])
	}
	if names[len(names)-1] != OtherOperation {
		t.Errorf("Expected last operation %q, got %q", OtherOperation, names[len(names)-1])
	}
}

func TestDefaultQuantity(t *testing.T) {
	tb, err := Default()
	if err != nil {
		t.Fatalf("Default failed: %v", err)
	}

	tests := []struct {
		operation string
		item      string
		want      int
	}{
		{"Diagnostic angiogram", "Contrast media", 4},
		{"Diagnostic angiogram", "Coil", 0},
		{"Cerebral angiogram with simple coiling", "Coil", 5},
		// Trailing space in catalog names must still match the profile.
		{"Cerebral angiogram with transarterial ONYX embolization", "ONYX ", 2},
		// Profile asks for 2 sheaths but the item is single-use.
		{"Cerebral angiogram with transvenous coiling", "femoral sheath", 1},
		{OtherOperation, "Angiogram", 0},
		{"Embolectomy", "Angiogram", 0},
		{"", "Angiogram", 0},
	}

	for _, tt := range tests {
		t.Run(tt.operation+"/"+tt.item, func(t *testing.T) {
			got := tb.DefaultQuantity(tt.operation, tt.item)
			if got != tt.want {
				t.Errorf("DefaultQuantity(%q, %q) = %d, want %d", tt.operation, tt.item, got, tt.want)
			}
		})
	}
}

func TestLimits_MaxAndClamp(t *testing.T) {
	tb, err := Default()
	if err != nil {
		t.Fatalf("Default failed: %v", err)
	}

	tests := []struct {
		item    string
		qty     int
		wantMax int
		want    int
	}{
		{"femoral sheath", 3, 1, 1},
		{"Exchange wire", 1, 1, 1},
		{"exchange wire", 2, 1, 1},
		{"Sofia 5F ", 5, 1, 1},
		{"Coil", 150, 100, 100},
		{"Coil", -4, 100, 0},
		{"Coil", 42, 100, 42},
	}

	for _, tt := range tests {
		t.Run(tt.item, func(t *testing.T) {
			if got := tb.Limits.Max(tt.item); got != tt.wantMax {
				t.Errorf("Max(%q) = %d, want %d", tt.item, got, tt.wantMax)
			}
			if got := tb.Limits.Clamp(tt.item, tt.qty); got != tt.want {
				t.Errorf("Clamp(%q, %d) = %d, want %d", tt.item, tt.qty, got, tt.want)
			}
		})
	}
}

func TestParseScheme(t *testing.T) {
	tb, err := Default()
	if err != nil {
		t.Fatalf("Default failed: %v", err)
	}

	for _, input := range []string{"C", "c", " Social security Scheme (ประกันสังคม) "} {
		id, err := tb.ParseScheme(input)
		if err != nil {
			t.Errorf("ParseScheme(%q) failed: %v", input, err)
			continue
		}
		if id != "C" {
			t.Errorf("ParseScheme(%q) = %q, want C", input, id)
		}
	}

	if _, err := tb.ParseScheme("Z"); err == nil {
		t.Error("Expected error for unknown scheme")
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"no schemes", "limits: {default_max: 10}"},
		{"duplicate scheme", `
schemes:
  - {id: A, label: a, column: a}
  - {id: A, label: b, column: b}
limits: {default_max: 10}`},
		{"missing column", `
schemes:
  - {id: A, label: a}
limits: {default_max: 10}`},
		{"reserved operation", `
schemes:
  - {id: A, label: a, column: a}
operations:
  - {name: Others}
limits: {default_max: 10}`},
		{"negative quantity", `
schemes:
  - {id: A, label: a, column: a}
operations:
  - {name: X, equipment: {Coil: -1}}
limits: {default_max: 10}`},
		{"equipment differing only by spacing", `
schemes:
  - {id: A, label: a, column: a}
operations:
  - name: X
    equipment:
      ONYX: 1
      "onyx ": 2
limits: {default_max: 10}`},
		{"overrides differing only by case", `
schemes:
  - {id: A, label: a, column: a}
limits:
  default_max: 10
  overrides: {Coil: 20, COIL: 30}`},
		{"zero default max", `
schemes:
  - {id: A, label: a, column: a}`},
		{"bad yaml", "schemes: [unclosed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			var le *LoadError
			if !errors.As(err, &le) {
				t.Errorf("Expected *LoadError, got %T", err)
			}
		})
	}
}

func TestLoad_FileOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tables.yaml")
	content := `
schemes:
  - {id: X, label: "Private insurance", column: "Private"}
operations:
  - name: "Thrombectomy"
    equipment: {"Stentriever": 2}
limits:
  default_max: 20
  overrides: {"Stentriever": 3}
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write tables: %v", err)
	}

	tb, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if tb.Limits.Max("Stentriever") != 3 {
		t.Errorf("Expected Stentriever max 3, got %d", tb.Limits.Max("Stentriever"))
	}
	if tb.Limits.Max("Coil") != 20 {
		t.Errorf("Expected default max 20, got %d", tb.Limits.Max("Coil"))
	}
	if tb.DefaultQuantity("thrombectomy", "stentriever") != 2 {
		t.Errorf("Expected default quantity 2, got %d", tb.DefaultQuantity("thrombectomy", "stentriever"))
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	var le *LoadError
	if !errors.As(err, &le) {
		t.Fatalf("Expected *LoadError, got %v", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Expected wrapped os.ErrNotExist, got %v", err)
	}
}
