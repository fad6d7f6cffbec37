package wizard

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mrsinham/ircost/internal/session"
)

func TestSaveSession_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.yaml")
	src := restored(t, session.StepCostSummary)

	if err := SaveSession(src, path); err != nil {
		t.Fatalf("SaveSession failed: %v", err)
	}

	f, err := LoadSessionFile(path)
	if err != nil {
		t.Fatalf("LoadSessionFile failed: %v", err)
	}
	if f.Step != "cost_summary" {
		t.Errorf("Expected step cost_summary, got %q", f.Step)
	}
	if _, ok := f.Equipment["Contrast media"]; ok {
		t.Error("Zero quantities must not be saved")
	}

	dst := newSession(t, session.Options{})
	if err := f.Apply(dst); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if dst.Step() != session.StepCostSummary {
		t.Errorf("Expected step cost_summary, got %s", dst.Step())
	}
	rec := dst.Record()
	if rec.Patient.FullName() != "Somchai Jaidee" {
		t.Errorf("Expected patient Somchai Jaidee, got %q", rec.Patient.FullName())
	}
	if rec.Equipment["0.038 Wire"] != 2 {
		t.Errorf("Expected 2 wires, got %d", rec.Equipment["0.038 Wire"])
	}
	sum, ok := dst.Summary()
	if !ok {
		t.Fatal("Expected summary to be computed on restore")
	}
	if sum.TotalCost.String() != "5200" {
		t.Errorf("Expected total cost 5200, got %s", sum.TotalCost)
	}
}

func TestLoadSessionFile_Minimal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.yaml")
	content := `
patient:
  first_name: Malee
  last_name: Srisuk
  hn: HN-7
  diagnosis: DAVF
  scheme: "Self pay (เงินสด)"
operation:
  choice: others
  custom: Carotid stenting
equipment:
  femoral sheath: 3
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write session file: %v", err)
	}

	f, err := LoadSessionFile(path)
	if err != nil {
		t.Fatalf("LoadSessionFile failed: %v", err)
	}

	s := newSession(t, session.Options{})
	if err := f.Apply(s); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	if s.Step() != session.StepPatientInfo {
		t.Errorf("Expected missing step to resume on patient page, got %s", s.Step())
	}
	rec := s.Record()
	if rec.Patient.Scheme != "E" {
		t.Errorf("Expected scheme label to resolve to E, got %s", rec.Patient.Scheme)
	}
	if rec.Operation() != "Carotid stenting" {
		t.Errorf("Expected custom operation, got %q", rec.Operation())
	}
	if rec.Equipment["femoral sheath"] != 1 {
		t.Errorf("Expected sheath clamped to 1, got %d", rec.Equipment["femoral sheath"])
	}
}

func TestSessionFile_ApplyErrors(t *testing.T) {
	tests := []struct {
		name string
		file SessionFile
		want string
	}{
		{"bad step", SessionFile{Step: "checkout"}, "invalid step"},
		{"bad scheme", SessionFile{Patient: session.Patient{Scheme: "Z"}}, "scheme"},
		{"bad operation", SessionFile{Operation: OperationYAML{Choice: "Heart transplant"}}, "unknown operation"},
		{"bad equipment", SessionFile{Equipment: map[string]int{"Stent": 1}}, "unknown equipment"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.file.Apply(newSession(t, session.Options{}))
			if err == nil {
				t.Fatal("Expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestLoadSessionFile_Errors(t *testing.T) {
	dir := t.TempDir()

	if _, err := LoadSessionFile(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("Expected error for missing file")
	}

	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("patient: [unclosed"), 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}
	if _, err := LoadSessionFile(bad); err == nil {
		t.Error("Expected error for invalid YAML")
	}
}
