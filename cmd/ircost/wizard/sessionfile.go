package wizard

import (
	"fmt"
	"os"

	"github.com/mrsinham/ircost/internal/cost"
	"github.com/mrsinham/ircost/internal/session"
	"gopkg.in/yaml.v3"
)

// SessionFile is a wizard session saved to YAML, resumable with --from.
type SessionFile struct {
	Step      string          `yaml:"step"`
	Patient   session.Patient `yaml:"patient"`
	Operation OperationYAML   `yaml:"operation"`
	Equipment map[string]int  `yaml:"equipment,omitempty"`
}

// OperationYAML holds the operation page.
type OperationYAML struct {
	Choice string `yaml:"choice"`
	Custom string `yaml:"custom,omitempty"`
}

// NewSessionFile captures the committed data of s. Only quantities above
// zero are written.
func NewSessionFile(s *session.Session) *SessionFile {
	rec := s.Record()
	f := &SessionFile{
		Step:    s.Step().String(),
		Patient: rec.Patient,
		Operation: OperationYAML{
			Choice: rec.OperationChoice,
			Custom: rec.CustomOperation,
		},
	}
	if names := rec.Equipment.Positive(); len(names) > 0 {
		f.Equipment = make(map[string]int, len(names))
		for _, n := range names {
			f.Equipment[n] = rec.Equipment[n]
		}
	}
	return f
}

// SaveSession writes the session to a YAML file.
func SaveSession(s *session.Session, path string) error {
	data, err := yaml.Marshal(NewSessionFile(s))
	if err != nil {
		return fmt.Errorf("marshaling session: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing session file: %w", err)
	}
	return nil
}

// LoadSessionFile reads a saved session.
func LoadSessionFile(path string) (*SessionFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading session file: %w", err)
	}

	var f SessionFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing session file: %w", err)
	}
	return &f, nil
}

// Apply restores the saved page and data into s. A missing step resumes on
// the patient page. The scheme may be given by id or by label.
func (f *SessionFile) Apply(s *session.Session) error {
	step := session.StepPatientInfo
	if f.Step != "" {
		st, err := session.ParseStep(f.Step)
		if err != nil {
			return err
		}
		step = st
	}

	rec := s.Record()
	rec.Patient = f.Patient
	if f.Patient.Scheme == "" {
		rec.Patient.Scheme = s.Record().Patient.Scheme
	} else {
		id, err := s.Tables().ParseScheme(string(f.Patient.Scheme))
		if err != nil {
			return err
		}
		rec.Patient.Scheme = id
	}
	if f.Operation.Choice != "" {
		rec.OperationChoice = f.Operation.Choice
	}
	rec.CustomOperation = f.Operation.Custom
	rec.Equipment = make(cost.Selection, len(f.Equipment))
	for n, q := range f.Equipment {
		rec.Equipment[n] = q
	}

	return s.Restore(step, rec)
}
