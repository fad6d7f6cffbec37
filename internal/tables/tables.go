// Package tables holds the static reference tables of the cost wizard:
// payment schemes, operation default profiles and equipment quantity limits.
package tables

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// OtherOperation is the free-text operation choice. It has no default profile.
const OtherOperation = "Others"

//go:embed default_tables.yaml
var defaultTables []byte

// SchemeID identifies a healthcare payment scheme (A, B, C...).
type SchemeID string

// Scheme is a payment scheme with its display label and the catalog column
// holding its per-unit reimbursement.
type Scheme struct {
	ID     SchemeID `yaml:"id"`
	Label  string   `yaml:"label"`
	Column string   `yaml:"column"`
}

// OperationProfile lists the default equipment quantities of a named operation.
type OperationProfile struct {
	Name      string         `yaml:"name"`
	Equipment map[string]int `yaml:"equipment"`
}

// Tables is the full set of reference tables.
type Tables struct {
	Schemes    []Scheme           `yaml:"schemes"`
	Operations []OperationProfile `yaml:"operations"`
	Limits     Limits             `yaml:"limits"`

	profiles map[string]int
}

// LoadError reports a reference table file that cannot be used.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("loading reference tables: %v", e.Err)
	}
	return fmt.Sprintf("loading reference tables %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Default returns the built-in tables.
func Default() (*Tables, error) {
	return Parse(defaultTables)
}

// Load reads tables from a YAML file. An empty path returns the built-in tables.
func Load(path string) (*Tables, error) {
	if path == "" {
		return Default()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}

	t, err := Parse(data)
	if err != nil {
		var le *LoadError
		if errors.As(err, &le) {
			le.Path = path
		}
		return nil, err
	}
	return t, nil
}

// Parse decodes and validates tables from YAML.
func Parse(data []byte) (*Tables, error) {
	var t Tables
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, &LoadError{Err: err}
	}
	if err := t.validate(); err != nil {
		return nil, &LoadError{Err: err}
	}
	t.index()
	return &t, nil
}

func (t *Tables) validate() error {
	if len(t.Schemes) == 0 {
		return errors.New("no schemes defined")
	}

	seen := make(map[SchemeID]bool, len(t.Schemes))
	for i, s := range t.Schemes {
		if s.ID == "" {
			return fmt.Errorf("scheme %d: id is required", i+1)
		}
		if seen[s.ID] {
			return fmt.Errorf("scheme %s: duplicate id", s.ID)
		}
		seen[s.ID] = true
		if s.Label == "" {
			return fmt.Errorf("scheme %s: label is required", s.ID)
		}
		if s.Column == "" {
			return fmt.Errorf("scheme %s: column is required", s.ID)
		}
	}

	names := make(map[string]bool, len(t.Operations))
	for _, op := range t.Operations {
		key := NormalizeName(op.Name)
		if key == "" {
			return errors.New("operation name is required")
		}
		if key == NormalizeName(OtherOperation) {
			return fmt.Errorf("operation %q is reserved", OtherOperation)
		}
		if names[key] {
			return fmt.Errorf("operation %q: duplicate name", op.Name)
		}
		names[key] = true
		items := make(map[string]string, len(op.Equipment))
		for item, qty := range op.Equipment {
			if qty < 0 {
				return fmt.Errorf("operation %q: negative quantity for %q", op.Name, item)
			}
			if other, dup := items[NormalizeName(item)]; dup {
				return fmt.Errorf("operation %q: %q and %q name the same equipment", op.Name, other, item)
			}
			items[NormalizeName(item)] = item
		}
	}

	if t.Limits.DefaultMax <= 0 {
		return fmt.Errorf("limits.default_max must be > 0, got %d", t.Limits.DefaultMax)
	}
	overrides := make(map[string]string, len(t.Limits.Overrides))
	for item, max := range t.Limits.Overrides {
		if max < 0 {
			return fmt.Errorf("limits.overrides: negative maximum for %q", item)
		}
		if other, dup := overrides[NormalizeName(item)]; dup {
			return fmt.Errorf("limits.overrides: %q and %q name the same equipment", other, item)
		}
		overrides[NormalizeName(item)] = item
	}
	return nil
}

func (t *Tables) index() {
	t.profiles = make(map[string]int, len(t.Operations))
	for i, op := range t.Operations {
		t.profiles[NormalizeName(op.Name)] = i
	}
	t.Limits.index()
}

// Scheme looks up a scheme by id.
func (t *Tables) Scheme(id SchemeID) (Scheme, bool) {
	for _, s := range t.Schemes {
		if s.ID == id {
			return s, true
		}
	}
	return Scheme{}, false
}

// ParseScheme resolves a scheme from its id or label, ignoring case.
func (t *Tables) ParseScheme(s string) (SchemeID, error) {
	want := strings.TrimSpace(s)
	for _, sc := range t.Schemes {
		if strings.EqualFold(string(sc.ID), want) || strings.EqualFold(sc.Label, want) {
			return sc.ID, nil
		}
	}

	valid := make([]string, len(t.Schemes))
	for i, sc := range t.Schemes {
		valid[i] = string(sc.ID)
	}
	return "", fmt.Errorf("invalid scheme: %s (valid: %s)", s, strings.Join(valid, ", "))
}

// Profile returns the default profile of an operation. Free-text operations
// and "Others" have none.
func (t *Tables) Profile(operation string) (OperationProfile, bool) {
	i, ok := t.profiles[NormalizeName(operation)]
	if !ok {
		return OperationProfile{}, false
	}
	return t.Operations[i], true
}

// OperationNames lists the selectable operations, "Others" last.
func (t *Tables) OperationNames() []string {
	names := make([]string, 0, len(t.Operations)+1)
	for _, op := range t.Operations {
		names = append(names, op.Name)
	}
	return append(names, OtherOperation)
}

// DefaultQuantity returns the profile quantity of item for operation, clamped
// to the item's limit. Unknown operations and items default to 0.
func (t *Tables) DefaultQuantity(operation, item string) int {
	profile, ok := t.Profile(operation)
	if !ok {
		return 0
	}

	want := NormalizeName(item)
	for name, qty := range profile.Equipment {
		if NormalizeName(name) == want {
			return t.Limits.Clamp(item, qty)
		}
	}
	return 0
}

// NormalizeName folds an equipment or operation name for lookups: trims,
// collapses inner whitespace and lowercases.
func NormalizeName(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
