// Package session implements the cost wizard as an explicit state machine.
// A Session owns everything entered for one procedure; front ends drive it
// with Commit* calls followed by Next or Previous.
package session

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mrsinham/ircost/internal/catalog"
	"github.com/mrsinham/ircost/internal/cost"
	"github.com/mrsinham/ircost/internal/tables"
)

var (
	// ErrNoTransition is returned by Next on the last step and Previous on the first.
	ErrNoTransition = errors.New("no transition from this step")
	// ErrWrongStep is returned when an action does not belong to the current step.
	ErrWrongStep = errors.New("action not allowed on this step")
	// ErrInvalidInput is returned for values outside the fixed choices.
	ErrInvalidInput = errors.New("invalid input")
)

// IncompleteError lists required fields left blank on a step.
type IncompleteError struct {
	Step   Step
	Fields []string
}

func (e *IncompleteError) Error() string {
	return fmt.Sprintf("%s: missing %s", e.Step, strings.Join(e.Fields, ", "))
}

// Patient is the identity and payment scheme entered on the first page.
type Patient struct {
	FirstName string          `yaml:"first_name" json:"first_name"`
	LastName  string          `yaml:"last_name" json:"last_name"`
	HN        string          `yaml:"hn" json:"hn"`
	Diagnosis string          `yaml:"diagnosis" json:"diagnosis"`
	Scheme    tables.SchemeID `yaml:"scheme" json:"scheme"`
}

// FullName joins first and last name.
func (p Patient) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// Record is the data committed so far.
type Record struct {
	Patient         Patient
	OperationChoice string
	CustomOperation string
	Equipment       cost.Selection
}

// Operation returns the operation name: the selected profile, or the free
// text when "Others" was chosen.
func (r Record) Operation() string {
	if r.OperationChoice == tables.OtherOperation {
		return strings.TrimSpace(r.CustomOperation)
	}
	return r.OperationChoice
}

// Options tune validation.
type Options struct {
	// RequireFields blocks Next while text fields of the current page are blank.
	RequireFields bool
}

// Session is one walk through the wizard. It is not safe for concurrent use;
// Store serializes access per session.
type Session struct {
	id     string
	step   Step
	record Record

	summary *cost.Summary
	fatal   error

	catalog *catalog.Catalog
	tables  *tables.Tables
	calc    *cost.Calculator
	opts    Options
}

// New starts a session on the patient page. The scheme and operation default
// to the first entries of their tables, as a select box would.
func New(id string, cat *catalog.Catalog, tb *tables.Tables, opts Options) *Session {
	s := &Session{
		id:      id,
		step:    StepPatientInfo,
		catalog: cat,
		tables:  tb,
		calc:    cost.NewCalculator(cat, tb),
		opts:    opts,
	}
	if len(tb.Schemes) > 0 {
		s.record.Patient.Scheme = tb.Schemes[0].ID
	}
	if names := tb.OperationNames(); len(names) > 0 {
		s.record.OperationChoice = names[0]
	}
	s.record.Equipment = make(cost.Selection, cat.Len())
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Step returns the current page.
func (s *Session) Step() Step { return s.step }

// Err returns the fatal error that stopped the session, if any.
func (s *Session) Err() error { return s.fatal }

// Catalog returns the equipment catalog the session prices against.
func (s *Session) Catalog() *catalog.Catalog { return s.catalog }

// Tables returns the reference tables.
func (s *Session) Tables() *tables.Tables { return s.tables }

// Record returns a copy of the committed data.
func (s *Session) Record() Record {
	r := s.record
	r.Equipment = s.record.Equipment.Clone()
	return r
}

// Scheme returns the committed scheme.
func (s *Session) Scheme() (tables.Scheme, bool) {
	return s.tables.Scheme(s.record.Patient.Scheme)
}

// Summary returns the cost summary computed on entering the summary page.
func (s *Session) Summary() (cost.Summary, bool) {
	if s.summary == nil {
		return cost.Summary{}, false
	}
	return *s.summary, true
}

// CommitPatient stores the patient page.
func (s *Session) CommitPatient(p Patient) error {
	if err := s.expect(StepPatientInfo); err != nil {
		return err
	}
	if _, ok := s.tables.Scheme(p.Scheme); !ok {
		return fmt.Errorf("%w: unknown scheme %q", ErrInvalidInput, p.Scheme)
	}
	s.record.Patient = p
	return nil
}

// CommitOperation stores the operation page. choice must be one of the
// listed operations; custom is only kept when choice is "Others".
func (s *Session) CommitOperation(choice, custom string) error {
	if err := s.expect(StepOperationSelect); err != nil {
		return err
	}
	name, ok := s.operationName(choice)
	if !ok {
		return fmt.Errorf("%w: unknown operation %q", ErrInvalidInput, choice)
	}
	s.record.OperationChoice = name
	if name == tables.OtherOperation {
		s.record.CustomOperation = custom
	} else {
		s.record.CustomOperation = ""
	}
	return nil
}

func (s *Session) operationName(choice string) (string, bool) {
	want := tables.NormalizeName(choice)
	for _, name := range s.tables.OperationNames() {
		if tables.NormalizeName(name) == want {
			return name, true
		}
	}
	return "", false
}

// CommitEquipment merges quantities into the equipment page. Quantities
// outside an item's bounds are clamped; the stored values are returned.
func (s *Session) CommitEquipment(sel cost.Selection) (cost.Selection, error) {
	if err := s.expect(StepEquipmentSelect); err != nil {
		return nil, err
	}

	// Validate everything before touching the record.
	resolved := make(map[string]int, len(sel))
	for name, qty := range sel {
		item, ok := s.catalog.Lookup(name)
		if !ok {
			return nil, fmt.Errorf("%w: unknown equipment %q", ErrInvalidInput, name)
		}
		resolved[item.Name] = s.tables.Limits.Clamp(item.Name, qty)
	}

	for name, qty := range resolved {
		s.record.Equipment[name] = qty
	}
	return s.record.Equipment.Clone(), nil
}

// Defaults returns the equipment quantities the committed operation starts
// with: the profile quantity of every catalog item, clamped, or 0.
func (s *Session) Defaults() cost.Selection {
	op := s.record.Operation()
	sel := make(cost.Selection, s.catalog.Len())
	for _, item := range s.catalog.Items() {
		sel[item.Name] = s.tables.DefaultQuantity(op, item.Name)
	}
	return sel
}

// Next moves one page forward.
func (s *Session) Next() error {
	if s.fatal != nil {
		return s.fatal
	}
	e := transitions[s.step]
	if !e.hasNext {
		return ErrNoTransition
	}
	if s.opts.RequireFields {
		if err := s.checkComplete(); err != nil {
			return err
		}
	}
	return s.enter(e.next)
}

// Previous moves one page back. Committed data is kept.
func (s *Session) Previous() error {
	if s.fatal != nil {
		return s.fatal
	}
	e := transitions[s.step]
	if !e.hasPrev {
		return ErrNoTransition
	}
	return s.enter(e.prev)
}

// enter runs the entry action of a page and makes it current.
func (s *Session) enter(step Step) error {
	switch step {
	case StepEquipmentSelect:
		s.record.Equipment = s.Defaults()
		s.summary = nil
	case StepCostSummary:
		if err := s.calculate(); err != nil {
			return err
		}
	}
	s.step = step
	return nil
}

func (s *Session) calculate() error {
	summary, err := s.calc.Calculate(s.record.Patient.Scheme, s.record.Equipment)
	if err != nil {
		var ce *cost.ConsistencyError
		if errors.As(err, &ce) {
			s.fatal = err
		}
		return err
	}
	s.summary = &summary
	return nil
}

func (s *Session) checkComplete() error {
	var missing []string
	blank := func(v string) bool { return strings.TrimSpace(v) == "" }

	switch s.step {
	case StepPatientInfo:
		p := s.record.Patient
		if blank(p.FirstName) {
			missing = append(missing, "first_name")
		}
		if blank(p.LastName) {
			missing = append(missing, "last_name")
		}
		if blank(p.HN) {
			missing = append(missing, "hn")
		}
		if blank(p.Diagnosis) {
			missing = append(missing, "diagnosis")
		}
	case StepOperationSelect:
		if blank(s.record.Operation()) {
			missing = append(missing, "operation")
		}
	}

	if len(missing) > 0 {
		return &IncompleteError{Step: s.step, Fields: missing}
	}
	return nil
}

func (s *Session) expect(step Step) error {
	if s.fatal != nil {
		return s.fatal
	}
	if s.step != step {
		return fmt.Errorf("%w: on %s, need %s", ErrWrongStep, s.step, step)
	}
	return nil
}

// Restore jumps to a saved page with saved data, without running the
// equipment defaults, so a resumed session keeps its overrides. Values are
// validated and clamped like regular commits.
func (s *Session) Restore(step Step, rec Record) error {
	if step < StepPatientInfo || step > StepReportDownload {
		return fmt.Errorf("%w: step %d", ErrInvalidInput, int(step))
	}
	if _, ok := s.tables.Scheme(rec.Patient.Scheme); !ok {
		return fmt.Errorf("%w: unknown scheme %q", ErrInvalidInput, rec.Patient.Scheme)
	}
	name, ok := s.operationName(rec.OperationChoice)
	if !ok {
		return fmt.Errorf("%w: unknown operation %q", ErrInvalidInput, rec.OperationChoice)
	}

	equipment := make(cost.Selection, s.catalog.Len())
	for _, item := range s.catalog.Items() {
		equipment[item.Name] = 0
	}
	for n, qty := range rec.Equipment {
		item, ok := s.catalog.Lookup(n)
		if !ok {
			return fmt.Errorf("%w: unknown equipment %q", ErrInvalidInput, n)
		}
		equipment[item.Name] = s.tables.Limits.Clamp(item.Name, qty)
	}

	s.record = Record{
		Patient:         rec.Patient,
		OperationChoice: name,
		CustomOperation: rec.CustomOperation,
		Equipment:       equipment,
	}
	if name != tables.OtherOperation {
		s.record.CustomOperation = ""
	}

	s.summary = nil
	if step >= StepCostSummary {
		if err := s.calculate(); err != nil {
			return err
		}
	}
	s.step = step
	return nil
}
