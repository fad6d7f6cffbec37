// Package wizard provides the interactive TUI that walks one procedure
// through the five cost pages.
package wizard

import (
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/mrsinham/ircost/cmd/ircost/wizard/components"
	"github.com/mrsinham/ircost/cmd/ircost/wizard/screens"
	"github.com/mrsinham/ircost/internal/report"
	"github.com/mrsinham/ircost/internal/session"
	"go.uber.org/zap"
)

// Phase represents the current phase/screen of the wizard.
type Phase int

const (
	PhasePatient Phase = iota
	PhaseOperation
	PhaseEquipment
	PhaseSummary
	PhaseReport
	PhaseSaveSession
	PhaseComplete
	PhaseError
)

// DefaultSessionPath is offered when saving a session.
const DefaultSessionPath = "ircost-session.yaml"

// Options configure a wizard run.
type Options struct {
	// Layout sets amount formatting on screen and in the report.
	Layout report.Format
	// Report configures the output back ends.
	Report report.Options
	// Format is the preselected report format.
	Format string
	// ReportPath is the preselected output path.
	ReportPath string
	// RequireFields makes blank text fields fail validation in the forms.
	RequireFields bool
	Logger        *zap.Logger
}

// Wizard is the main orchestrator for the wizard interface. The session
// decides which page comes next; the wizard only maps pages to screens.
type Wizard struct {
	session *session.Session
	opts    Options
	logger  *zap.Logger

	// Current phase
	phase Phase

	// Screen instances
	patientScreen    *screens.PatientScreen
	operationScreen  *screens.OperationScreen
	equipmentScreen  *screens.EquipmentScreen
	summaryScreen    *screens.SummaryScreen
	reportScreen     *screens.ReportScreen
	completionScreen *screens.CompletionScreen
	errorScreen      *screens.ErrorScreen

	// Save session form
	saveSessionForm *huh.Form
	sessionPath     string

	// Message carried to the next screen
	notice string

	// Last report settings, kept across visits to the report page
	reportPath   string
	reportFormat string

	// Final state
	cancelled bool
	finished  bool
	written   string
	err       error
}

// NewWizard creates a wizard on the current page of s.
func NewWizard(s *session.Session, opts Options) *Wizard {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Format == "" {
		opts.Format = report.Formats()[0]
	}
	if opts.ReportPath == "" {
		opts.ReportPath = "summary." + opts.Format
	}

	w := &Wizard{
		session:      s,
		opts:         opts,
		logger:       opts.Logger.With(zap.String("session_id", s.ID())),
		sessionPath:  DefaultSessionPath,
		reportPath:   opts.ReportPath,
		reportFormat: opts.Format,
	}
	if err := s.Err(); err != nil {
		w.fail(err)
		return w
	}
	w.buildStep()
	return w
}

// Init implements tea.Model.
func (w *Wizard) Init() tea.Cmd {
	return w.currentInit()
}

func (w *Wizard) currentInit() tea.Cmd {
	switch w.phase {
	case PhasePatient:
		return w.patientScreen.Init()
	case PhaseOperation:
		return w.operationScreen.Init()
	case PhaseEquipment:
		return w.equipmentScreen.Init()
	case PhaseSummary:
		return w.summaryScreen.Init()
	case PhaseReport:
		return w.reportScreen.Init()
	case PhaseSaveSession:
		return w.saveSessionForm.Init()
	}
	return nil
}

// Update implements tea.Model.
func (w *Wizard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch w.phase {
	case PhasePatient:
		return w.updatePatient(msg)
	case PhaseOperation:
		return w.updateOperation(msg)
	case PhaseEquipment:
		return w.updateEquipment(msg)
	case PhaseSummary:
		return w.updateSummary(msg)
	case PhaseReport:
		return w.updateReport(msg)
	case PhaseSaveSession:
		return w.updateSaveSession(msg)
	case PhaseComplete:
		return w.updateComplete(msg)
	case PhaseError:
		return w.updateError(msg)
	}

	return w, nil
}

// View implements tea.Model.
func (w *Wizard) View() string {
	switch w.phase {
	case PhasePatient:
		return w.patientScreen.View()
	case PhaseOperation:
		return w.operationScreen.View()
	case PhaseEquipment:
		return w.equipmentScreen.View()
	case PhaseSummary:
		return w.summaryScreen.View()
	case PhaseReport:
		return w.reportScreen.View()
	case PhaseSaveSession:
		return w.viewSaveSession()
	case PhaseComplete:
		return w.completionScreen.View()
	case PhaseError:
		return w.errorScreen.View()
	}

	return ""
}

// Phase returns the current phase.
func (w *Wizard) Phase() Phase { return w.phase }

// buildStep creates the screen of the session's current page. The pending
// notice is shown once.
func (w *Wizard) buildStep() {
	s := w.session
	rec := s.Record()
	notice := w.notice
	w.notice = ""

	switch s.Step() {
	case session.StepPatientInfo:
		w.phase = PhasePatient
		w.patientScreen = screens.NewPatientScreen(rec.Patient, s.Tables().Schemes, w.opts.RequireFields, notice)

	case session.StepOperationSelect:
		w.phase = PhaseOperation
		w.operationScreen = screens.NewOperationScreen(rec.OperationChoice, rec.CustomOperation,
			s.Tables().OperationNames(), w.opts.RequireFields, notice)

	case session.StepEquipmentSelect:
		w.phase = PhaseEquipment
		w.equipmentScreen = screens.NewEquipmentScreen(rec.Operation(), w.equipmentFields(rec))

	case session.StepCostSummary:
		w.phase = PhaseSummary
		w.summaryScreen = screens.NewSummaryScreen(w.summaryInfo(rec), notice)

	case session.StepReportDownload:
		w.phase = PhaseReport
		w.reportScreen = screens.NewReportScreen(w.reportPath, w.reportFormat, report.Formats(), notice)
	}
}

func (w *Wizard) equipmentFields(rec session.Record) []screens.EquipmentField {
	items := w.session.Catalog().Items()
	limits := w.session.Tables().Limits
	fields := make([]screens.EquipmentField, len(items))
	for i, it := range items {
		fields[i] = screens.EquipmentField{
			Name:     it.Name,
			Max:      limits.Max(it.Name),
			Quantity: rec.Equipment[it.Name],
			UnitCost: report.FormatAmount(it.Cost, w.opts.Layout),
		}
		if r, ok := it.ReimbursementFor(rec.Patient.Scheme); ok {
			fields[i].UnitReimbursement = report.FormatAmount(r, w.opts.Layout)
		}
	}
	return fields
}

func (w *Wizard) summaryInfo(rec session.Record) screens.SummaryInfo {
	sum, _ := w.session.Summary()
	info := screens.SummaryInfo{
		Patient:   rec.Patient,
		Operation: rec.Operation(),
		Summary:   sum,
		Format:    w.opts.Layout,
	}
	if sc, ok := w.session.Scheme(); ok {
		info.SchemeLabel = sc.Label
	}
	return info
}

// advance commits the current page and moves forward.
func (w *Wizard) advance(commit func() error) (tea.Model, tea.Cmd) {
	from := w.session.Step()
	err := commit()
	if err == nil {
		err = w.session.Next()
	}
	if err != nil {
		return w.handleError(err)
	}
	w.logger.Debug("page completed",
		zap.Stringer("from", from),
		zap.Stringer("to", w.session.Step()))
	w.buildStep()
	return w, w.currentInit()
}

// goBack moves one page back, keeping what was entered.
func (w *Wizard) goBack() (tea.Model, tea.Cmd) {
	if err := w.session.Previous(); err != nil {
		return w.handleError(err)
	}
	w.buildStep()
	return w, w.currentInit()
}

// handleError shows recoverable errors as a notice on the same page and
// stops the wizard on fatal ones.
func (w *Wizard) handleError(err error) (tea.Model, tea.Cmd) {
	if w.session.Err() != nil {
		w.fail(err)
		return w, nil
	}

	var incomplete *session.IncompleteError
	if errors.As(err, &incomplete) {
		w.notice = "Please fill in: " + strings.Join(incomplete.Fields, ", ")
	} else {
		w.notice = err.Error()
	}
	w.logger.Info("page rejected", zap.Stringer("step", w.session.Step()), zap.Error(err))
	w.buildStep()
	return w, w.currentInit()
}

func (w *Wizard) fail(err error) {
	w.logger.Error("wizard stopped", zap.Error(err))
	w.err = err
	w.phase = PhaseError
	w.errorScreen = screens.NewErrorScreen(err)
}

// updatePatient handles updates on the patient page.
func (w *Wizard) updatePatient(msg tea.Msg) (tea.Model, tea.Cmd) {
	model, cmd := w.patientScreen.Update(msg)
	if ps, ok := model.(*screens.PatientScreen); ok {
		w.patientScreen = ps
	}

	if w.patientScreen.Cancelled() {
		w.cancelled = true
		return w, tea.Quit
	}

	if w.patientScreen.Done() {
		p := w.patientScreen.Patient()
		return w.advance(func() error { return w.session.CommitPatient(p) })
	}

	return w, cmd
}

// updateOperation handles updates on the operation page.
func (w *Wizard) updateOperation(msg tea.Msg) (tea.Model, tea.Cmd) {
	model, cmd := w.operationScreen.Update(msg)
	if ops, ok := model.(*screens.OperationScreen); ok {
		w.operationScreen = ops
	}

	if w.operationScreen.Cancelled() {
		w.cancelled = true
		return w, tea.Quit
	}

	if w.operationScreen.Back() {
		choice, custom := w.operationScreen.Choice()
		// Keep the selection when returning to this page.
		if err := w.session.CommitOperation(choice, custom); err != nil {
			w.logger.Debug("operation not kept", zap.Error(err))
		}
		return w.goBack()
	}

	if w.operationScreen.Done() {
		choice, custom := w.operationScreen.Choice()
		return w.advance(func() error { return w.session.CommitOperation(choice, custom) })
	}

	return w, cmd
}

// updateEquipment handles updates on the equipment page.
func (w *Wizard) updateEquipment(msg tea.Msg) (tea.Model, tea.Cmd) {
	model, cmd := w.equipmentScreen.Update(msg)
	if es, ok := model.(*screens.EquipmentScreen); ok {
		w.equipmentScreen = es
	}

	if w.equipmentScreen.Cancelled() {
		w.cancelled = true
		return w, tea.Quit
	}

	if w.equipmentScreen.Back() {
		return w.goBack()
	}

	if w.equipmentScreen.Done() {
		sel := w.equipmentScreen.Selection()
		return w.advance(func() error {
			_, err := w.session.CommitEquipment(sel)
			return err
		})
	}

	return w, cmd
}

// updateSummary handles updates on the summary page.
func (w *Wizard) updateSummary(msg tea.Msg) (tea.Model, tea.Cmd) {
	model, cmd := w.summaryScreen.Update(msg)
	if ss, ok := model.(*screens.SummaryScreen); ok {
		w.summaryScreen = ss
	}

	if w.summaryScreen.Cancelled() {
		w.cancelled = true
		return w, tea.Quit
	}

	if w.summaryScreen.Done() {
		switch w.summaryScreen.Action() {
		case screens.SummaryActionNext:
			return w.advance(func() error { return nil })

		case screens.SummaryActionSave:
			return w.transitionToSaveSession()

		case screens.SummaryActionBack:
			return w.goBack()

		case screens.SummaryActionCancel:
			w.cancelled = true
			return w, tea.Quit
		}
	}

	return w, cmd
}

// transitionToSaveSession shows the save session dialog.
func (w *Wizard) transitionToSaveSession() (tea.Model, tea.Cmd) {
	w.phase = PhaseSaveSession

	w.saveSessionForm = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("session_path").
				Title("Save session to").
				Description("Enter the path for the YAML session file").
				Value(&w.sessionPath).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("path is required")
					}
					return nil
				}),
		),
	).WithShowHelp(false)

	return w, w.saveSessionForm.Init()
}

// updateSaveSession handles updates in the save session phase.
func (w *Wizard) updateSaveSession(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			// Go back to summary
			w.buildStep()
			return w, w.currentInit()
		case "ctrl+c":
			w.cancelled = true
			return w, tea.Quit
		}
	}

	form, cmd := w.saveSessionForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		w.saveSessionForm = f
	}

	if w.saveSessionForm.State == huh.StateCompleted {
		path := strings.TrimSpace(w.sessionPath)
		if err := SaveSession(w.session, path); err != nil {
			w.notice = err.Error()
		} else {
			w.logger.Info("session saved", zap.String("path", path))
			w.notice = "Session saved to " + path
		}
		w.buildStep()
		return w, w.currentInit()
	}

	return w, cmd
}

// viewSaveSession renders the save session dialog.
func (w *Wizard) viewSaveSession() string {
	title := components.TitleStyle.Render("Save Session")

	content := lipgloss.JoinVertical(lipgloss.Left,
		title,
		"",
		w.saveSessionForm.View(),
		"",
		"Enter: Save | Esc: Back",
	)

	return content
}

// updateReport handles updates on the report page.
func (w *Wizard) updateReport(msg tea.Msg) (tea.Model, tea.Cmd) {
	model, cmd := w.reportScreen.Update(msg)
	if rs, ok := model.(*screens.ReportScreen); ok {
		w.reportScreen = rs
	}

	if w.reportScreen.Cancelled() {
		w.cancelled = true
		return w, tea.Quit
	}

	if w.reportScreen.Back() {
		return w.goBack()
	}

	if w.reportScreen.Done() {
		w.reportFormat = w.reportScreen.Format()

		path, err := w.writeReport(w.reportFormat)
		if err != nil {
			return w.handleError(err)
		}
		w.written = path
		w.phase = PhaseComplete
		sum, _ := w.session.Summary()
		w.completionScreen = screens.NewCompletionScreen("Report written",
			"File: "+path,
			"Total Cost: "+report.FormatAmount(sum.TotalCost, w.opts.Layout),
			"Out-of-pocket Cost: "+report.FormatAmount(sum.OutOfPocket, w.opts.Layout),
		)
		return w, nil
	}

	return w, cmd
}

// writeReport renders the session summary in the chosen format. The file
// extension follows the format.
func (w *Wizard) writeReport(format string) (string, error) {
	backend, err := report.Lookup(format, w.opts.Report)
	if err != nil {
		return "", err
	}
	path := w.reportScreen.Path(backend.Extension())
	w.reportPath = path

	doc, err := w.session.Report(w.opts.Layout)
	if err != nil {
		return "", err
	}
	if err := report.WriteFile(path, backend, doc); err != nil {
		return "", err
	}

	w.logger.Info("report written",
		zap.String("path", path),
		zap.String("format", backend.Name()))
	return path, nil
}

// updateComplete handles updates in the completion phase.
func (w *Wizard) updateComplete(msg tea.Msg) (tea.Model, tea.Cmd) {
	model, cmd := w.completionScreen.Update(msg)
	if cs, ok := model.(*screens.CompletionScreen); ok {
		w.completionScreen = cs
	}

	if w.completionScreen.Done() {
		w.finished = true
		return w, tea.Quit
	}

	return w, cmd
}

// updateError handles updates in the error phase.
func (w *Wizard) updateError(msg tea.Msg) (tea.Model, tea.Cmd) {
	model, cmd := w.errorScreen.Update(msg)
	if es, ok := model.(*screens.ErrorScreen); ok {
		w.errorScreen = es
	}

	if w.errorScreen.Done() {
		w.finished = true
		return w, tea.Quit
	}

	return w, cmd
}

// Result reports how a run ended: the written report path, if any, and the
// fatal error, if any.
func (w *Wizard) Result() (written string, cancelled bool, err error) {
	return w.written, w.cancelled, w.err
}

// Run starts the interactive wizard on s.
func Run(s *session.Session, opts Options) (string, error) {
	wizard := NewWizard(s, opts)
	p := tea.NewProgram(wizard, tea.WithAltScreen())

	finalModel, err := p.Run()
	if err != nil {
		return "", fmt.Errorf("running wizard: %w", err)
	}

	// Check final state
	if w, ok := finalModel.(*Wizard); ok {
		written, cancelled, err := w.Result()
		if cancelled {
			return "", nil // User cancelled, not an error
		}
		return written, err
	}

	return "", nil
}
