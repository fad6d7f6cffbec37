package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/mrsinham/ircost/internal/catalog"
	"github.com/mrsinham/ircost/internal/config"
	"github.com/mrsinham/ircost/internal/cost"
	"github.com/mrsinham/ircost/internal/report"
	"github.com/mrsinham/ircost/internal/session"
	"github.com/mrsinham/ircost/internal/tables"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	catalog *catalog.Catalog
	tables  *tables.Tables
	store   *session.Store
	logger  *zap.Logger

	format     string
	layout     report.Format
	reportOpts report.Options
}

// NewHandlers creates new handlers
func NewHandlers(cfg *config.Config, cat *catalog.Catalog, tb *tables.Tables, store *session.Store, logger *zap.Logger) (*Handlers, error) {
	opts, err := cfg.ReportOptions()
	if err != nil {
		return nil, err
	}
	return &Handlers{
		catalog:    cat,
		tables:     tb,
		store:      store,
		logger:     logger,
		format:     cfg.Report.Format,
		layout:     cfg.Layout(),
		reportOpts: opts,
	}, nil
}

// HealthCheck handles health check requests
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, map[string]interface{}{
		"status":   "healthy",
		"service":  "ircost",
		"items":    h.catalog.Len(),
		"sessions": h.store.Len(),
		"time":     time.Now().UTC().Format(time.RFC3339),
	})
}

// Reference data handlers

type itemView struct {
	Name          string                     `json:"name"`
	Cost          decimal.Decimal            `json:"cost"`
	Reimbursement map[string]decimal.Decimal `json:"reimbursement"`
	MaxQuantity   int                        `json:"max_quantity"`
}

// ListCatalog lists equipment with unit prices and quantity limits
func (h *Handlers) ListCatalog(w http.ResponseWriter, r *http.Request) {
	items := make([]itemView, 0, h.catalog.Len())
	for _, it := range h.catalog.Items() {
		reimb := make(map[string]decimal.Decimal, len(it.Reimbursement))
		for id, amount := range it.Reimbursement {
			reimb[string(id)] = amount
		}
		items = append(items, itemView{
			Name:          it.Name,
			Cost:          it.Cost,
			Reimbursement: reimb,
			MaxQuantity:   h.tables.Limits.Max(it.Name),
		})
	}
	respond(w, http.StatusOK, items)
}

type schemeView struct {
	ID     string `json:"id"`
	Label  string `json:"label"`
	Column string `json:"column"`
}

// ListSchemes lists payment schemes
func (h *Handlers) ListSchemes(w http.ResponseWriter, r *http.Request) {
	out := make([]schemeView, 0, len(h.tables.Schemes))
	for _, s := range h.tables.Schemes {
		out = append(out, schemeView{ID: string(s.ID), Label: s.Label, Column: s.Column})
	}
	respond(w, http.StatusOK, out)
}

type operationView struct {
	Name      string         `json:"name"`
	Custom    bool           `json:"custom"`
	Equipment map[string]int `json:"equipment"`
}

// ListOperations lists operation choices with their default equipment
func (h *Handlers) ListOperations(w http.ResponseWriter, r *http.Request) {
	var out []operationView
	for _, name := range h.tables.OperationNames() {
		view := operationView{Name: name, Equipment: map[string]int{}}
		if name == tables.OtherOperation {
			view.Custom = true
		} else if p, ok := h.tables.Profile(name); ok {
			for item := range p.Equipment {
				view.Equipment[item] = h.tables.DefaultQuantity(name, item)
			}
		}
		out = append(out, view)
	}
	respond(w, http.StatusOK, out)
}

// Session handlers

type lineView struct {
	Name              string          `json:"name"`
	Quantity          int             `json:"quantity"`
	UnitCost          decimal.Decimal `json:"unit_cost"`
	UnitReimbursement decimal.Decimal `json:"unit_reimbursement"`
	Cost              decimal.Decimal `json:"cost"`
	Reimbursement     decimal.Decimal `json:"reimbursement"`
}

type summaryView struct {
	Scheme             string          `json:"scheme"`
	Lines              []lineView      `json:"lines"`
	TotalCost          decimal.Decimal `json:"total_cost"`
	TotalReimbursement decimal.Decimal `json:"total_reimbursement"`
	OutOfPocket        decimal.Decimal `json:"out_of_pocket"`
}

type sessionView struct {
	ID              string          `json:"id"`
	Step            string          `json:"step"`
	Title           string          `json:"title"`
	HasNext         bool            `json:"has_next"`
	HasPrevious     bool            `json:"has_previous"`
	Patient         session.Patient `json:"patient"`
	OperationChoice string          `json:"operation_choice"`
	CustomOperation string          `json:"custom_operation,omitempty"`
	Operation       string          `json:"operation"`
	Equipment       cost.Selection  `json:"equipment"`
	Summary         *summaryView    `json:"summary,omitempty"`
	Error           string          `json:"error,omitempty"`
}

func viewOf(s *session.Session) sessionView {
	rec := s.Record()
	v := sessionView{
		ID:              s.ID(),
		Step:            s.Step().String(),
		Title:           s.Step().Title(),
		HasNext:         s.Step().HasNext(),
		HasPrevious:     s.Step().HasPrevious(),
		Patient:         rec.Patient,
		OperationChoice: rec.OperationChoice,
		CustomOperation: rec.CustomOperation,
		Operation:       rec.Operation(),
		Equipment:       rec.Equipment,
	}
	if err := s.Err(); err != nil {
		v.Error = err.Error()
	}
	if sum, ok := s.Summary(); ok {
		sv := &summaryView{
			Scheme:             string(sum.Scheme),
			Lines:              make([]lineView, 0, len(sum.Lines)),
			TotalCost:          sum.TotalCost,
			TotalReimbursement: sum.TotalReimbursement,
			OutOfPocket:        sum.OutOfPocket,
		}
		for _, l := range sum.Lines {
			sv.Lines = append(sv.Lines, lineView(l))
		}
		v.Summary = sv
	}
	return v
}

// CreateSession starts a wizard session
func (h *Handlers) CreateSession(w http.ResponseWriter, r *http.Request) {
	id := h.store.Create()
	h.withSession(w, r, id, http.StatusCreated, func(*session.Session) error { return nil })
}

// GetSession returns the session state
func (h *Handlers) GetSession(w http.ResponseWriter, r *http.Request) {
	h.withSession(w, r, chi.URLParam(r, "id"), http.StatusOK, func(*session.Session) error { return nil })
}

// DeleteSession drops a session
func (h *Handlers) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Delete(chi.URLParam(r, "id")); err != nil {
		h.respondSessionError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type patientRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	HN        string `json:"hn"`
	Diagnosis string `json:"diagnosis"`
	// Scheme is a scheme id or label.
	Scheme string `json:"scheme"`
}

// CommitPatient stores the patient page
func (h *Handlers) CommitPatient(w http.ResponseWriter, r *http.Request) {
	var req patientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	scheme, err := h.tables.ParseScheme(req.Scheme)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.withSession(w, r, chi.URLParam(r, "id"), http.StatusOK, func(s *session.Session) error {
		return s.CommitPatient(session.Patient{
			FirstName: req.FirstName,
			LastName:  req.LastName,
			HN:        req.HN,
			Diagnosis: req.Diagnosis,
			Scheme:    scheme,
		})
	})
}

type operationRequest struct {
	Choice string `json:"choice"`
	Custom string `json:"custom"`
}

// CommitOperation stores the operation page
func (h *Handlers) CommitOperation(w http.ResponseWriter, r *http.Request) {
	var req operationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	h.withSession(w, r, chi.URLParam(r, "id"), http.StatusOK, func(s *session.Session) error {
		return s.CommitOperation(req.Choice, req.Custom)
	})
}

type equipmentRequest struct {
	Equipment cost.Selection `json:"equipment"`
}

// CommitEquipment merges equipment quantities. Out of range values are clamped.
func (h *Handlers) CommitEquipment(w http.ResponseWriter, r *http.Request) {
	var req equipmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	h.withSession(w, r, chi.URLParam(r, "id"), http.StatusOK, func(s *session.Session) error {
		_, err := s.CommitEquipment(req.Equipment)
		return err
	})
}

// Next moves the session one page forward
func (h *Handlers) Next(w http.ResponseWriter, r *http.Request) {
	h.withSession(w, r, chi.URLParam(r, "id"), http.StatusOK, func(s *session.Session) error {
		return s.Next()
	})
}

// Previous moves the session one page back
func (h *Handlers) Previous(w http.ResponseWriter, r *http.Request) {
	h.withSession(w, r, chi.URLParam(r, "id"), http.StatusOK, func(s *session.Session) error {
		return s.Previous()
	})
}

// DownloadReport renders the summary document as an attachment
func (h *Handlers) DownloadReport(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = h.format
	}
	backend, err := report.Lookup(format, h.reportOpts)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	id := chi.URLParam(r, "id")
	var buf bytes.Buffer
	err = h.store.With(id, func(s *session.Session) error {
		doc, err := s.Report(h.layout)
		if err != nil {
			return err
		}
		return backend.Render(&buf, doc)
	})
	if err != nil {
		h.respondSessionError(w, err)
		return
	}

	h.logger.Info("report rendered",
		zap.String("session_id", id),
		zap.String("format", backend.Name()),
		zap.Int("bytes", buf.Len()),
	)

	w.Header().Set("Content-Type", backend.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.Filename(backend)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// withSession runs fn under the session lock and answers with the resulting
// state, or with the mapped error.
func (h *Handlers) withSession(w http.ResponseWriter, r *http.Request, id string, status int, fn func(*session.Session) error) {
	var view sessionView
	err := h.store.With(id, func(s *session.Session) error {
		if err := fn(s); err != nil {
			return err
		}
		view = viewOf(s)
		return nil
	})
	if err != nil {
		h.respondSessionError(w, err)
		return
	}
	respond(w, status, view)
}

func (h *Handlers) respondSessionError(w http.ResponseWriter, err error) {
	var incomplete *session.IncompleteError
	var consistency *cost.ConsistencyError

	switch {
	case errors.Is(err, session.ErrNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &incomplete):
		respond(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"error":  err.Error(),
			"fields": incomplete.Fields,
		})
	case errors.As(err, &consistency):
		h.logger.Error("session stopped", zap.Error(err))
		respondError(w, http.StatusInternalServerError, err.Error())
	case errors.Is(err, session.ErrNoTransition), errors.Is(err, session.ErrWrongStep):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, session.ErrInvalidInput):
		respondError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("request failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Internal error")
	}
}

func respond(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respond(w, status, map[string]string{"error": message})
}
