package session

import (
	"fmt"
	"strings"
)

// Step is a wizard page.
type Step int

const (
	StepPatientInfo Step = iota
	StepOperationSelect
	StepEquipmentSelect
	StepCostSummary
	StepReportDownload
)

// String returns the step name used in logs and the HTTP API.
func (s Step) String() string {
	switch s {
	case StepPatientInfo:
		return "patient_info"
	case StepOperationSelect:
		return "operation_select"
	case StepEquipmentSelect:
		return "equipment_select"
	case StepCostSummary:
		return "cost_summary"
	case StepReportDownload:
		return "report_download"
	default:
		return fmt.Sprintf("step(%d)", int(s))
	}
}

// Title returns the page heading.
func (s Step) Title() string {
	switch s {
	case StepPatientInfo:
		return "Patient Information"
	case StepOperationSelect:
		return "Select Operation"
	case StepEquipmentSelect:
		return "Select Equipment"
	case StepCostSummary:
		return "Cost Summary"
	case StepReportDownload:
		return "Generate PDF Summary"
	default:
		return s.String()
	}
}

// ParseStep parses a step name.
func ParseStep(s string) (Step, error) {
	for st := StepPatientInfo; st <= StepReportDownload; st++ {
		if strings.EqualFold(st.String(), s) {
			return st, nil
		}
	}
	return StepPatientInfo, fmt.Errorf("invalid step: %s (valid: patient_info, operation_select, equipment_select, cost_summary, report_download)", s)
}

type edges struct {
	next, prev       Step
	hasNext, hasPrev bool
}

// transitions is the wizard graph: a straight line of five pages.
var transitions = map[Step]edges{
	StepPatientInfo:     {next: StepOperationSelect, hasNext: true},
	StepOperationSelect: {next: StepEquipmentSelect, prev: StepPatientInfo, hasNext: true, hasPrev: true},
	StepEquipmentSelect: {next: StepCostSummary, prev: StepOperationSelect, hasNext: true, hasPrev: true},
	StepCostSummary:     {next: StepReportDownload, prev: StepEquipmentSelect, hasNext: true, hasPrev: true},
	StepReportDownload:  {prev: StepCostSummary, hasPrev: true},
}

// HasNext reports whether a forward transition exists.
func (s Step) HasNext() bool { return transitions[s].hasNext }

// HasPrevious reports whether a backward transition exists.
func (s Step) HasPrevious() bool { return transitions[s].hasPrev }
