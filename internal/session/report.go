package session

import (
	"github.com/mrsinham/ircost/internal/report"
)

// ReportInput collects what the summary document shows. It is only available
// on the report page, where the cost summary is final.
func (s *Session) ReportInput() (report.Input, error) {
	if err := s.expect(StepReportDownload); err != nil {
		return report.Input{}, err
	}
	if s.summary == nil {
		if err := s.calculate(); err != nil {
			return report.Input{}, err
		}
	}

	p := s.record.Patient
	in := report.Input{
		FirstName:          p.FirstName,
		LastName:           p.LastName,
		HN:                 p.HN,
		Diagnosis:          p.Diagnosis,
		Operation:          s.record.Operation(),
		TotalCost:          s.summary.TotalCost,
		TotalReimbursement: s.summary.TotalReimbursement,
		OutOfPocket:        s.summary.OutOfPocket,
	}
	if scheme, ok := s.Scheme(); ok {
		in.SchemeLabel = scheme.Label
	}
	for _, line := range s.summary.Lines {
		in.Items = append(in.Items, report.Item{Name: line.Name, Quantity: line.Quantity})
	}
	return in, nil
}

// Report lays out the summary document.
func (s *Session) Report(f report.Format) (report.Document, error) {
	in, err := s.ReportInput()
	if err != nil {
		return report.Document{}, err
	}
	return report.Build(in, f), nil
}
