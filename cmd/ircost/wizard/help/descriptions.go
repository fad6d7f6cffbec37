// Package help holds the contextual help shown next to wizard fields.
package help

// HelpText contains information about a field
type HelpText struct {
	Title       string
	Description string
	Details     string
}

// Texts contains help information for all wizard fields
var Texts = map[string]HelpText{
	"first_name": {
		Title:       "FIRST NAME",
		Description: "Patient given name as printed on the summary.",
		Details:     "Any script is accepted. Thai names need a UTF-8 font for the PDF (report.font_path).",
	},
	"last_name": {
		Title:       "LAST NAME",
		Description: "Patient family name.",
		Details:     "Printed after the first name in the report header.",
	},
	"hn": {
		Title:       "HOSPITAL NUMBER",
		Description: "Hospital number (HN) of the patient.",
		Details:     "Used as PatientID when the summary is archived as DICOM.",
	},
	"diagnosis": {
		Title:       "DIAGNOSIS",
		Description: "Working diagnosis for the procedure.",
		Details:     "Free text, printed in the report header.",
	},
	"scheme": {
		Title:       "HEALTHCARE SCHEME",
		Description: "Payment scheme covering the patient.",
		Details: `Selects the reimbursement column of the price list.
Reimbursement per item comes from that column;
the patient pays the remainder, never less than 0.`,
	},
	"operation": {
		Title:       "OPERATION",
		Description: "Procedure to be performed.",
		Details: `Each listed operation pre-fills typical equipment quantities.
Choose "Others" to type a procedure name and start from zero.`,
	},
	"custom_operation": {
		Title:       "OTHER OPERATION",
		Description: "Name of a procedure without a default profile.",
		Details:     "All equipment quantities start at 0.",
	},
	"equipment": {
		Title:       "EQUIPMENT QUANTITY",
		Description: "Number of units used for this item.",
		Details: `Single-use items (sheaths, long sheaths, balloons,
exchange wires...) accept 0 or 1.
Other items accept 0 to the configured maximum (100).`,
	},
	"action": {
		Title:       "NEXT STEP",
		Description: "What to do with this cost summary.",
		Details: `Generate report: continue to the printable summary.
Save session: write the current entries to YAML to resume later.
Back: adjust the equipment list.`,
	},
	"session_path": {
		Title:       "SESSION FILE",
		Description: "Where to save the current session.",
		Details:     "Resume with: ircost wizard --from <file>",
	},
	"report_path": {
		Title:       "REPORT FILE",
		Description: "Where to write the summary document.",
		Details:     "The extension is replaced to match the chosen format.",
	},
	"report_format": {
		Title:       "REPORT FORMAT",
		Description: "Output format of the summary document.",
		Details: `pdf - printable A4 page (default)
txt - plain text
png - page preview image
dcm - DICOM Secondary Capture for PACS archiving`,
	},
}
