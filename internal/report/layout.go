// Package report lays out the procedure cost summary as an ordered list of
// text blocks and renders that layout through interchangeable back ends.
package report

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// SignatureLine closes every report.
const SignatureLine = "Patient Signature: __________________________"

// Kind classifies a block.
type Kind int

const (
	KindText Kind = iota
	KindHeading
	KindItem
	KindTotal
	KindSignature
	KindBlank
)

// Column selects the horizontal origin of a block.
type Column int

const (
	ColumnLeft Column = iota
	ColumnRight
)

// Block is one line of the report. Lead is the vertical distance in points
// from the previous baseline.
type Block struct {
	Kind   Kind
	Text   string
	Column Column
	Indent float64
	Lead   float64
}

// Meta describes the report for back ends that carry a header.
type Meta struct {
	Title      string
	FirstName  string
	LastName   string
	PatientID  string
	Operation  string
	SchemeName string
}

// Document is the declarative report layout.
type Document struct {
	Meta   Meta
	Blocks []Block
}

// Lines returns the text of every block, blank blocks as empty strings.
func (d Document) Lines() []string {
	lines := make([]string, len(d.Blocks))
	for i, b := range d.Blocks {
		lines[i] = b.Text
	}
	return lines
}

// Item is an equipment line of the report.
type Item struct {
	Name     string
	Quantity int
}

// Input is everything the report shows.
type Input struct {
	FirstName   string
	LastName    string
	HN          string
	Diagnosis   string
	SchemeLabel string
	Operation   string
	Items       []Item

	TotalCost          decimal.Decimal
	TotalReimbursement decimal.Decimal
	OutOfPocket        decimal.Decimal
}

// Format controls how amounts are printed.
type Format struct {
	ThousandsSeparator bool   `yaml:"thousands_separator"`
	Currency           string `yaml:"currency"`
}

// Vertical rhythm, in points.
const (
	leadHeader  = 20
	leadItem    = 15
	leadItems   = 20
	leadTotals  = 10
	leadTotal   = 15
	leadClosing = 25
	itemIndent  = 20
)

// Build lays out the report. Items with a quantity of zero or less are left out.
func Build(in Input, f Format) Document {
	doc := Document{
		Meta: Meta{
			Title:      "Procedure cost summary",
			FirstName:  in.FirstName,
			LastName:   in.LastName,
			PatientID:  in.HN,
			Operation:  in.Operation,
			SchemeName: in.SchemeLabel,
		},
	}

	add := func(kind Kind, col Column, lead float64, text string) {
		doc.Blocks = append(doc.Blocks, Block{Kind: kind, Text: text, Column: col, Lead: lead})
	}
	blank := func(lead float64) { add(KindBlank, ColumnLeft, lead, "") }

	name := strings.TrimSpace(in.FirstName + " " + in.LastName)
	add(KindText, ColumnRight, 0, "Name: "+name)
	add(KindText, ColumnRight, leadHeader, "HN: "+in.HN)
	add(KindText, ColumnRight, leadHeader, "Diagnosis: "+in.Diagnosis)

	blank(leadHeader)
	add(KindText, ColumnLeft, leadHeader, "Healthcare Scheme: "+in.SchemeLabel)
	add(KindText, ColumnLeft, leadHeader, "Operation: "+in.Operation)

	blank(leadHeader)
	add(KindHeading, ColumnLeft, leadHeader, "Equipment Used:")
	lead := float64(leadItems)
	for _, it := range in.Items {
		if it.Quantity <= 0 {
			continue
		}
		doc.Blocks = append(doc.Blocks, Block{
			Kind:   KindItem,
			Text:   fmt.Sprintf("%s: %d", it.Name, it.Quantity),
			Indent: itemIndent,
			Lead:   lead,
		})
		lead = leadItem
	}

	blank(leadTotals)
	add(KindTotal, ColumnLeft, leadTotal, "Total Cost: "+FormatAmount(in.TotalCost, f))
	add(KindTotal, ColumnLeft, leadTotal, "Total Reimbursement: "+FormatAmount(in.TotalReimbursement, f))
	add(KindTotal, ColumnLeft, leadTotal, "Out-of-pocket Cost: "+FormatAmount(in.OutOfPocket, f))

	blank(leadClosing)
	add(KindSignature, ColumnLeft, leadTotal, SignatureLine)

	return doc
}

// FormatAmount prints an amount with two decimals, optionally grouping
// thousands and appending a currency code.
func FormatAmount(d decimal.Decimal, f Format) string {
	s := d.StringFixed(2)
	if f.ThousandsSeparator {
		s = groupThousands(d)
	}
	if f.Currency != "" {
		s += " " + f.Currency
	}
	return s
}

func groupThousands(d decimal.Decimal) string {
	fixed := d.Abs().StringFixed(2)
	intPart, frac, _ := strings.Cut(fixed, ".")

	n, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		// Beyond int64: print ungrouped.
		return d.StringFixed(2)
	}

	s := humanize.Comma(n) + "." + frac
	if d.Round(2).IsNegative() {
		s = "-" + s
	}
	return s
}
