package report

import (
	"fmt"
	"io"
	"time"

	"github.com/go-pdf/fpdf"
)

// PDF renders a single A4 page.
type PDF struct {
	Page     Page
	FontPath string
	Created  time.Time
}

func (p *PDF) Name() string        { return "pdf" }
func (p *PDF) ContentType() string { return "application/pdf" }
func (p *PDF) Extension() string   { return "pdf" }

// Render draws each placed block at its baseline.
func (p *PDF) Render(w io.Writer, doc Document) error {
	page := p.Page
	if page.Width == 0 {
		page = A4
	}

	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetCatalogSort(true)
	if !p.Created.IsZero() {
		pdf.SetCreationDate(p.Created)
		pdf.SetModificationDate(p.Created)
	}
	pdf.SetTitle(doc.Meta.Title, true)
	pdf.SetSubject(doc.Meta.Operation, true)
	pdf.SetCreator("ircost", false)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	translate := func(s string) string { return s }
	if p.FontPath != "" {
		pdf.AddUTF8Font("body", "", p.FontPath)
		pdf.SetFont("body", "", page.FontSize)
	} else {
		pdf.SetFont("Helvetica", "", page.FontSize)
		translate = pdf.UnicodeTranslatorFromDescriptor("")
	}

	for _, pl := range Place(doc, page) {
		if pl.Text == "" {
			continue
		}
		pdf.Text(pl.X, pl.Y, translate(pl.Text))
	}

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("rendering pdf: %w", err)
	}
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("writing pdf: %w", err)
	}
	return nil
}
