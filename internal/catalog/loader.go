package catalog

import (
	"fmt"
	"io"
	"strings"

	"github.com/mrsinham/ircost/internal/tables"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// Columns names the sheet and header columns the loader reads. Scheme
// reimbursement columns come from the scheme table.
type Columns struct {
	Sheet string `yaml:"sheet"`
	Key   string `yaml:"key_column"`
	Cost  string `yaml:"cost_column"`
}

// DefaultColumns matches the reference price list layout.
func DefaultColumns() Columns {
	return Columns{Key: "equipment", Cost: "Cost"}
}

// LoadError reports a catalog that cannot be used. It is fatal at startup.
type LoadError struct {
	Path string
	Row  int
	Err  error
}

func (e *LoadError) Error() string {
	src := e.Path
	if src == "" {
		src = "catalog"
	}
	if e.Row > 0 {
		return fmt.Sprintf("loading %s: row %d: %v", src, e.Row, e.Err)
	}
	return fmt.Sprintf("loading %s: %v", src, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// LoadFile opens an .xlsx workbook and reads the catalog from it.
func LoadFile(path string, cols Columns, schemes []tables.Scheme) (*Catalog, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	defer func() { _ = f.Close() }()

	c, err := read(f, cols, schemes)
	if err != nil {
		if le, ok := err.(*LoadError); ok {
			le.Path = path
		}
		return nil, err
	}
	return c, nil
}

// Load reads the catalog from an .xlsx stream.
func Load(r io.Reader, cols Columns, schemes []tables.Scheme) (*Catalog, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, &LoadError{Err: err}
	}
	defer func() { _ = f.Close() }()

	return read(f, cols, schemes)
}

func read(f *excelize.File, cols Columns, schemes []tables.Scheme) (*Catalog, error) {
	if cols.Key == "" {
		cols.Key = DefaultColumns().Key
	}
	if cols.Cost == "" {
		cols.Cost = DefaultColumns().Cost
	}

	sheet := cols.Sheet
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	if sheet == "" {
		return nil, &LoadError{Err: fmt.Errorf("workbook has no sheets")}
	}

	// Raw values keep number formats (thousands separators, currency) out of the way.
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, &LoadError{Err: fmt.Errorf("reading sheet %q: %w", sheet, err)}
	}
	if len(rows) == 0 {
		return nil, &LoadError{Err: fmt.Errorf("sheet %q is empty", sheet)}
	}

	header := rows[0]
	keyIdx := findColumn(header, cols.Key)
	if keyIdx < 0 {
		return nil, &LoadError{Row: 1, Err: fmt.Errorf("missing key column %q", cols.Key)}
	}
	costIdx := findColumn(header, cols.Cost)
	if costIdx < 0 {
		return nil, &LoadError{Row: 1, Err: fmt.Errorf("missing cost column %q", cols.Cost)}
	}
	schemeIdx := make(map[tables.SchemeID]int, len(schemes))
	for _, s := range schemes {
		idx := findColumn(header, s.Column)
		if idx < 0 {
			return nil, &LoadError{Row: 1, Err: fmt.Errorf("missing reimbursement column %q for scheme %s", s.Column, s.ID)}
		}
		schemeIdx[s.ID] = idx
	}

	var items []Item
	for i, row := range rows[1:] {
		rowNum := i + 2
		name := cell(row, keyIdx)
		if strings.TrimSpace(name) == "" {
			if isBlank(row) {
				continue
			}
			return nil, &LoadError{Row: rowNum, Err: fmt.Errorf("empty %q cell", cols.Key)}
		}

		cost, err := parseAmount(cell(row, costIdx))
		if err != nil {
			return nil, &LoadError{Row: rowNum, Err: fmt.Errorf("%s %q: %w", cols.Cost, name, err)}
		}

		item := Item{
			Name:          name,
			Cost:          cost,
			Reimbursement: make(map[tables.SchemeID]decimal.Decimal, len(schemes)),
		}
		for _, s := range schemes {
			amount, err := parseAmount(cell(row, schemeIdx[s.ID]))
			if err != nil {
				return nil, &LoadError{Row: rowNum, Err: fmt.Errorf("%s %q: %w", s.Column, name, err)}
			}
			item.Reimbursement[s.ID] = amount
		}
		items = append(items, item)
	}

	c, err := New(items)
	if err != nil {
		return nil, &LoadError{Err: err}
	}
	return c, nil
}

func findColumn(header []string, name string) int {
	want := strings.TrimSpace(name)
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), want) {
			return i
		}
	}
	return -1
}

func cell(row []string, idx int) string {
	if idx >= len(row) {
		return ""
	}
	return row[idx]
}

func isBlank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// parseAmount reads a non-negative amount. Blank cells count as 0.
func parseAmount(s string) (decimal.Decimal, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q", s)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("negative amount %s", s)
	}
	return d, nil
}
