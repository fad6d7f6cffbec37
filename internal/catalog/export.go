package catalog

import (
	"fmt"

	"github.com/mrsinham/ircost/internal/tables"
	"github.com/xuri/excelize/v2"
)

const defaultSheet = "Equipment"

// Export writes the catalog as an .xlsx workbook in the layout Load expects.
// A nil catalog produces a header-only template.
func Export(c *Catalog, cols Columns, schemes []tables.Scheme) ([]byte, error) {
	if cols.Key == "" {
		cols.Key = DefaultColumns().Key
	}
	if cols.Cost == "" {
		cols.Cost = DefaultColumns().Cost
	}
	sheet := cols.Sheet
	if sheet == "" {
		sheet = defaultSheet
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	if sheet != "Sheet1" {
		if err := f.DeleteSheet("Sheet1"); err != nil {
			return nil, fmt.Errorf("failed to delete default sheet: %w", err)
		}
	}
	f.SetActiveSheet(index)

	header := []interface{}{cols.Key, cols.Cost}
	for _, s := range schemes {
		header = append(header, s.Column)
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}
	lastCol, err := excelize.ColumnNumberToName(len(header))
	if err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(sheet, "A1", lastCol+"1", headerStyle); err != nil {
		return nil, fmt.Errorf("failed to style header: %w", err)
	}

	if c != nil {
		for i, it := range c.Items() {
			row := []interface{}{it.Name, it.Cost.InexactFloat64()}
			for _, s := range schemes {
				r, _ := it.ReimbursementFor(s.ID)
				row = append(row, r.InexactFloat64())
			}
			cellRef, err := excelize.CoordinatesToCellName(1, i+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetSheetRow(sheet, cellRef, &row); err != nil {
				return nil, fmt.Errorf("failed to write %q: %w", it.Name, err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
