package report

// Page is the geometry, in points, that block positions are computed on.
type Page struct {
	Width       float64
	Height      float64
	Margin      float64
	RightColumn float64
	FontSize    float64
}

// A4 matches a portrait A4 sheet with a 50pt margin and the header column
// 300pt right of the left margin.
var A4 = Page{
	Width:       595.28,
	Height:      841.89,
	Margin:      50,
	RightColumn: 300,
	FontSize:    12,
}

// Placed is a block with its baseline position, measured from the top-left
// corner of the page.
type Placed struct {
	Block
	X float64
	Y float64
}

// Place computes the position of every block. The first block sits on the
// top margin; each following one sits Lead points below the previous. When
// the equipment lines would push the totals past the bottom margin, they
// wrap into further columns so the whole report stays on one page.
func Place(doc Document, page Page) []Placed {
	first, last := itemRun(doc.Blocks)
	rows, colWidth, step := itemGrid(doc.Blocks, first, last, page)

	placed := make([]Placed, 0, len(doc.Blocks))
	var y, top float64
	for i, b := range doc.Blocks {
		x := page.Margin + b.Indent
		if b.Column == ColumnRight {
			x += page.RightColumn
		}

		switch {
		case i == 0:
			y = page.Margin
		case first >= 0 && i > first && i <= last:
			n := i - first
			y = top + float64(n%rows)*step
			x += float64(n/rows) * colWidth
		case first >= 0 && i == last+1:
			used := min(rows, last-first+1)
			y = top + float64(used-1)*step + b.Lead
		default:
			y += b.Lead
		}
		if i == first {
			top = y
		}
		placed = append(placed, Placed{Block: b, X: x, Y: y})
	}
	return placed
}

// itemRun returns the first and last index of the equipment lines, or -1, -1.
func itemRun(blocks []Block) (int, int) {
	first, last := -1, -1
	for i, b := range blocks {
		if b.Kind != KindItem {
			continue
		}
		if first < 0 {
			first = i
		}
		last = i
	}
	return first, last
}

// itemGrid returns how many equipment lines fit in a column, the horizontal
// distance between columns and the distance between lines.
func itemGrid(blocks []Block, first, last int, page Page) (rows int, colWidth, step float64) {
	if first < 0 {
		return 1, 0, 0
	}
	n := last - first + 1
	if n > 1 {
		step = blocks[first+1].Lead
	}
	if page.Height <= 0 || step <= 0 {
		return n, 0, step
	}

	top := page.Margin
	for _, b := range blocks[1 : first+1] {
		top += b.Lead
	}
	var tail float64
	for _, b := range blocks[last+1:] {
		tail += b.Lead
	}
	bottom := page.Height - page.Margin - tail

	rows = n
	if fit := int((bottom-top)/step) + 1; fit < rows {
		rows = max(fit, 1)
	}
	cols := (n + rows - 1) / rows
	colWidth = page.RightColumn
	if cols > 2 {
		colWidth = (page.Width - 2*page.Margin) / float64(cols)
	}
	return rows, colWidth, step
}
