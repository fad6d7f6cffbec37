package report

import (
	"bufio"
	"io"
	"strings"
)

// Text renders the layout as plain text, one line per block.
type Text struct{}

func (Text) Name() string        { return "txt" }
func (Text) ContentType() string { return "text/plain; charset=utf-8" }
func (Text) Extension() string   { return "txt" }

// Render writes the blocks in order. Item lines keep their indent.
func (Text) Render(w io.Writer, doc Document) error {
	bw := bufio.NewWriter(w)
	for _, b := range doc.Blocks {
		if b.Indent > 0 {
			bw.WriteString(strings.Repeat(" ", int(b.Indent/10)))
		}
		bw.WriteString(b.Text)
		bw.WriteString("\n")
	}
	return bw.Flush()
}
