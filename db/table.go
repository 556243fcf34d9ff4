package db

import (
	"fmt"
	"io"
	"strings"

	"github.com/Sky-Genesis-Enterprise/aetherdb-cli/core"
)

// RenderTable writes rows as a bordered ASCII table. Cell text comes
// from each value's display form, so NULL renders as NULL.
func RenderTable(w io.Writer, header []string, rows []core.Row) {
	if len(header) == 0 {
		return
	}

	widths := make([]int, len(header))
	for i, name := range header {
		widths[i] = len(name)
	}
	cells := make([][]string, len(rows))
	for r, row := range rows {
		cells[r] = make([]string, len(header))
		for c := range header {
			text := ""
			if c < len(row) {
				text = row[c].String()
			}
			cells[r][c] = text
			if len(text) > widths[c] {
				widths[c] = len(text)
			}
		}
	}

	var sep strings.Builder
	sep.WriteByte('+')
	for _, width := range widths {
		sep.WriteString(strings.Repeat("-", width+2))
		sep.WriteByte('+')
	}

	writeRow := func(row []string) {
		var line strings.Builder
		line.WriteByte('|')
		for i, width := range widths {
			line.WriteString(" " + row[i] + strings.Repeat(" ", width-len(row[i])+1))
			line.WriteByte('|')
		}
		fmt.Fprintln(w, line.String())
	}

	fmt.Fprintln(w, sep.String())
	writeRow(header)
	fmt.Fprintln(w, sep.String())
	for _, row := range cells {
		writeRow(row)
	}
	fmt.Fprintln(w, sep.String())
}
