package cli

import (
	"io"
	"regexp"
	"strings"

	"github.com/mattn/go-runewidth"
)

const columnGap = "  "

var ansiSequence = regexp.MustCompile(`\x1b\[[0-9;?]*[@-~]`)

// writeTable prints rows under headers in left-aligned columns. Widths are
// measured in terminal cells, so wide runes and colored cells line up.
func writeTable(out io.Writer, headers []string, rows [][]string) error {
	all := make([][]string, 0, len(rows)+1)
	if len(headers) > 0 {
		all = append(all, headers)
	}
	all = append(all, rows...)

	var widths []int
	for _, row := range all {
		for i, cell := range row {
			if i >= len(widths) {
				widths = append(widths, 0)
			}
			widths[i] = max(widths[i], cellWidth(cell))
		}
	}
	if len(widths) == 0 {
		return nil
	}

	var b strings.Builder
	for _, row := range all {
		var line strings.Builder
		for i, width := range widths {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			line.WriteString(cell)
			if i < len(widths)-1 {
				line.WriteString(strings.Repeat(" ", width-cellWidth(cell)))
				line.WriteString(columnGap)
			}
		}
		b.WriteString(strings.TrimRight(line.String(), " "))
		b.WriteByte('\n')
	}
	_, err := io.WriteString(out, b.String())
	return err
}

func cellWidth(cell string) int {
	return runewidth.StringWidth(ansiSequence.ReplaceAllString(cell, ""))
}

func formatYesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
