package cmd

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"
)

// ui holds the terminal colors
var ui = struct {
	Brand  *color.Color
	Subtle *color.Color
	Good   *color.Color
	Warn   *color.Color
	Bad    *color.Color
}{
	Brand:  color.New(color.FgHiMagenta, color.Bold),
	Subtle: color.New(color.FgHiBlack),
	Good:   color.New(color.FgGreen),
	Warn:   color.New(color.FgYellow),
	Bad:    color.New(color.FgRed),
}

// table prints a simple aligned table. Cells may carry color codes; widths
// are measured on plain text.
func table(w io.Writer, headers []string, rows [][]string, plain [][]string) {
	if len(rows) == 0 {
		return
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range plain {
		for i, cell := range row {
			if i < len(widths) && utf8.RuneCountInString(cell) > widths[i] {
				widths[i] = utf8.RuneCountInString(cell)
			}
		}
	}

	headerLine := "  "
	sepLine := "  "
	for i, h := range headers {
		headerLine += fmt.Sprintf("%-*s  ", widths[i], h)
		sepLine += strings.Repeat("─", widths[i]) + "  "
	}
	ui.Subtle.Fprintln(w, headerLine)
	ui.Subtle.Fprintln(w, sepLine)

	for r, row := range rows {
		line := "  "
		for i, cell := range row {
			if i < len(widths) {
				pad := widths[i] - utf8.RuneCountInString(plain[r][i])
				line += cell + strings.Repeat(" ", max(pad, 0)) + "  "
			}
		}
		fmt.Fprintln(w, line)
	}
}
