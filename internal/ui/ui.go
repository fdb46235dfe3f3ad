// Package ui holds the terminal palette and table helpers shared by the CLI.
package ui

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"

	"topoview/internal/domain"
)

// Brand colors
var (
	Brand  = color.New(color.FgHiCyan, color.Bold)
	Subtle = color.New(color.FgHiBlack)
	Warn   = color.New(color.FgYellow)
	Info   = color.New(color.FgCyan)
	Good   = color.New(color.FgGreen)
	Bad    = color.New(color.FgRed)
)

// Dot is the glyph used for nodes and legend entries
const Dot = "●"

var severityColors = map[domain.Severity]*color.Color{
	domain.SeverityOK:       color.New(color.FgGreen),
	domain.SeverityInfo:     color.New(color.FgBlue),
	domain.SeverityMinor:    color.New(color.FgYellow),
	domain.SeverityMajor:    color.New(color.FgHiYellow, color.Bold),
	domain.SeverityCritical: color.New(color.FgRed, color.Bold),
	domain.SeverityUnknown:  color.New(color.FgHiBlack),
}

// Severity returns the terminal color for a severity
func Severity(s domain.Severity) *color.Color {
	if c, ok := severityColors[s]; ok {
		return c
	}
	return severityColors[domain.SeverityUnknown]
}

// SeverityDot renders a colored dot followed by the severity label
func SeverityDot(s domain.Severity) string {
	return Severity(s).Sprint(Dot) + " " + s.Label()
}

// Banner prints the command banner
func Banner(w io.Writer, subtitle string) {
	fmt.Fprintf(w, "%s — %s\n\n", Brand.Sprint("topoview"), subtitle)
}

// Table prints a simple aligned table. Cells may carry color codes; widths
// are measured on the visible text.
func Table(w io.Writer, headers []string, rows [][]string) {
	if len(rows) == 0 {
		return
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = visibleLen(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && visibleLen(cell) > widths[i] {
				widths[i] = visibleLen(cell)
			}
		}
	}

	headerLine := "  "
	sepLine := "  "
	for i, h := range headers {
		headerLine += pad(h, widths[i]) + "  "
		sepLine += strings.Repeat("─", widths[i]) + "  "
	}
	Subtle.Fprintln(w, strings.TrimRight(headerLine, " "))
	Subtle.Fprintln(w, strings.TrimRight(sepLine, " "))

	for _, row := range rows {
		line := "  "
		for i, cell := range row {
			if i < len(widths) {
				line += pad(cell, widths[i]) + "  "
			}
		}
		fmt.Fprintln(w, strings.TrimRight(line, " "))
	}
}

// StatusIcon returns a status icon string
func StatusIcon(ok bool) string {
	if ok {
		return Good.Sprint("✓")
	}
	return Bad.Sprint("✗")
}

func pad(s string, width int) string {
	if n := visibleLen(s); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}

// visibleLen counts runes outside ANSI escape sequences
func visibleLen(s string) int {
	n := 0
	inEscape := false
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		i += size
		switch {
		case r == '\x1b':
			inEscape = true
		case inEscape:
			if r == 'm' {
				inEscape = false
			}
		default:
			n++
		}
	}
	return n
}
