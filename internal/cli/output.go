package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true)
	dimStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// Success prints a check-marked line.
func Success(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintln(w, okStyle.Render("✓ "+fmt.Sprintf(format, args...)))
}

// Failure prints a failed check line.
func Failure(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintln(w, failStyle.Render("❌ "+fmt.Sprintf(format, args...)))
}

// Warning prints a warning line.
func Warning(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintln(w, warnStyle.Render("⚠ "+fmt.Sprintf(format, args...)))
}

// Skipped prints a check that did not run.
func Skipped(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintln(w, dimStyle.Render("⊘ "+fmt.Sprintf(format, args...)))
}

// Header prints a section title.
func Header(w io.Writer, title string) {
	fmt.Fprintln(w, headerStyle.Render(title))
}

// Detail prints an indented, dimmed line under a check.
func Detail(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintln(w, dimStyle.Render("   "+fmt.Sprintf(format, args...)))
}

// Table renders rows as left-aligned columns.
func Table(w io.Writer, header []string, rows [][]string) {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && lipgloss.Width(cell) > widths[i] {
				widths[i] = lipgloss.Width(cell)
			}
		}
	}

	render := func(cells []string, style lipgloss.Style) string {
		parts := make([]string, len(cells))
		for i, cell := range cells {
			parts[i] = style.Width(widths[i]).Render(cell)
		}
		return strings.TrimRight(strings.Join(parts, "  "), " ")
	}

	fmt.Fprintln(w, render(header, headerStyle))
	plain := lipgloss.NewStyle()
	for _, row := range rows {
		fmt.Fprintln(w, render(row, plain))
	}
}
