package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	primary = lipgloss.Color("#7C3AED")
	muted   = lipgloss.Color("#6B7280")
	warning = lipgloss.Color("#F59E0B")

	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(primary)
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(primary).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	noteStyle   = lipgloss.NewStyle().Foreground(muted)
	warnStyle   = lipgloss.NewStyle().Foreground(warning).Bold(true)
)

// renderTable draws rows under the given headers with a rounded border
func renderTable(headers []string, rows [][]string) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(muted)).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...).
		Rows(rows...)
	return t.String()
}

// printTable writes an optional title followed by a table
func printTable(w io.Writer, title string, headers []string, rows [][]string) {
	if title != "" {
		fmt.Fprintln(w, titleStyle.Render(title))
	}
	fmt.Fprintln(w, renderTable(headers, rows))
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func formatDays(d float64) string {
	return fmt.Sprintf("%.1f", d)
}

// formatSignal prints a signal value with the precision its range needs
func formatSignal(v float64) string {
	switch {
	case v == float64(int64(v)):
		return fmt.Sprintf("%.0f", v)
	case v < 10:
		return fmt.Sprintf("%.3g", v)
	}
	return fmt.Sprintf("%.1f", v)
}
