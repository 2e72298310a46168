// Package report renders the end-of-run terminal summary.
package report

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Row is one key-value line of the summary.
type Row struct {
	Key   string
	Value string
}

var (
	okBorder   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("2")).Padding(0, 1)
	failBorder = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("1")).Padding(0, 1)
	keyStyle   = lipgloss.NewStyle().Bold(true).Width(14)
)

// Render draws the summary rows in a bordered box, green for success and red
// for failure. With styling disabled it falls back to plain key: value lines.
func Render(rows []Row, success, styled bool) string {
	if !styled {
		var out string
		for _, r := range rows {
			out += fmt.Sprintf("%-14s %s\n", r.Key+":", r.Value)
		}
		return out
	}

	var content string
	for i, r := range rows {
		if i > 0 {
			content += "\n"
		}
		content += keyStyle.Render(r.Key) + " " + r.Value
	}

	border := okBorder
	if !success {
		border = failBorder
	}
	return border.Render(content) + "\n"
}

// IsTerminal reports whether f is attached to a terminal, deciding whether
// styled output is appropriate.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
