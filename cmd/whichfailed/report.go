package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"whichfailed/internal/diag"
)

var (
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#e53935")).Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8BC34A"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#808080"))
	kindStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFC107"))
)

func paint(s lipgloss.Style, text string) string {
	if noColor {
		return text
	}
	return s.Render(text)
}

// printDiagnostics writes err one diagnostic per line as
// file:line:col: kind: message.
func printDiagnostics(w io.Writer, err error) {
	var list diag.List
	if !errors.As(err, &list) {
		var d *diag.Diagnostic
		if !errors.As(err, &d) {
			fmt.Fprintf(w, "%s %v\n", paint(errorStyle, "error:"), err)
			return
		}
		list = diag.List{d}
	}
	for _, d := range list {
		pos := ""
		if d.Pos.IsValid() {
			pos = d.Pos.String() + ": "
		}
		fmt.Fprintf(w, "%s%s %s\n", paint(mutedStyle, pos), paint(kindStyle, string(d.Kind)+":"), d.Message)
	}
}
