package cli

import (
	"github.com/charmbracelet/lipgloss"
)

// Output styles. lipgloss drops colour when stdout is not a terminal.
var (
	styleTitle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	styleMuted   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C7086"))
	styleSuccess = lipgloss.NewStyle().Foreground(lipgloss.Color("#A6E3A1"))
	styleWarning = lipgloss.NewStyle().Foreground(lipgloss.Color("#F9E2AF"))
	styleError   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F38BA8"))
)

// mark renders a present/absent marker.
func mark(ok bool) string {
	if ok {
		return styleSuccess.Render("present")
	}
	return styleMuted.Render("missing")
}
