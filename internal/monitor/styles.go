package monitor

import (
	"github.com/charmbracelet/lipgloss"
)

var (
	// Base colors
	primaryColor = lipgloss.Color("212")
	mutedColor   = lipgloss.Color("241")
	successColor = lipgloss.Color("42")
	warningColor = lipgloss.Color("214")
	errorColor   = lipgloss.Color("196")

	// Panel styles
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	panelTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Background(lipgloss.Color("237")).
			Foreground(lipgloss.Color("255")).
			Padding(0, 1)

	// Text styles
	titleStyle     = lipgloss.NewStyle().Bold(true)
	subtleStyle    = lipgloss.NewStyle().Foreground(mutedColor)
	helpStyle      = lipgloss.NewStyle().Foreground(mutedColor)
	timestampStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	spinnerStyle   = lipgloss.NewStyle().Foreground(primaryColor)

	// Status styles
	statusUpStyle   = lipgloss.NewStyle().Foreground(successColor).Bold(true)
	statusDownStyle = lipgloss.NewStyle().Foreground(errorColor).Bold(true)
	statusWarnStyle = lipgloss.NewStyle().Foreground(warningColor).Bold(true)

	// Metric label/value columns
	labelStyle = lipgloss.NewStyle().Foreground(mutedColor).Width(16)
	valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
)

// formatStatus renders a server health status with color
func formatStatus(status string) string {
	switch status {
	case "ok":
		return statusUpStyle.Render("UP")
	case "degraded":
		return statusWarnStyle.Render("DEGRADED")
	default:
		return statusDownStyle.Render("DOWN")
	}
}
