package monitor

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// renderView renders the complete TUI view
func (m Model) renderView() string {
	if m.Width == 0 || m.Height == 0 {
		return "Loading..."
	}

	if m.Width < MinWidth || m.Height < MinHeight {
		return m.renderCompact()
	}

	if m.Err != nil {
		return m.renderError()
	}

	if m.Health == nil {
		return fmt.Sprintf("\n  %s Connecting to %s...\n", m.Spinner.View(), m.Client.BaseURL)
	}

	server := m.renderServerPanel()
	traffic := m.renderTrafficPanel()
	syncPanel := m.renderSyncPanel()

	panels := lipgloss.JoinVertical(lipgloss.Left,
		server,
		traffic,
		syncPanel,
	)

	footer := m.renderFooter()

	return lipgloss.JoinVertical(lipgloss.Left, panels, footer)
}

// renderCompact renders a minimal view for small terminals
func (m Model) renderCompact() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("tasksync monitor"))
	s.WriteString(subtleStyle.Render(" (resize for full view)"))
	s.WriteString("\n\n")

	if m.Err != nil {
		s.WriteString(fmt.Sprintf("Error: %v\n", m.Err))
	} else if m.Health != nil {
		s.WriteString(fmt.Sprintf("Status: %s\n", m.Health.Status))
		if m.Metrics != nil {
			s.WriteString(fmt.Sprintf("Requests: %d | Conflicts: %d\n",
				m.Metrics.Requests, m.Metrics.Conflicts))
		}
	}

	s.WriteString("\nq:quit r:refresh")

	return s.String()
}

// renderError renders an error message
func (m Model) renderError() string {
	return fmt.Sprintf("%s %v\n\nPress r to retry, q to quit",
		statusDownStyle.Render("Error:"), m.Err)
}

// renderServerPanel shows reachability and uptime
func (m Model) renderServerPanel() string {
	var content strings.Builder

	content.WriteString(metricRow("Status", formatStatus(m.Health.Status)))
	content.WriteString(metricRow("Server", m.Client.BaseURL))
	if m.Metrics != nil {
		content.WriteString(metricRow("Uptime", formatDuration(time.Duration(m.Metrics.UptimeSeconds)*time.Second)))
	}
	content.WriteString(metricRow("Server time", m.Health.Time.Local().Format("15:04:05")))

	return m.wrapPanel("SERVER", content.String())
}

// renderTrafficPanel shows request counters and error counts
func (m Model) renderTrafficPanel() string {
	var content strings.Builder

	if m.Metrics == nil {
		content.WriteString(subtleStyle.Render("metrics unavailable"))
		content.WriteString("\n")
		return m.wrapPanel("TRAFFIC", content.String())
	}

	content.WriteString(metricRow("Requests", fmt.Sprintf("%d", m.Metrics.Requests)))
	content.WriteString(metricRow("Client errors", formatErrCount(m.Metrics.ClientErrors)))
	content.WriteString(metricRow("Server errors", formatErrCount(m.Metrics.ServerErrors)))

	return m.wrapPanel("TRAFFIC", content.String())
}

// renderSyncPanel shows push/pull activity and conflict counts
func (m Model) renderSyncPanel() string {
	var content strings.Builder

	if m.Metrics == nil {
		content.WriteString(subtleStyle.Render("metrics unavailable"))
		content.WriteString("\n")
		return m.wrapPanel("SYNC", content.String())
	}

	content.WriteString(metricRow("Pushes", fmt.Sprintf("%d (%.1f/min)", m.Metrics.PushRequests, m.PushesPerMin)))
	content.WriteString(metricRow("Pulls", fmt.Sprintf("%d (%.1f/min)", m.Metrics.PullRequests, m.PullsPerMin)))
	content.WriteString(metricRow("Tasks applied", fmt.Sprintf("%d", m.Metrics.TasksApplied)))
	content.WriteString(metricRow("Conflicts", formatErrCount(m.Metrics.Conflicts)))
	content.WriteString(metricRow("Active users", fmt.Sprintf("%d", m.Metrics.ActiveUsers)))

	return m.wrapPanel("SYNC", content.String())
}

// renderFooter renders the bottom status bar
func (m Model) renderFooter() string {
	refreshed := "never"
	if !m.LastRefresh.IsZero() {
		refreshed = m.LastRefresh.Local().Format("15:04:05")
	}

	left := helpStyle.Render("q:quit  r:refresh")
	right := timestampStyle.Render(fmt.Sprintf("refreshed %s  %s", refreshed, m.Spinner.View()))

	gap := m.Width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}

	return left + strings.Repeat(" ", gap) + right
}

// wrapPanel wraps content in a bordered panel with a title bar
func (m Model) wrapPanel(title, content string) string {
	width := m.Width - 4
	if width < MinWidth-4 {
		width = MinWidth - 4
	}

	header := panelTitleStyle.Render(title)
	body := lipgloss.JoinVertical(lipgloss.Left, header, strings.TrimRight(content, "\n"))

	return panelStyle.Width(width).Render(body)
}

func metricRow(label, value string) string {
	return labelStyle.Render(label) + valueStyle.Render(value) + "\n"
}

// formatErrCount colors a counter red when nonzero
func formatErrCount(n int64) string {
	s := fmt.Sprintf("%d", n)
	if n > 0 {
		return statusWarnStyle.Render(s)
	}
	return s
}

// formatDuration renders a duration as 2d3h, 4h12m or 37m
func formatDuration(d time.Duration) string {
	switch {
	case d >= 24*time.Hour:
		days := int(d.Hours()) / 24
		hours := int(d.Hours()) % 24
		return fmt.Sprintf("%dd%dh", days, hours)
	case d >= time.Hour:
		return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
	case d >= time.Minute:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	default:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
}
