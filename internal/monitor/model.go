// Package monitor is a terminal dashboard for a running tasksyncd server,
// polling /healthz and /metricz on an interval.
package monitor

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/marcus/tasksync/internal/syncclient"
)

// MinWidth is the minimum terminal width for proper display
const MinWidth = 40

// MinHeight is the minimum terminal height for proper display
const MinHeight = 10

// Model is the main Bubble Tea model for the monitor TUI
type Model struct {
	Client *syncclient.Client

	// Window dimensions
	Width  int
	Height int

	// Polled data
	Health  *syncclient.HealthResponse
	Metrics *syncclient.MetricsResponse
	Err     error

	// Deltas computed between refreshes
	PushesPerMin float64
	PullsPerMin  float64

	// UI state
	Spinner     spinner.Model
	LastRefresh time.Time
	StartedAt   time.Time

	// Configuration
	RefreshInterval time.Duration
}

// TickMsg triggers a data refresh
type TickMsg time.Time

// RefreshDataMsg carries refreshed data
type RefreshDataMsg struct {
	Health    *syncclient.HealthResponse
	Metrics   *syncclient.MetricsResponse
	Err       error
	Timestamp time.Time
}

// NewModel creates a new monitor model
func NewModel(client *syncclient.Client, interval time.Duration) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = spinnerStyle
	return Model{
		Client:          client,
		Spinner:         sp,
		RefreshInterval: interval,
		StartedAt:       time.Now(),
	}
}

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.Spinner.Tick,
		m.fetchData(),
		m.scheduleTick(),
	)
}

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "r":
			return m, m.fetchData()
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		return m, nil

	case TickMsg:
		return m, tea.Batch(m.fetchData(), m.scheduleTick())

	case RefreshDataMsg:
		// Rates are the delta from the previous snapshot over the time
		// between the two refreshes that produced them.
		if msg.Metrics != nil && m.Metrics != nil {
			elapsed := msg.Timestamp.Sub(m.LastRefresh).Minutes()
			if elapsed > 0 {
				m.PushesPerMin = float64(msg.Metrics.PushRequests-m.Metrics.PushRequests) / elapsed
				m.PullsPerMin = float64(msg.Metrics.PullRequests-m.Metrics.PullRequests) / elapsed
			}
		}
		if msg.Metrics != nil {
			m.Metrics = msg.Metrics
		}
		m.Health = msg.Health
		m.Err = msg.Err
		m.LastRefresh = msg.Timestamp
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View implements tea.Model
func (m Model) View() string {
	return m.renderView()
}

// scheduleTick returns a command that sends a TickMsg after the refresh interval
func (m Model) scheduleTick() tea.Cmd {
	return tea.Tick(m.RefreshInterval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// fetchData returns a command that polls the server and sends a RefreshDataMsg
func (m Model) fetchData() tea.Cmd {
	return func() tea.Msg {
		return FetchData(m.Client)
	}
}
