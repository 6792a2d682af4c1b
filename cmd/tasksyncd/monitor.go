package main

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/marcus/tasksync/internal/monitor"
	"github.com/marcus/tasksync/internal/syncclient"
)

var (
	monitorServer   string
	monitorInterval time.Duration
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Live dashboard for a running server",
	Long: `Live terminal dashboard showing server health, request traffic and
sync activity, refreshed on an interval.`,
	RunE: runMonitor,
}

func init() {
	monitorCmd.Flags().StringVar(&monitorServer, "server", "http://localhost:8080", "server base URL")
	monitorCmd.Flags().DurationVar(&monitorInterval, "interval", 2*time.Second, "refresh interval")
}

func runMonitor(cmd *cobra.Command, args []string) error {
	client := syncclient.New(monitorServer, "")

	m := monitor.NewModel(client, monitorInterval)
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("monitor: %w", err)
	}
	return nil
}
