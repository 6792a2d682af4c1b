package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/marcus/tasksync/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "tasksyncd",
	Short: "Task sync server for mobile clients",
	Long: `tasksyncd - a sync server for task apps.

Clients push local task changes in versioned batches and pull remote
changes with a timestamp cursor. Conflicting writes are detected by
version comparison and reported back to the client.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(adminCmd)
	rootCmd.AddCommand(monitorCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.String())
	},
}
