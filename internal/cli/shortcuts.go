// Package cli provides command shortcuts for common operations.
package cli

import (
	"github.com/spf13/cobra"
)

// AddShortcuts adds shortcut commands to the root command.
// Shortcuts provide convenient aliases for commonly-used operations.
func AddShortcuts(rootCmd *cobra.Command) {
	rootCmd.AddCommand(newStatusShortcut())
	rootCmd.AddCommand(newLogsShortcut())
}

// newStatusShortcut creates the 'status' shortcut command.
// Shortcut for: agent status
func newStatusShortcut() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show agent status (shortcut for 'agent status')",
		Long: `Shortcut for inspecting the local agent.

Equivalent to: lise-desktop agent status`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAgentStatus()
		},
	}
}

// newLogsShortcut creates the 'logs' shortcut command.
// Shortcut for: scenario logs
func newLogsShortcut() *cobra.Command {
	return &cobra.Command{
		Use:   "logs",
		Short: "Follow scenario container logs (shortcut for 'scenario logs')",
		Long: `Shortcut for following the running scenario's container logs.

Equivalent to: lise-desktop scenario logs`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarioLogs()
		},
	}
}
