package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/lise-project/lise-desktop/internal/logging"
	"github.com/lise-project/lise-desktop/internal/version"
)

// NewAgentRootCmd creates the root command for the standalone lise-agent
// binary. The agent lifecycle commands sit at the top level here
// (lise-agent run, not lise-agent agent run); the scenario group comes
// along so a bench without the console binary can still drive scenarios.
func NewAgentRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "lise-agent",
		Short: "LISE bench agent - HTTP API for compose scenarios",
		Long: `LISE bench agent ` + version.Version + ` - Built: ` + version.BuildTime + `
Serves the HTTP API the orchestrator and the desktop console call to
register this machine, start and stop compose scenarios, and stream
container logs.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger = logging.NewDefaultCLILogger()
			if verbose || debug {
				logging.SetGlobalLevel(zerolog.DebugLevel)
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Agent configuration file path (agent.ini)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output (shows debug messages)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug output (same as --verbose)")

	rootCmd.Version = version.Version + " (" + version.BuildTime + ")"

	rootCmd.AddCommand(newAgentRunCmd())
	rootCmd.AddCommand(newAgentStatusCmd())
	rootCmd.AddCommand(newAgentStopCmd())
	rootCmd.AddCommand(newAgentConnectCmd())
	rootCmd.AddCommand(newScenarioCmd())

	return rootCmd
}

// ExecuteAgent runs the standalone agent CLI with the same signal
// handling as the console CLI.
func ExecuteAgent() error {
	rootContext, cancelFunc = context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		for sig := range sigChan {
			if sig != nil {
				fmt.Fprintf(os.Stderr, "\nReceived signal %v, shutting down...\n", sig)
				cancelFunc()
			}
		}
	}()

	err := NewAgentRootCmd().Execute()

	signal.Stop(sigChan)
	close(sigChan)

	return err
}
