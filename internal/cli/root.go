// Package cli provides the command-line interface for lise-desktop.
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

var (
	// Global flags
	cfgFile string
	verbose bool
	debug   bool

	// Global logger
	logger *logging.Logger

	// Global context for signal handling
	rootContext context.Context
	cancelFunc  context.CancelFunc
)

// NewRootCmd creates the root command for CLI mode.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "lise-desktop",
		Short: "LISE Desktop - console and agent for lab scenario benches",
		Long: `LISE Desktop ` + version.Version + ` - Built: ` + version.BuildTime + `
Console and agent for running compose scenarios on a lab bench machine.

CLI Mode (any arguments):
  Drive the local agent: run it, start and stop scenarios, stream
  container logs, and manage configuration.

GUI Mode (no arguments):
  Desktop console with scenario controls and a live log view.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Initialize logger
			logger = logging.NewDefaultCLILogger()
			if verbose || debug {
				logging.SetGlobalLevel(zerolog.DebugLevel)
			}
		},
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Agent configuration file path (agent.ini)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output (shows debug messages)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug output (same as --verbose)")

	rootCmd.Version = version.Version + " (" + version.BuildTime + ")"

	// Customize completion command description
	completionCmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for lise-desktop.

Examples:
  # bash (Linux)
  lise-desktop completion bash | sudo tee /etc/bash_completion.d/lise-desktop

  # zsh
  lise-desktop completion zsh > ~/.zsh/completions/_lise-desktop
  # Then add to ~/.zshrc: fpath=(~/.zsh/completions $fpath)

  # Quick test (current session only)
  source <(lise-desktop completion bash)`,
	}
	rootCmd.AddCommand(completionCmd)

	completionCmd.AddCommand(&cobra.Command{
		Use:   "bash",
		Short: "Generate bash completion script",
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootCmd.Root().GenBashCompletion(cmd.OutOrStdout())
		},
	})
	completionCmd.AddCommand(&cobra.Command{
		Use:   "zsh",
		Short: "Generate zsh completion script",
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootCmd.Root().GenZshCompletion(cmd.OutOrStdout())
		},
	})
	completionCmd.AddCommand(&cobra.Command{
		Use:   "fish",
		Short: "Generate fish completion script",
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootCmd.Root().GenFishCompletion(cmd.OutOrStdout(), true)
		},
	})
	completionCmd.AddCommand(&cobra.Command{
		Use:   "powershell",
		Short: "Generate PowerShell completion script",
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootCmd.Root().GenPowerShellCompletion(cmd.OutOrStdout())
		},
	})

	// Disable default completion command (we're adding our own above)
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	return rootCmd
}

// Execute runs the CLI.
func Execute() error {
	// Create a context that can be cancelled by signals
	rootContext, cancelFunc = context.WithCancel(context.Background())

	// Set up signal handling for graceful cancellation
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Loop so repeated Ctrl+C presses keep being acknowledged while
	// shutdown is in flight
	go func() {
		for sig := range sigChan {
			if sig != nil {
				fmt.Fprintf(os.Stderr, "\nReceived signal %v, shutting down...\n", sig)
				cancelFunc()
			}
		}
	}()

	rootCmd := NewRootCmd()
	AddCommands(rootCmd)
	err := rootCmd.Execute()

	// Clean up signal handler
	signal.Stop(sigChan)
	close(sigChan)

	return err
}

// AddCommands adds all subcommands to the root command.
func AddCommands(rootCmd *cobra.Command) {
	rootCmd.AddCommand(newAgentCmd())
	rootCmd.AddCommand(newScenarioCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newVersionCmd())

	// Add shortcuts for convenience
	AddShortcuts(rootCmd)
}

// newVersionCmd creates the 'version' command.
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("lise-desktop %s (built %s, %s build)\n", version.Version, version.BuildTime, version.Mode)
		},
	}
}

// GetLogger returns the global CLI logger.
func GetLogger() *logging.Logger {
	if logger == nil {
		logger = logging.NewDefaultCLILogger()
	}
	return logger
}

// GetContext returns the global CLI context with signal handling.
// This context will be cancelled when the user presses Ctrl+C.
func GetContext() context.Context {
	if rootContext == nil {
		// Fallback to background context if called before Execute()
		return context.Background()
	}
	return rootContext
}
