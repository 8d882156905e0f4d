// LISE Desktop - console and agent CLI for lab scenario benches.
//
// One binary, two faces:
// - No args + display available → GUI console
// - No args + no display → CLI help
// - --gui → GUI mode (force)
// - --cli → CLI mode (force)
// - CLI subcommands/flags → CLI mode
//
// The GUI console runs the agent startup hook before showing the window;
// the CLI drives a running agent over its HTTP API.
package main

import (
	"fmt"
	"os"
	"runtime"
	"slices"
	"strings"

	"github.com/lise-project/lise-desktop/internal/cli"
	"github.com/lise-project/lise-desktop/internal/gui"
)

func main() {
	if isCLIMode() {
		if err := cli.Execute(); err != nil {
			os.Exit(1)
		}
		return
	}

	if err := gui.LaunchGUI(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// isCLIMode determines whether to run in CLI mode based on arguments and
// environment.
//
// CLI mode when:
// - --cli flag is present (force CLI mode)
// - CLI subcommands are present (agent, scenario, config, ...)
// - CLI flags are present (--help, --version, -h, -v)
// - No display available (DISPLAY/WAYLAND_DISPLAY not set on Linux)
//
// GUI mode when:
// - --gui flag is present (force GUI mode)
// - No arguments and display is available
func isCLIMode() bool {
	// Explicit flags
	if slices.Contains(os.Args, "--cli") {
		return true
	}
	if slices.Contains(os.Args, "--gui") {
		return false
	}

	// CLI subcommands and flags that indicate CLI mode
	cliPatterns := []string{
		// Subcommands
		"agent", "scenario", "config", "status", "logs",
		"version", "completion",
		// Flags
		"--help", "-h", "--version", "-v",
	}

	for _, arg := range os.Args[1:] {
		for _, pattern := range cliPatterns {
			if arg == pattern || strings.HasPrefix(arg, pattern+" ") {
				return true
			}
		}
	}

	// No explicit mode or commands - check for display
	if len(os.Args) == 1 {
		if runtime.GOOS == "linux" {
			if os.Getenv("DISPLAY") == "" && os.Getenv("WAYLAND_DISPLAY") == "" {
				return true
			}
		}
		// On macOS/Windows or Linux with display: default to GUI
		return false
	}

	// Unknown arguments - let the CLI print help rather than opening
	// a window at the user unasked.
	return true
}
