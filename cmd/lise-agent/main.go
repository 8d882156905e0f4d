// LISE bench agent - standalone agent binary.
//
// The desktop console launches this binary on startup (or attaches to a
// copy that is already running). It can also be run by hand on a bench
// that has no console installed:
//
//	lise-agent run            # foreground, Ctrl+C to stop
//	lise-agent run --daemon   # detached, PID file under the config dir
//	lise-agent status
//	lise-agent stop
package main

import (
	"os"

	"github.com/lise-project/lise-desktop/internal/cli"
)

func main() {
	if err := cli.ExecuteAgent(); err != nil {
		os.Exit(1)
	}
}
