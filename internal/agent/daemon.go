package agent

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/lise-project/lise-desktop/internal/config"
)

// daemonEnvMarker tells a re-executed agent that it is the detached
// child, so it must not daemonize again.
const daemonEnvMarker = "LISE_AGENT_CHILD"

// IsDaemonChild reports whether this process is the re-executed daemon.
func IsDaemonChild() bool {
	return os.Getenv(daemonEnvMarker) == "1"
}

// SpawnDaemon re-executes the current binary with the given arguments,
// detached from the terminal, and returns the child's PID. The child is
// released; the parent is expected to exit.
func SpawnDaemon(args []string) (int, error) {
	executable, err := os.Executable()
	if err != nil {
		return 0, fmt.Errorf("failed to get executable path: %w", err)
	}

	cmd := exec.Command(executable, args...)
	cmd.Env = append(os.Environ(), daemonEnvMarker+"=1")

	// Detach from terminal
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil
	applyDaemonAttr(cmd)

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("failed to start agent daemon: %w", err)
	}

	pid := cmd.Process.Pid
	cmd.Process.Release()
	return pid, nil
}

// OpenDaemonLog opens the detached agent's log file for appending. The
// daemon child has no terminal, so its logger writes here instead.
func OpenDaemonLog() (*os.File, error) {
	if err := config.EnsureLogDirectory(); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	path := filepath.Join(config.LogDirectory(), "agent.log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("failed to open agent log file: %w", err)
	}
	return f, nil
}
