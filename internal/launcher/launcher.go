// Package launcher starts the bundled agent process when the desktop
// console boots and verifies it survives its startup window.
package launcher

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/lise-project/lise-desktop/internal/config"
	"github.com/lise-project/lise-desktop/internal/constants"
	"github.com/lise-project/lise-desktop/internal/logging"
)

// ErrAgentNotFound indicates the agent binary does not exist at the
// resolved path. Nothing is spawned in that case.
var ErrAgentNotFound = errors.New("agent binary not found")

// Launcher spawns the agent binary and performs a single liveness check
// after a fixed startup wait.
type Launcher struct {
	cfg *config.LauncherConfig
	log *logging.Logger

	// startupWait is how long the agent gets before the liveness check.
	startupWait time.Duration

	// agentPath is the resolved binary location, set during Launch.
	agentPath string
}

// New creates a launcher for the given configuration.
func New(cfg *config.LauncherConfig, log *logging.Logger) *Launcher {
	return &Launcher{
		cfg:         cfg,
		log:         log,
		startupWait: constants.AgentStartupWait,
	}
}

// AgentPath returns the binary location resolved by the last Launch call.
func (l *Launcher) AgentPath() string {
	return l.agentPath
}

// Launch resolves the agent binary, spawns it with captured output, waits
// the startup window, and checks once whether the process is still
// running. Returns the agent PID on success.
//
// The check is a single poll, not a health loop: a process that survives
// the window counts as started, and whatever happens to it afterwards is
// the agent's own business.
func (l *Launcher) Launch() (int, error) {
	path, err := ResolveAgentPath(l.cfg)
	if err != nil {
		return 0, err
	}
	l.agentPath = path

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return 0, fmt.Errorf("%w: %s", ErrAgentNotFound, path)
		}
		return 0, fmt.Errorf("failed to check agent binary: %w", err)
	}

	cmd := exec.Command(path)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return 0, fmt.Errorf("failed to capture agent stdout: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return 0, fmt.Errorf("failed to capture agent stderr: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("failed to start agent process: %w", err)
	}

	pid := cmd.Process.Pid
	l.log.Info().Int("pid", pid).Str("path", path).Msg("Started agent process")

	// Relay both streams into the console log. The pipes must be drained
	// before Wait runs, so the waiter blocks on the relays first.
	var wg sync.WaitGroup
	wg.Add(2)
	go l.relay("stdout", stdout, &wg)
	go l.relay("stderr", stderr, &wg)

	done := make(chan error, 1)
	go func() {
		wg.Wait()
		done <- cmd.Wait()
	}()

	time.Sleep(l.startupWait)

	select {
	case waitErr := <-done:
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			return pid, fmt.Errorf("agent exited early with status %d", exitErr.ExitCode())
		}
		if waitErr != nil {
			return pid, fmt.Errorf("failed to check agent status: %w", waitErr)
		}
		// Clean exit inside the startup window still means nothing is
		// listening, so it counts as a failed launch.
		return pid, errors.New("agent exited early with status 0")
	default:
		return pid, nil
	}
}

// relay copies one agent output stream into the console log line by line.
func (l *Launcher) relay(stream string, r io.Reader, wg *sync.WaitGroup) {
	defer wg.Done()
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		l.log.Debug().Str("stream", stream).Msg(scanner.Text())
	}
}
