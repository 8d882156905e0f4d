// Package logstream tails the container logs of a running scenario and
// hands each cleaned line to a sink.
package logstream

import (
	"bufio"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/lise-project/lise-desktop/internal/constants"
	"github.com/lise-project/lise-desktop/internal/logging"
)

// Scanner buffer sizing. Container stack traces routinely blow past the
// bufio default of 64KB.
const (
	scanInitialBuf = 64 * 1024
	scanMaxBuf     = 1024 * 1024
)

// Streamer follows the compose log output for one scenario.
type Streamer struct {
	log         *logging.Logger
	composeArgs []string
	composePath string

	// SettleDelay is how long Follow waits for containers to come up
	// before tailing. Defaults to constants.LogFollowSettleDelay.
	SettleDelay time.Duration
}

// New returns a streamer for the compose file at composePath, driven by
// composeCommand (for example "docker-compose" or "docker compose").
func New(composePath, composeCommand string, log *logging.Logger) *Streamer {
	args := strings.Fields(composeCommand)
	if len(args) == 0 {
		args = []string{"docker-compose"}
	}
	return &Streamer{
		log:         log,
		composeArgs: args,
		composePath: composePath,
		SettleDelay: constants.LogFollowSettleDelay,
	}
}

// Follow waits out the container settle delay, then tails the scenario's
// merged stdout/stderr logs, passing each stripped, non-empty line to
// sink. It blocks until ctx is cancelled or the compose process exits.
func (s *Streamer) Follow(ctx context.Context, sink func(line string)) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(s.SettleDelay):
	}

	args := append([]string{}, s.composeArgs[1:]...)
	args = append(args, "-f", s.composePath, "logs", "-f", "--no-log-prefix")
	cmd := exec.CommandContext(ctx, s.composeArgs[0], args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to capture log output: %w", err)
	}
	cmd.Stderr = cmd.Stdout

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start log stream: %w", err)
	}
	s.log.Debug().Int("pid", cmd.Process.Pid).Msg("Following scenario logs")

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, scanInitialBuf), scanMaxBuf)
	for scanner.Scan() {
		line := strings.TrimSpace(StripANSI(scanner.Text()))
		if line == "" {
			continue
		}
		sink(line)
	}

	waitErr := cmd.Wait()
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if waitErr != nil {
		return fmt.Errorf("log stream ended: %w", waitErr)
	}
	return nil
}
