package scenario

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/lise-project/lise-desktop/internal/constants"
	"github.com/lise-project/lise-desktop/internal/logging"
)

// maxCommandOutput caps how much compose stderr is carried into an error.
const maxCommandOutput = 4096

// Runner drives the compose command for a single scenario at a time. The
// compose file for the active scenario lives in workDir and is removed
// when the scenario stops or fails to start.
type Runner struct {
	log         *logging.Logger
	workDir     string
	composeArgs []string
	timeout     time.Duration

	mu     sync.Mutex
	active bool
	name   string
}

// NewRunner returns a runner that executes composeCommand (for example
// "docker-compose" or "docker compose") in workDir.
func NewRunner(workDir, composeCommand string, log *logging.Logger) *Runner {
	args := strings.Fields(composeCommand)
	if len(args) == 0 {
		args = []string{"docker-compose"}
	}
	return &Runner{
		log:         log,
		workDir:     workDir,
		composeArgs: args,
		timeout:     constants.ComposeCommandTimeout,
	}
}

// ComposePath returns where the active scenario's compose file is written.
func (r *Runner) ComposePath() string {
	return filepath.Join(r.workDir, constants.ComposeFileName)
}

// Active reports whether a scenario is currently running.
func (r *Runner) Active() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// Name returns the running scenario's name, or "" when idle.
func (r *Runner) Name() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.name
}

// Start validates the compose content, writes it to disk, and brings the
// scenario up detached. Nothing is written while another scenario is
// active. On compose failure the file is removed again.
func (r *Runner) Start(ctx context.Context, name, composeContent string) error {
	if err := ValidateCompose(composeContent); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active {
		return fmt.Errorf("%w: %s", ErrScenarioActive, r.name)
	}

	path := r.ComposePath()
	if err := os.WriteFile(path, []byte(composeContent), 0o644); err != nil {
		return fmt.Errorf("failed to write compose file: %w", err)
	}
	if err := r.compose(ctx, "up", "-d"); err != nil {
		if rmErr := os.Remove(path); rmErr != nil {
			r.log.Debug().Err(rmErr).Msg("Could not remove compose file after failed start")
		}
		return err
	}

	r.active = true
	r.name = name
	return nil
}

// Stop brings the active scenario down and removes its compose file. If
// the compose command fails the scenario stays marked active so the stop
// can be retried.
func (r *Runner) Stop(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.active {
		return ErrNoScenario
	}

	if err := r.compose(ctx, "down"); err != nil {
		return err
	}

	r.active = false
	r.name = ""
	if err := os.Remove(r.ComposePath()); err != nil && !os.IsNotExist(err) {
		r.log.Debug().Err(err).Msg("Could not remove compose file after stop")
	}
	return nil
}

func (r *Runner) compose(ctx context.Context, action ...string) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	args := append([]string{}, r.composeArgs[1:]...)
	args = append(args, "-f", r.ComposePath())
	args = append(args, action...)

	cmd := exec.CommandContext(ctx, r.composeArgs[0], args...)
	cmd.Dir = r.workDir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.log.Debug().Str("command", strings.Join(cmd.Args, " ")).Msg("Running compose command")
	if err := cmd.Run(); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return fmt.Errorf("compose command not found: %w", err)
		}
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = strings.TrimSpace(stdout.String())
		}
		if len(detail) > maxCommandOutput {
			detail = detail[:maxCommandOutput]
		}
		if detail != "" {
			return fmt.Errorf("compose %s failed: %s", strings.Join(action, " "), detail)
		}
		return fmt.Errorf("compose %s failed: %w", strings.Join(action, " "), err)
	}
	return nil
}
