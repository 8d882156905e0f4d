// Package display manages the websockify proxy that bridges a scenario's
// VNC port to the browser-facing noVNC client.
package display

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/lise-project/lise-desktop/internal/config"
	"github.com/lise-project/lise-desktop/internal/constants"
	"github.com/lise-project/lise-desktop/internal/logging"
)

// stopGrace is how long Stop waits for a clean exit before killing.
const stopGrace = 5 * time.Second

// Proxy supervises a single websockify process. A proxy failure is never
// fatal to the scenario that requested it; callers log and move on.
type Proxy struct {
	log         *logging.Logger
	websockify  string
	novncDir    string
	listenPort  int
	startupWait time.Duration

	mu   sync.Mutex
	cmd  *exec.Cmd
	done chan error

	stderrMu   sync.Mutex
	lastStderr string
}

// New returns a proxy configured from the display section.
func New(cfg *config.DisplayConfig, log *logging.Logger) *Proxy {
	return &Proxy{
		log:         log,
		websockify:  cfg.WebsockifyPath,
		novncDir:    cfg.NoVNCDir,
		listenPort:  cfg.ListenPort,
		startupWait: constants.DisplayProxyStartupWait,
	}
}

// Port returns the browser-facing listen port.
func (p *Proxy) Port() int {
	return p.listenPort
}

// Start spawns websockify pointed at the scenario's VNC port, waits out
// the startup window, and polls once to confirm the process survived it.
func (p *Proxy) Start(vncPort int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cmd != nil {
		return errors.New("display proxy already running")
	}

	web, err := p.webDir()
	if err != nil {
		return err
	}
	target := net.JoinHostPort("localhost", strconv.Itoa(vncPort))
	cmd := exec.Command(p.websockify, "--web", web, strconv.Itoa(p.listenPort), target)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to capture display proxy output: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("failed to capture display proxy output: %w", err)
	}

	p.stderrMu.Lock()
	p.lastStderr = ""
	p.stderrMu.Unlock()

	if err := cmd.Start(); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return fmt.Errorf("websockify not found: %w", err)
		}
		return fmt.Errorf("failed to start display proxy: %w", err)
	}
	p.log.Info().
		Int("pid", cmd.Process.Pid).
		Int("listen_port", p.listenPort).
		Str("target", target).
		Msg("Started display proxy")

	var wg sync.WaitGroup
	wg.Add(2)
	go p.relay("stdout", stdout, &wg)
	go p.relay("stderr", stderr, &wg)

	done := make(chan error, 1)
	go func() {
		wg.Wait()
		done <- cmd.Wait()
	}()

	time.Sleep(p.startupWait)

	select {
	case err := <-done:
		return p.startFailure(err)
	default:
	}

	p.cmd = cmd
	p.done = done
	return nil
}

// Stop terminates the proxy and waits for it to exit. It is a no-op when
// no proxy is running.
func (p *Proxy) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cmd == nil {
		return
	}

	if err := terminate(p.cmd.Process); err != nil {
		p.log.Debug().Err(err).Msg("Could not signal display proxy")
	}
	select {
	case <-p.done:
	case <-time.After(stopGrace):
		p.log.Warn().Msg("Display proxy did not exit, killing it")
		if err := p.cmd.Process.Kill(); err != nil {
			p.log.Debug().Err(err).Msg("Could not kill display proxy")
		}
		<-p.done
	}
	p.log.Info().Msg("Stopped display proxy")
	p.cmd = nil
	p.done = nil
}

// Running reports whether the proxy process is still alive. A proxy that
// died on its own is reaped here.
func (p *Proxy) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cmd == nil {
		return false
	}
	select {
	case <-p.done:
		p.log.Warn().Msg("Display proxy exited unexpectedly")
		p.cmd = nil
		p.done = nil
		return false
	default:
		return true
	}
}

func (p *Proxy) webDir() (string, error) {
	if p.novncDir != "" {
		return p.novncDir, nil
	}
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to locate novnc directory: %w", err)
	}
	return filepath.Join(filepath.Dir(exe), "novnc"), nil
}

func (p *Proxy) startFailure(waitErr error) error {
	status := "0"
	var exitErr *exec.ExitError
	switch {
	case errors.As(waitErr, &exitErr):
		status = strconv.Itoa(exitErr.ExitCode())
	case waitErr != nil:
		return fmt.Errorf("failed to check display proxy status: %w", waitErr)
	}
	if last := p.lastStderrLine(); last != "" {
		return fmt.Errorf("display proxy exited early with status %s: %s", status, last)
	}
	return fmt.Errorf("display proxy exited early with status %s", status)
}

func (p *Proxy) lastStderrLine() string {
	p.stderrMu.Lock()
	defer p.stderrMu.Unlock()
	return p.lastStderr
}

func (p *Proxy) relay(stream string, r io.Reader, wg *sync.WaitGroup) {
	defer wg.Done()
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if stream == "stderr" {
			p.stderrMu.Lock()
			p.lastStderr = line
			p.stderrMu.Unlock()
		}
		p.log.Debug().Str("stream", stream).Msg(line)
	}
}
