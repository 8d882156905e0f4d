// Package pidfile tracks the agent daemon's PID on disk so the CLI and
// tray can find, probe, and stop it.
package pidfile

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/lise-project/lise-desktop/internal/config"
)

// Path returns the agent PID file location under the config directory.
func Path() string {
	configDir, err := config.ConfigDirectory()
	if err != nil {
		return filepath.Join(os.TempDir(), "lise-agent.pid")
	}
	return filepath.Join(configDir, "lise-agent.pid")
}

// Write records the current process's PID.
func Write() error {
	return WriteAt(Path())
}

// WriteAt records the current process's PID at an explicit path.
func WriteAt(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create PID file directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0600); err != nil {
		return fmt.Errorf("failed to write PID file: %w", err)
	}
	return nil
}

// Remove deletes the PID file.
func Remove() {
	os.Remove(Path())
}

// Read returns the recorded PID, or 0 if the file is missing or invalid.
func Read() int {
	return ReadAt(Path())
}

// ReadAt returns the PID recorded at an explicit path, or 0.
func ReadAt(path string) int {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0
	}
	pid, err := strconv.Atoi(string(data))
	if err != nil {
		return 0
	}
	return pid
}

// Alive returns the daemon's PID when the recorded process still exists.
// A stale file (no such process) is removed on the way.
func Alive() (int, bool) {
	return aliveAt(Path())
}

func aliveAt(path string) (int, bool) {
	pid := ReadAt(path)
	if pid <= 0 {
		return 0, false
	}
	if !processAlive(pid) {
		os.Remove(path)
		return 0, false
	}
	return pid, true
}

// Stop signals the recorded daemon to shut down. It reports whether a
// running daemon was found at all.
func Stop() (int, bool, error) {
	pid, running := Alive()
	if !running {
		return 0, false, nil
	}
	if err := stopProcess(pid); err != nil {
		return pid, true, fmt.Errorf("failed to signal agent process %d: %w", pid, err)
	}
	return pid, true, nil
}
