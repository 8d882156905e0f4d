//go:build !windows

package pidfile

import (
	"os"
	"syscall"
)

// processAlive checks whether a process with the given PID exists. On
// Unix FindProcess always succeeds, so signal 0 probes for existence.
func processAlive(pid int) bool {
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return process.Signal(syscall.Signal(0)) == nil
}

// stopProcess asks the daemon to shut down cleanly.
func stopProcess(pid int) error {
	process, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	return process.Signal(syscall.SIGTERM)
}
