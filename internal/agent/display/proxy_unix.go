//go:build !windows

package display

import (
	"os"
	"syscall"
)

// terminate asks the proxy process to exit cleanly.
func terminate(p *os.Process) error {
	return p.Signal(syscall.SIGTERM)
}
