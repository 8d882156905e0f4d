//go:build windows

package display

import "os"

// terminate stops the proxy process. Windows has no SIGTERM equivalent
// for console children, so the process is killed outright.
func terminate(p *os.Process) error {
	return p.Kill()
}
