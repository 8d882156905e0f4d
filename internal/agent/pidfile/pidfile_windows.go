//go:build windows

package pidfile

import (
	"os"

	"golang.org/x/sys/windows"
)

// processAlive checks whether a process with the given PID exists.
func processAlive(pid int) bool {
	handle, err := windows.OpenProcess(windows.PROCESS_QUERY_LIMITED_INFORMATION, false, uint32(pid))
	if err != nil {
		return false
	}
	windows.CloseHandle(handle)
	return true
}

// stopProcess stops the daemon. Windows has no SIGTERM for detached
// processes, so it is killed outright.
func stopProcess(pid int) error {
	process, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	return process.Kill()
}
