//go:build !windows

package agent

import (
	"os/exec"
	"syscall"
)

// applyDaemonAttr detaches the child into its own session so it
// survives the parent's terminal going away.
func applyDaemonAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setsid: true,
	}
}
