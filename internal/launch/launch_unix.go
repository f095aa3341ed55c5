//go:build !windows

package launch

import (
	"os"
	"syscall"
)

// detachAttr puts the child in its own process group so it survives the
// parent and can be signaled as a unit.
func detachAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{
		Setpgid: true,
	}
}

// processAlive checks the pid with signal 0.
func processAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return proc.Signal(syscall.Signal(0)) == nil
}

// signalTerm asks the child's process group to exit, falling back to the
// lone pid when the group is already gone. Setpgid makes the child's pgid
// equal its pid, so the negative pid addresses the whole group.
func signalTerm(pid int) error {
	if err := syscall.Kill(-pid, syscall.SIGTERM); err == nil {
		return nil
	}
	return syscall.Kill(pid, syscall.SIGTERM)
}

func signalKill(pid int) error {
	if err := syscall.Kill(-pid, syscall.SIGKILL); err == nil {
		return nil
	}
	return syscall.Kill(pid, syscall.SIGKILL)
}
