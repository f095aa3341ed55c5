//go:build windows

package launch

import (
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"syscall"
)

// detachAttr starts the child in a new process group with no console window
// of its own; the visible window comes from the start wrapper.
func detachAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{
		CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP,
		HideWindow:    true,
	}
}

// processAlive asks tasklist about the pid; there is no signal 0 here.
func processAlive(pid int) bool {
	if pid <= 0 {
		return false
	}

	out, err := exec.Command("tasklist",
		"/FI", fmt.Sprintf("PID eq %d", pid),
		"/FO", "CSV",
		"/NH",
	).Output()
	if err != nil {
		return false
	}

	line := strings.TrimSpace(string(out))
	if line == "" {
		return false
	}
	return !strings.Contains(strings.ToLower(line), "no tasks are running")
}

// signalTerm kills the process tree. Windows offers no polite signal a
// console-less parent can deliver, so both escalation steps are taskkill.
func signalTerm(pid int) error {
	return taskkill(pid)
}

func signalKill(pid int) error {
	return taskkill(pid)
}

func taskkill(pid int) error {
	return exec.Command("taskkill", "/PID", strconv.Itoa(pid), "/T", "/F").Run()
}
