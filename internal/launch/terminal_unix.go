//go:build !windows && !darwin

package launch

import (
	"os"
	"os/exec"
)

func terminalArgv(spec Spec) ([]string, error) {
	return linuxTerminalArgv(spec, os.Getenv, func(name string) bool {
		_, err := exec.LookPath(name)
		return err == nil
	})
}
