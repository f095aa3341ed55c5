//go:build windows

package launch

func terminalArgv(spec Spec) ([]string, error) {
	return windowsTerminalArgv(spec), nil
}
