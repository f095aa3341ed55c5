//go:build darwin

package launch

func terminalArgv(spec Spec) ([]string, error) {
	return darwinTerminalArgv(spec), nil
}
