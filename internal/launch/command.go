package launch

import (
	"errors"
	"path/filepath"
	"strings"
)

// shellQuote wraps s for a POSIX shell. Single quotes pass everything
// literally; an embedded single quote closes, escapes, and reopens.
func shellQuote(s string) string {
	if s == "" {
		return "''"
	}
	if !strings.ContainsAny(s, " \t\n'\"\\$&|;<>(){}[]*?~#") {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func shellJoin(argv []string) string {
	quoted := make([]string, len(argv))
	for i, a := range argv {
		quoted[i] = shellQuote(a)
	}
	return strings.Join(quoted, " ")
}

// escapeAppleScript makes s safe inside an AppleScript double-quoted string.
// Backslashes must double before quotes are escaped: the reverse order turns
// an escaped quote back into a bare one and breaks out of the string literal.
func escapeAppleScript(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return s
}

// darwinTerminalArgv opens a Terminal.app window running the spec's command.
// The command crosses two quoting layers: the shell line inside "do script",
// then the AppleScript string literal around it.
func darwinTerminalArgv(spec Spec) []string {
	line := shellJoin(append([]string{spec.Program}, spec.Args...))

	script := "tell application \"Terminal\"\n" +
		"  activate\n" +
		"  do script \"" + escapeAppleScript(line) + "\"\n"
	if spec.Title != "" {
		script += "  set custom title of front window to \"" + escapeAppleScript(spec.Title) + "\"\n"
	}
	script += "end tell"

	return []string{"osascript", "-e", script}
}

// linuxTerminalArgv picks a terminal emulator and wraps the spec's command
// in it. getenv and have are injected so the chain is testable; have reports
// whether a program resolves on PATH.
//
// PARLEY_TERMINAL forces an emulator, or "none" to skip the window and spawn
// directly. TERMINAL is the conventional fallback.
func linuxTerminalArgv(spec Spec, getenv func(string) string, have func(string) bool) ([]string, error) {
	argv := append([]string{spec.Program}, spec.Args...)

	if term := getenv("PARLEY_TERMINAL"); term != "" {
		if term == "none" {
			return argv, nil
		}
		return emulatorArgv(term, spec, argv), nil
	}
	if term := getenv("TERMINAL"); term != "" {
		return emulatorArgv(term, spec, argv), nil
	}

	for _, name := range []string{
		"x-terminal-emulator",
		"gnome-terminal",
		"konsole",
		"xfce4-terminal",
		"alacritty",
		"kitty",
		"xterm",
	} {
		if have(name) {
			return emulatorArgv(name, spec, argv), nil
		}
	}

	return nil, errors.New("no terminal emulator found; set PARLEY_TERMINAL")
}

// emulatorArgv wraps argv in the emulator's own command convention.
func emulatorArgv(emulator string, spec Spec, argv []string) []string {
	switch filepath.Base(emulator) {
	case "gnome-terminal":
		out := []string{emulator}
		if spec.Title != "" {
			out = append(out, "--title", spec.Title)
		}
		return append(append(out, "--"), argv...)
	case "xfce4-terminal":
		out := []string{emulator}
		if spec.Title != "" {
			out = append(out, "--title", spec.Title)
		}
		return append(append(out, "-x"), argv...)
	case "kitty":
		out := []string{emulator}
		if spec.Title != "" {
			out = append(out, "--title", spec.Title)
		}
		return append(out, argv...)
	case "alacritty":
		out := []string{emulator}
		if spec.Title != "" {
			out = append(out, "--title", spec.Title)
		}
		return append(append(out, "-e"), argv...)
	case "xterm":
		out := []string{emulator}
		if spec.Title != "" {
			out = append(out, "-T", spec.Title)
		}
		return append(append(out, "-e"), argv...)
	default:
		// x-terminal-emulator, konsole, and most others accept -e.
		return append(append([]string{emulator}, "-e"), argv...)
	}
}

// windowsTerminalArgv wraps the spec's command in "cmd /c start". The title
// argument is mandatory even when empty: start reads the first quoted
// argument as the window title, so without the placeholder a quoted program
// path would be swallowed as the title.
func windowsTerminalArgv(spec Spec) []string {
	return append([]string{"cmd", "/c", "start", spec.Title, spec.Program}, spec.Args...)
}
