package launch

import (
	"reflect"
	"strings"
	"testing"
)

func TestShellQuote(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"/usr/local/bin/parley", "/usr/local/bin/parley"},
		{"", "''"},
		{"has space", "'has space'"},
		{"don't", `'don'\''t'`},
		{`a"b`, `'a"b'`},
		{"a$b", "'a$b'"},
		{"semi;colon", "'semi;colon'"},
	}

	for _, tt := range tests {
		if got := shellQuote(tt.in); got != tt.want {
			t.Errorf("shellQuote(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestShellJoin(t *testing.T) {
	got := shellJoin([]string{"parley", "prompt", "--workspace", "/tmp/parley q1"})
	want := "parley prompt --workspace '/tmp/parley q1'"
	if got != want {
		t.Errorf("shellJoin = %q, want %q", got, want)
	}
}

// Backslashes must be doubled before quotes are escaped. Escaping quotes
// first turns `\"` into `\\"`, which AppleScript reads as a literal
// backslash followed by the end of the string.
func TestEscapeAppleScriptOrder(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`plain`, `plain`},
		{`say "hi"`, `say \"hi\"`},
		{`back\slash`, `back\\slash`},
		{`mix\"`, `mix\\\"`},
	}

	for _, tt := range tests {
		if got := escapeAppleScript(tt.in); got != tt.want {
			t.Errorf("escapeAppleScript(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDarwinTerminalArgv(t *testing.T) {
	argv := darwinTerminalArgv(Spec{
		Program: "/usr/local/bin/parley",
		Args:    []string{"prompt", "--workspace", "/tmp/parley q1"},
		Title:   "Parley",
	})

	if len(argv) != 3 || argv[0] != "osascript" || argv[1] != "-e" {
		t.Fatalf("argv = %v, want osascript -e <script>", argv)
	}

	script := argv[2]
	if !strings.Contains(script, `do script "/usr/local/bin/parley prompt --workspace '/tmp/parley q1'"`) {
		t.Errorf("script missing quoted command line:\n%s", script)
	}
	if !strings.Contains(script, `set custom title of front window to "Parley"`) {
		t.Errorf("script missing window title:\n%s", script)
	}
}

func TestLinuxTerminalArgvEnvOverride(t *testing.T) {
	spec := Spec{Program: "/bin/parley", Args: []string{"prompt", "--workspace", "/tmp/w"}}

	env := map[string]string{"PARLEY_TERMINAL": "footerm"}
	getenv := func(k string) string { return env[k] }
	have := func(string) bool { return false }

	argv, err := linuxTerminalArgv(spec, getenv, have)
	if err != nil {
		t.Fatalf("linuxTerminalArgv failed: %v", err)
	}
	want := []string{"footerm", "-e", "/bin/parley", "prompt", "--workspace", "/tmp/w"}
	if !reflect.DeepEqual(argv, want) {
		t.Errorf("argv = %v, want %v", argv, want)
	}
}

func TestLinuxTerminalArgvNoneSpawnsDirect(t *testing.T) {
	spec := Spec{Program: "/bin/parley", Args: []string{"prompt"}}

	argv, err := linuxTerminalArgv(spec,
		func(k string) string {
			if k == "PARLEY_TERMINAL" {
				return "none"
			}
			return ""
		},
		func(string) bool { return true })
	if err != nil {
		t.Fatalf("linuxTerminalArgv failed: %v", err)
	}
	want := []string{"/bin/parley", "prompt"}
	if !reflect.DeepEqual(argv, want) {
		t.Errorf("argv = %v, want direct spawn %v", argv, want)
	}
}

func TestLinuxTerminalArgvChain(t *testing.T) {
	spec := Spec{Program: "/bin/parley"}
	noEnv := func(string) string { return "" }

	argv, err := linuxTerminalArgv(spec, noEnv, func(name string) bool {
		return name == "konsole"
	})
	if err != nil {
		t.Fatalf("linuxTerminalArgv failed: %v", err)
	}
	if argv[0] != "konsole" {
		t.Errorf("argv[0] = %q, want konsole", argv[0])
	}

	if _, err := linuxTerminalArgv(spec, noEnv, func(string) bool { return false }); err == nil {
		t.Error("expected an error with no emulator on PATH")
	}
}

func TestEmulatorConventions(t *testing.T) {
	spec := Spec{Program: "/bin/parley", Title: "Parley"}
	argv := []string{"/bin/parley", "chat", "--workspace", "/tmp/w"}

	tests := []struct {
		emulator string
		want     []string
	}{
		{"gnome-terminal", []string{"gnome-terminal", "--title", "Parley", "--", "/bin/parley", "chat", "--workspace", "/tmp/w"}},
		{"xfce4-terminal", []string{"xfce4-terminal", "--title", "Parley", "-x", "/bin/parley", "chat", "--workspace", "/tmp/w"}},
		{"kitty", []string{"kitty", "--title", "Parley", "/bin/parley", "chat", "--workspace", "/tmp/w"}},
		{"alacritty", []string{"alacritty", "--title", "Parley", "-e", "/bin/parley", "chat", "--workspace", "/tmp/w"}},
		{"xterm", []string{"xterm", "-T", "Parley", "-e", "/bin/parley", "chat", "--workspace", "/tmp/w"}},
		{"konsole", []string{"konsole", "-e", "/bin/parley", "chat", "--workspace", "/tmp/w"}},
		{"x-terminal-emulator", []string{"x-terminal-emulator", "-e", "/bin/parley", "chat", "--workspace", "/tmp/w"}},
	}

	for _, tt := range tests {
		got := emulatorArgv(tt.emulator, spec, argv)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("emulatorArgv(%s) = %v, want %v", tt.emulator, got, tt.want)
		}
	}
}

func TestWindowsTerminalArgv(t *testing.T) {
	argv := windowsTerminalArgv(Spec{
		Program: `C:\parley\parley.exe`,
		Args:    []string{"prompt", "--workspace", `C:\tmp\w`},
		Title:   "Parley",
	})
	want := []string{"cmd", "/c", "start", "Parley", `C:\parley\parley.exe`, "prompt", "--workspace", `C:\tmp\w`}
	if !reflect.DeepEqual(argv, want) {
		t.Errorf("argv = %v, want %v", argv, want)
	}

	// The title slot stays even when empty; start would otherwise read a
	// quoted program path as the title.
	argv = windowsTerminalArgv(Spec{Program: `C:\parley\parley.exe`})
	if argv[3] != "" {
		t.Errorf("argv[3] = %q, want empty title placeholder", argv[3])
	}
}
