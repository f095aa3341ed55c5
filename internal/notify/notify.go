// Package notify sends best-effort desktop notifications. A toast is a
// courtesy, never a dependency: every failure is logged and swallowed so a
// broken notifier can't fail the operation that triggered it.
package notify

import (
	"os/exec"
	"runtime"
	"strings"
)

// Send shows a desktop notification with the platform's native notifier.
func Send(title, message string, logf func(format string, args ...interface{})) {
	if logf == nil {
		logf = func(string, ...interface{}) {}
	}

	argv := notifyArgv(runtime.GOOS, title, message)
	if argv == nil {
		logf("desktop notifications not supported on %s", runtime.GOOS)
		return
	}

	if err := exec.Command(argv[0], argv[1:]...).Run(); err != nil {
		logf("sending notification: %v", err)
	}
}

// notifyArgv builds the notifier command line for an OS. Returns nil when
// the OS has no supported notifier.
func notifyArgv(goos, title, message string) []string {
	switch goos {
	case "darwin":
		script := "display notification \"" + escapeAppleScript(message) +
			"\" with title \"" + escapeAppleScript(title) + "\""
		return []string{"osascript", "-e", script}
	case "linux":
		return []string{"notify-send", title, message}
	case "windows":
		return []string{"powershell", "-NoProfile", "-Command", powershellToast(title, message)}
	default:
		return nil
	}
}

// escapeAppleScript makes s safe inside an AppleScript double-quoted string.
// Backslashes double before quotes are escaped.
func escapeAppleScript(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return s
}

// powershellToast builds a WinRT toast one-liner. Single-quoted PowerShell
// strings escape quotes by doubling, so the text can't break out of the
// script.
func powershellToast(title, message string) string {
	return "$t = [Windows.UI.Notifications.ToastNotificationManager, Windows.UI.Notifications, ContentType = WindowsRuntime]::GetTemplateContent([Windows.UI.Notifications.ToastTemplateType]::ToastText02); " +
		"$x = $t.GetElementsByTagName('text'); " +
		"$x.Item(0).AppendChild($t.CreateTextNode('" + escapePowerShell(title) + "')) | Out-Null; " +
		"$x.Item(1).AppendChild($t.CreateTextNode('" + escapePowerShell(message) + "')) | Out-Null; " +
		"[Windows.UI.Notifications.ToastNotificationManager]::CreateToastNotifier('Parley').Show([Windows.UI.Notifications.ToastNotification]::new($t))"
}

func escapePowerShell(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
