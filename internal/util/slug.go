package util

import "strings"

// Slug turns free text into a short, filesystem-safe fragment: lowercase,
// runs of anything but letters and digits collapsed to single dashes, cut at
// max bytes. Empty input or input with nothing usable yields "".
func Slug(s string, max int) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			dash = false
			b.WriteRune(r)
		default:
			dash = true
		}
		if b.Len() >= max {
			break
		}
	}
	return strings.Trim(b.String()[:min(b.Len(), max)], "-")
}
