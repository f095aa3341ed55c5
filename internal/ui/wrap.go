package ui

import "strings"

// WrapText wraps text to the given width at word boundaries. Words longer
// than the width are split hard so one token can never push a line past the
// limit. Existing newlines are kept.
func WrapText(text string, width int) string {
	if width <= 0 {
		return text
	}

	var out []string
	for _, line := range strings.Split(text, "\n") {
		out = append(out, wrapLine(line, width)...)
	}
	return strings.Join(out, "\n")
}

func wrapLine(line string, width int) []string {
	if len(line) <= width {
		return []string{line}
	}

	var wrapped []string
	var cur strings.Builder
	for _, word := range strings.Fields(line) {
		// Hard-split oversized words
		for len(word) > width {
			if cur.Len() > 0 {
				wrapped = append(wrapped, cur.String())
				cur.Reset()
			}
			wrapped = append(wrapped, word[:width])
			word = word[width:]
		}

		switch {
		case cur.Len() == 0:
			cur.WriteString(word)
		case cur.Len()+1+len(word) <= width:
			cur.WriteByte(' ')
			cur.WriteString(word)
		default:
			wrapped = append(wrapped, cur.String())
			cur.Reset()
			cur.WriteString(word)
		}
	}
	if cur.Len() > 0 {
		wrapped = append(wrapped, cur.String())
	}
	if len(wrapped) == 0 {
		return []string{""}
	}
	return wrapped
}
