package style

import (
	"strings"
	"testing"
)

func TestPrefixesRendered(t *testing.T) {
	// Under go test there is no TTY, so the prefixes render without escape
	// codes and the raw icons come through.
	for name, prefix := range map[string]string{
		"success": SuccessPrefix,
		"warning": WarningPrefix,
		"error":   ErrorPrefix,
	} {
		if prefix == "" {
			t.Errorf("%s prefix is empty", name)
		}
	}
	if !strings.Contains(SuccessPrefix, "✓") {
		t.Errorf("SuccessPrefix = %q, want it to carry the check icon", SuccessPrefix)
	}
}

func TestStylesRenderContent(t *testing.T) {
	if got := Bold.Render("parley"); !strings.Contains(got, "parley") {
		t.Errorf("Bold.Render lost its content: %q", got)
	}
	if got := Dim.Render("hint"); !strings.Contains(got, "hint") {
		t.Errorf("Dim.Render lost its content: %q", got)
	}
}
