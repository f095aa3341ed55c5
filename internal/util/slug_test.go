package util

import "testing"

func TestSlug(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"Project Setup", 20, "project-setup"},
		{"  weird -- punctuation!! ", 40, "weird-punctuation"},
		{"ALLCAPS", 10, "allcaps"},
		{"démo déploiement", 20, "d-mo-d-ploiement"},
		{"short limit here", 5, "short"},
		{"", 10, ""},
		{"----", 10, ""},
		{"a", 0, ""},
	}
	for _, tt := range tests {
		if got := Slug(tt.in, tt.max); got != tt.want {
			t.Errorf("Slug(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}
