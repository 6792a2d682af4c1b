package version

import (
	"strings"
	"testing"
)

func TestIsDevelopmentVersion(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{"", true},
		{"unknown", true},
		{"dev", true},
		{"devel", true},
		{"devel+abc123", true},
		{"devel+git.sha.abc123def", true},

		{"v0.1.0", false},
		{"0.1.0", false},
		{"v1.0.0-alpha", false},
		{"1.0.0-rc.1", false},

		// Partial matches should not trigger dev
		{"develop", false},
		{"development", false},
		{"my-devel", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := IsDevelopmentVersion(tt.input)
			if got != tt.expected {
				t.Errorf("IsDevelopmentVersion(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestString(t *testing.T) {
	orig, origCommit, origDate := Version, Commit, Date
	t.Cleanup(func() { Version, Commit, Date = orig, origCommit, origDate })

	Version = "v1.2.0"
	Commit = "0123456789abcdef"
	Date = "2026-08-25"

	s := String()
	if !strings.Contains(s, "tasksync v1.2.0") {
		t.Errorf("missing version in %q", s)
	}
	if !strings.Contains(s, "01234567") || strings.Contains(s, "0123456789abcdef") {
		t.Errorf("commit not shortened in %q", s)
	}
	if !strings.Contains(s, "2026-08-25") {
		t.Errorf("missing date in %q", s)
	}
}
