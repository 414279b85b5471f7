package fs

import (
	"path/filepath"
	"testing"
)

func TestNewIgnoreMatcher(t *testing.T) {
	t.Run("drops blanks and comments", func(t *testing.T) {
		t.Parallel()
		m := NewIgnoreMatcher([]string{"", "   ", "# editor junk", "*.swp"})
		if len(m.patterns) != 1 {
			t.Fatalf("expected 1 pattern, got %d", len(m.patterns))
		}
		if m.patterns[0].glob != "*.swp" {
			t.Errorf("glob = %q, want %q", m.patterns[0].glob, "*.swp")
		}
	})

	t.Run("patterns with a slash match paths", func(t *testing.T) {
		t.Parallel()
		m := NewIgnoreMatcher([]string{".git", "nvim/plugin/*"})
		if m.patterns[0].wantPath {
			t.Error(".git should match basenames")
		}
		if !m.patterns[1].wantPath {
			t.Error("nvim/plugin/* should match relative paths")
		}
	})
}

func TestIgnoreMatcher_Match(t *testing.T) {
	tests := []struct {
		name     string
		patterns []string
		rel      string
		want     bool
	}{
		{"basename at root", []string{".git"}, ".git", true},
		{"basename nested", []string{".git"}, filepath.Join("plugins", "fzf", ".git"), true},
		{"extension glob", []string{"*.swp"}, filepath.Join("nvim", ".init.lua.swp"), true},
		{"extension glob misses", []string{"*.swp"}, "init.lua", false},
		{"path pattern hit", []string{"nvim/plugin/*"}, filepath.Join("nvim", "plugin", "packer.lua"), true},
		{"path pattern wrong parent", []string{"nvim/plugin/*"}, filepath.Join("vim", "plugin", "packer.lua"), false},
		{"character class", []string{"*.[ch]"}, "main.c", true},
		{"malformed pattern never matches", []string{"[abc"}, "a", false},
		{"no patterns", nil, "anything", false},
		{"empty path", []string{"*"}, "", false},
		{"second pattern matches", []string{"*.log", "cache"}, filepath.Join("app", "cache"), true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := NewIgnoreMatcher(tt.patterns).Match(tt.rel)
			if got != tt.want {
				t.Errorf("Match(%q) = %v, want %v", tt.rel, got, tt.want)
			}
		})
	}
}

func TestIgnoreMatcher_NilMatchesNothing(t *testing.T) {
	var m *IgnoreMatcher
	if m.Match("x") {
		t.Error("nil matcher matched")
	}
}
