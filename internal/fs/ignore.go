package fs

import (
	"path/filepath"
	"strings"
)

// ignorePattern is one configured pattern and how it is matched.
type ignorePattern struct {
	glob     string
	wantPath bool // match the whole relative path instead of the basename
}

// IgnoreMatcher decides which entries of a copied directory tree are skipped.
// A pattern containing '/' is matched against the path relative to the tree
// root; any other pattern against the entry's basename, at any depth.
type IgnoreMatcher struct {
	patterns []ignorePattern
}

// NewIgnoreMatcher parses raw patterns, dropping blanks and '#' comments.
func NewIgnoreMatcher(rawPatterns []string) *IgnoreMatcher {
	m := &IgnoreMatcher{}
	for _, raw := range rawPatterns {
		raw = strings.TrimSpace(raw)
		if raw == "" || strings.HasPrefix(raw, "#") {
			continue
		}
		m.patterns = append(m.patterns, ignorePattern{
			glob:     raw,
			wantPath: strings.Contains(raw, "/"),
		})
	}
	return m
}

// Match reports whether relativePath should be skipped.
// Malformed patterns never match.
func (m *IgnoreMatcher) Match(relativePath string) bool {
	if m == nil || len(m.patterns) == 0 || relativePath == "" {
		return false
	}

	slashed := filepath.ToSlash(relativePath)
	base := filepath.Base(relativePath)
	for _, p := range m.patterns {
		subject := base
		if p.wantPath {
			subject = slashed
		}
		if ok, err := filepath.Match(p.glob, subject); err == nil && ok {
			return true
		}
	}
	return false
}
