package bk

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// PathRef couples a user-supplied path with its resolved form.
// The resolved path is computed once by ResolvePath; the raw string is kept
// verbatim for display and for writing back into task documents.
type PathRef struct {
	raw      string
	resolved string
}

// ResolvePath builds a PathRef from a raw path string.
// A leading "~/" is expanded to the current user's home directory; any other
// form, relative or absolute, is kept unchanged.
func ResolvePath(raw string) (PathRef, error) {
	if !strings.HasPrefix(raw, "~/") {
		return PathRef{raw: raw, resolved: raw}, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return PathRef{}, &ConfigError{Path: raw, Err: fmt.Errorf("cannot determine home directory: %w", err)}
	}
	return PathRef{raw: raw, resolved: filepath.Join(home, raw[2:])}, nil
}

// String returns the path as the user wrote it.
func (p PathRef) String() string {
	return p.raw
}

// Resolved returns the expanded filesystem path.
func (p PathRef) Resolved() string {
	return p.resolved
}

// Base returns the final component of the resolved path. This is the name
// the path is stored under inside a task's archive directory.
func (p PathRef) Base() string {
	return filepath.Base(p.resolved)
}

// Exists reports whether the resolved path currently exists.
// Symlinks are followed.
func (p PathRef) Exists() bool {
	_, err := os.Stat(p.resolved)
	return err == nil
}
