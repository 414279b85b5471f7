// Package fs provides the real-filesystem copy primitive used by staging and
// restore.
package fs

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/otiai10/copy"

	"cfgbk-go/internal/bk"
)

// OSFilesystemManager is the real filesystem implementation of bk.FilesystemManager.
type OSFilesystemManager struct {
	ignore *IgnoreMatcher
}

// NewOSFilesystemManager creates a filesystem manager. Entries inside copied
// directory trees that match ignorePatterns are skipped.
func NewOSFilesystemManager(ignorePatterns []string) *OSFilesystemManager {
	return &OSFilesystemManager{ignore: NewIgnoreMatcher(ignorePatterns)}
}

// Copy copies src to dst. A symlink at src is followed; symlinks inside a
// copied tree are recreated as links. Directories merge into an existing
// directory at dst, files replace whatever is at dst.
func (m *OSFilesystemManager) Copy(src, dst string) error {
	root, err := filepath.EvalSymlinks(src)
	if err != nil {
		return fmt.Errorf("resolving source: %w", err)
	}
	srcInfo, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}

	if dstInfo, err := os.Lstat(dst); err == nil {
		if !srcInfo.IsDir() || !dstInfo.IsDir() {
			if err := os.RemoveAll(dst); err != nil {
				return fmt.Errorf("removing existing destination: %w", err)
			}
		}
	}

	opts := copy.Options{
		OnSymlink: func(string) copy.SymlinkAction {
			return copy.Shallow
		},
		OnDirExists: func(string, string) copy.DirExistsAction {
			return copy.Merge
		},
		Skip: func(_ os.FileInfo, p, _ string) (bool, error) {
			rel, err := filepath.Rel(root, p)
			if err != nil || rel == "." {
				return false, err
			}
			return m.ignore.Match(rel), nil
		},
		PreserveTimes: true,
	}
	if err := copy.Copy(root, dst, opts); err != nil {
		return err
	}
	return nil
}

// Compile-time check that OSFilesystemManager implements bk.FilesystemManager interface
var _ bk.FilesystemManager = (*OSFilesystemManager)(nil)
