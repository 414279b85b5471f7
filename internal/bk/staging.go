package bk

import "sync"

// StagingArea allocates temporary working directories.
type StagingArea interface {
	// Create makes a new, uniquely named directory under base, creating base
	// if needed. The caller owns the returned directory and must Dispose it.
	Create(base string) (*StagingDir, error)
}

// StagingDir is a handle to a temporary working directory.
// Callers defer Dispose right after Create so the tree is removed on every
// exit path.
type StagingDir struct {
	path   string
	remove func(string) error
	once   sync.Once
	err    error
}

// NewStagingDir wraps an existing directory. remove is called once, on the
// first Dispose.
func NewStagingDir(path string, remove func(string) error) *StagingDir {
	return &StagingDir{path: path, remove: remove}
}

// Path returns the directory's location.
func (d *StagingDir) Path() string {
	return d.path
}

// Dispose removes the directory and everything in it. Later calls return the
// result of the first.
func (d *StagingDir) Dispose() error {
	d.once.Do(func() {
		d.err = d.remove(d.path)
	})
	return d.err
}
