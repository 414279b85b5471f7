package bk

import (
	"errors"
	"fmt"
)

// ErrCancelled is returned when the operator declines the restore prompt.
// It is a normal outcome: nothing on disk has been changed.
var ErrCancelled = errors.New("cancelled by operator")

// ConfigError reports an unreadable or malformed task document, an invalid
// task definition, or a home directory that could not be determined.
type ConfigError struct {
	Path string // document or raw path involved; may be empty
	Err  error
}

func (e *ConfigError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("config error: %v", e.Err)
	}
	return fmt.Sprintf("config error: %s: %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// CopyError reports a source path that exists but could not be copied.
type CopyError struct {
	Path string
	Err  error
}

func (e *CopyError) Error() string {
	return fmt.Sprintf("copying %s: %v", e.Path, e.Err)
}

func (e *CopyError) Unwrap() error { return e.Err }

// ArchiveError reports a pack or unpack failure.
type ArchiveError struct {
	Op   string // "pack" or "unpack"
	Path string
	Err  error
}

func (e *ArchiveError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *ArchiveError) Unwrap() error { return e.Err }
