package bk

// FilesystemManager abstracts the copy primitive used for staging and restore.
type FilesystemManager interface {
	// Copy copies src, a file or a directory tree, to dst. Symlinks at src
	// are followed. Existing directories at dst are merged into and existing
	// files are overwritten; if dst exists with a different type it is
	// replaced.
	Copy(src, dst string) error
}
