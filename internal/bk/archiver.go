package bk

import "context"

// ArchiveExt is the file extension of every archive bundle.
const ArchiveExt = ".tar.gz"

// Archiver packs directory trees into gzip-compressed tar bundles and back.
type Archiver interface {
	// Pack writes the contents of sourceDir (not sourceDir itself) to
	// destDir/name.tar.gz, creating destDir if needed, and returns the
	// archive path. Failures are *ArchiveError.
	Pack(ctx context.Context, sourceDir, destDir, name string) (string, error)

	// Unpack extracts archivePath into destDir, which must already exist.
	// Failures are *ArchiveError.
	Unpack(ctx context.Context, archivePath, destDir string) error
}
