package bk

import (
	"database/sql"
	"time"
)

// Archive kinds recorded in the catalog.
const (
	ArchiveKindBackup = "backup"
	ArchiveKindSafety = "restore_bk"
)

// ArchiveRecord describes one produced archive bundle.
type ArchiveRecord struct {
	ID        string
	Kind      string
	Path      string
	TaskCount int
	CreatedAt time.Time
}

// OperationRecord describes one mutating CLI invocation.
type OperationRecord struct {
	ID         int64
	Operation  string
	Parameters string
	Status     string
	StartedAt  time.Time
	FinishedAt sql.NullTime
}

// Catalog records the archives produced by the service.
type Catalog interface {
	// RecordArchive stores a new archive record.
	RecordArchive(rec *ArchiveRecord) error

	// FindArchiveByPath returns the most recent record for an archive path,
	// or nil if the archive is unknown.
	FindArchiveByPath(path string) (*ArchiveRecord, error)

	// ListArchives returns up to limit records, newest first.
	ListArchives(limit int) ([]*ArchiveRecord, error)
}

// Database is the metadata store: the archive catalog plus the history of
// mutating operations.
type Database interface {
	Catalog

	// CreateOperation inserts a running operation and returns it with its ID.
	CreateOperation(operation, parameters string, startedAt time.Time) (*OperationRecord, error)

	// FinishOperation marks an operation finished with the given status.
	FinishOperation(id int64, status string, finishedAt time.Time) error

	// ListOperations returns up to limit operations, newest first.
	ListOperations(limit int) ([]*OperationRecord, error)

	// Close closes the database connection.
	Close() error
}
