package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"cfgbk-go/internal/bk"
	"cfgbk-go/internal/database/migrations"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteDatabase implements bk.Database using SQLite.
type SQLiteDatabase struct {
	db   *sql.DB
	path string
}

var _ bk.Database = (*SQLiteDatabase)(nil)

// NewSQLiteDatabase opens the database at path (or ":memory:") and brings its
// schema up to date.
func NewSQLiteDatabase(path string) (*SQLiteDatabase, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}

	if err := migrations.MigrateUp(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating database: %w", err)
	}
	if err := migrations.CheckDBMigrationStatus(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("database schema out of date: %w", err)
	}

	return &SQLiteDatabase{db: db, path: path}, nil
}

// OpenConnection opens and configures a SQLite database connection.
// path can be a file path or ":memory:" for an in-memory database.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Every pooled connection to ":memory:" would get its own empty database.
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	return db, nil
}

// Archive catalog

func (s *SQLiteDatabase) RecordArchive(rec *bk.ArchiveRecord) error {
	_, err := s.db.Exec(
		`INSERT INTO archives (id, kind, path, task_count, created_at) VALUES (?, ?, ?, ?, ?)`,
		rec.ID, rec.Kind, rec.Path, rec.TaskCount, rec.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("recording archive: %w", err)
	}
	return nil
}

func (s *SQLiteDatabase) FindArchiveByPath(path string) (*bk.ArchiveRecord, error) {
	row := s.db.QueryRow(
		`SELECT id, kind, path, task_count, created_at FROM archives
		 WHERE path = ? ORDER BY created_at DESC LIMIT 1`, path)

	rec, err := scanArchive(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("finding archive by path: %w", err)
	}
	return rec, nil
}

func (s *SQLiteDatabase) ListArchives(limit int) ([]*bk.ArchiveRecord, error) {
	rows, err := s.db.Query(
		`SELECT id, kind, path, task_count, created_at FROM archives
		 ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing archives: %w", err)
	}
	defer rows.Close()

	var result []*bk.ArchiveRecord
	for rows.Next() {
		rec, err := scanArchive(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning archive: %w", err)
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing archives: %w", err)
	}
	return result, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanArchive(row scanner) (*bk.ArchiveRecord, error) {
	var rec bk.ArchiveRecord
	if err := row.Scan(&rec.ID, &rec.Kind, &rec.Path, &rec.TaskCount, &rec.CreatedAt); err != nil {
		return nil, err
	}
	return &rec, nil
}

// Operation history

func (s *SQLiteDatabase) CreateOperation(operation, parameters string, startedAt time.Time) (*bk.OperationRecord, error) {
	res, err := s.db.Exec(
		`INSERT INTO operations (operation, parameters, status, started_at) VALUES (?, ?, 'running', ?)`,
		operation, parameters, startedAt.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("creating operation: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading operation id: %w", err)
	}
	return &bk.OperationRecord{
		ID:         id,
		Operation:  operation,
		Parameters: parameters,
		Status:     "running",
		StartedAt:  startedAt,
	}, nil
}

func (s *SQLiteDatabase) FinishOperation(id int64, status string, finishedAt time.Time) error {
	res, err := s.db.Exec(
		`UPDATE operations SET status = ?, finished_at = ? WHERE id = ?`,
		status, finishedAt.UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("finishing operation: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("finishing operation: no operation with id %d", id)
	}
	return nil
}

func (s *SQLiteDatabase) ListOperations(limit int) ([]*bk.OperationRecord, error) {
	rows, err := s.db.Query(
		`SELECT id, operation, parameters, status, started_at, finished_at FROM operations
		 ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing operations: %w", err)
	}
	defer rows.Close()

	var result []*bk.OperationRecord
	for rows.Next() {
		var op bk.OperationRecord
		if err := rows.Scan(&op.ID, &op.Operation, &op.Parameters, &op.Status, &op.StartedAt, &op.FinishedAt); err != nil {
			return nil, fmt.Errorf("scanning operation: %w", err)
		}
		result = append(result, &op)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing operations: %w", err)
	}
	return result, nil
}

// Path returns the database file path (or ":memory:" for in-memory databases).
func (s *SQLiteDatabase) Path() string {
	return s.path
}

// Close closes the database connection.
func (s *SQLiteDatabase) Close() error {
	return s.db.Close()
}
