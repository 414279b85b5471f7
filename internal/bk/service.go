package bk

import (
	"context"
	"fmt"
	"io"
	"os"
)

// TaskLoader parses a task document into a validated task list.
type TaskLoader interface {
	Load(path string) ([]*Task, error)
}

// Deps holds the collaborators of a Service.
type Deps struct {
	Filesystem FilesystemManager
	Archiver   Archiver
	Staging    StagingArea
	Tasks      TaskLoader
	Catalog    Catalog
	Confirmer  Confirmer
	Logger     Logger
	Clock      Clock
	IDGen      IDGenerator

	// Out receives the restore preview table.
	Out io.Writer
	// TableWidth caps the preview table width; 0 means unlimited.
	TableWidth int
	// TempRoot is where archives are unpacked. Defaults to os.TempDir().
	TempRoot string
}

// Service drives the backup, restore and status pipelines. It is not safe
// for concurrent use; each invocation owns its staging directories.
type Service struct {
	fsmgr      FilesystemManager
	archiver   Archiver
	staging    StagingArea
	tasks      TaskLoader
	catalog    Catalog
	confirmer  Confirmer
	logger     Logger
	clock      Clock
	idgen      IDGenerator
	out        io.Writer
	tableWidth int
	tempRoot   string
}

// NewService creates a Service from its collaborators.
func NewService(d Deps) *Service {
	s := &Service{
		fsmgr:      d.Filesystem,
		archiver:   d.Archiver,
		staging:    d.Staging,
		tasks:      d.Tasks,
		catalog:    d.Catalog,
		confirmer:  d.Confirmer,
		logger:     d.Logger,
		clock:      d.Clock,
		idgen:      d.IDGen,
		out:        d.Out,
		tableWidth: d.TableWidth,
		tempRoot:   d.TempRoot,
	}
	if s.logger == nil {
		s.logger = NewNopLogger()
	}
	if s.clock == nil {
		s.clock = RealClock{}
	}
	if s.idgen == nil {
		s.idgen = UUIDGenerator{}
	}
	if s.out == nil {
		s.out = io.Discard
	}
	if s.tempRoot == "" {
		s.tempRoot = os.TempDir()
	}
	return s
}

// dispose removes a staging directory, logging rather than returning failures
// so cleanup never masks the operation's own error.
func (s *Service) dispose(dir *StagingDir) {
	if err := dir.Dispose(); err != nil {
		s.logger.Error("removing staging directory", "path", dir.Path(), "error", err)
		return
	}
	s.logger.Debug("staging directory removed", "path", dir.Path())
}

// unpack extracts an archive into a fresh staging directory under the temp
// root. The caller must dispose the returned directory.
func (s *Service) unpack(ctx context.Context, archivePath string) (*StagingDir, error) {
	dir, err := s.staging.Create(s.tempRoot)
	if err != nil {
		return nil, fmt.Errorf("creating unpack directory: %w", err)
	}
	if err := s.archiver.Unpack(ctx, archivePath, dir.Path()); err != nil {
		s.dispose(dir)
		return nil, err
	}
	s.logger.Debug("archive unpacked", "archive", archivePath, "dir", dir.Path())
	return dir, nil
}

// loadEmbeddedTasks parses the task document stored inside an unpacked archive.
func (s *Service) loadEmbeddedTasks(root string) ([]*Task, error) {
	tasks, err := s.tasks.Load(embeddedConfigPath(root))
	if err != nil {
		return nil, fmt.Errorf("reading embedded task list: %w", err)
	}
	return tasks, nil
}

// recordArchive stores an archive in the catalog. Catalog failures are logged
// only: the archive on disk is the result that matters.
func (s *Service) recordArchive(kind, path string, taskCount int) {
	if s.catalog == nil {
		return
	}
	rec := &ArchiveRecord{
		ID:        s.idgen.New(),
		Kind:      kind,
		Path:      absPath(path),
		TaskCount: taskCount,
		CreatedAt: s.clock.Now(),
	}
	if err := s.catalog.RecordArchive(rec); err != nil {
		s.logger.Error("recording archive in catalog", "path", path, "error", err)
	}
}
