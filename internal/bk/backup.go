package bk

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
)

// BackupRequest describes one backup run.
type BackupRequest struct {
	Tasks        []*Task
	ConfigSource string // task document copied into the archive
	OutputDir    string
	Name         string // archive label; generated when empty
}

// BackupResult is the outcome of a successful backup.
type BackupResult struct {
	ArchivePath string
	TaskCount   int
}

// Backup stages every task under a temporary directory in OutputDir, adds the
// task document, and packs the tree into OutputDir/<name>.tar.gz.
// Nothing is packed unless every task staged successfully. The staging tree
// is removed whether or not the run succeeds.
func (s *Service) Backup(ctx context.Context, req BackupRequest) (*BackupResult, error) {
	s.logger.Info("backup started", "tasks", len(req.Tasks), "output", req.OutputDir)

	if err := ValidateTasks(req.Tasks); err != nil {
		return nil, err
	}
	if err := validateArchiveName(req.Name); err != nil {
		return nil, &ConfigError{Path: req.Name, Err: err}
	}

	dir, err := s.staging.Create(req.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("creating staging directory: %w", err)
	}
	defer s.dispose(dir)

	for _, t := range req.Tasks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := t.Backup(s.fsmgr, s.logger, dir.Path()); err != nil {
			return nil, fmt.Errorf("backing up task %s: %w", t.Name, err)
		}
		s.logger.Info("task staged", "task", t.Name)
	}

	if err := s.copyConfig(req.ConfigSource, dir.Path()); err != nil {
		return nil, err
	}

	name := req.Name
	if name == "" {
		name = GenerateArchiveName(s.clock, s.idgen)
	}
	archivePath, err := s.archiver.Pack(ctx, dir.Path(), req.OutputDir, name)
	if err != nil {
		return nil, err
	}

	s.recordArchive(ArchiveKindBackup, archivePath, len(req.Tasks))
	s.logger.Info("backup complete", "archive", archivePath)
	return &BackupResult{ArchivePath: archivePath, TaskCount: len(req.Tasks)}, nil
}

// copyConfig stores the task document at the top of a staging tree.
func (s *Service) copyConfig(src, root string) error {
	if err := s.fsmgr.Copy(src, embeddedConfigPath(root)); err != nil {
		return &CopyError{Path: src, Err: err}
	}
	return nil
}

// validateArchiveName checks that an operator-supplied label names a file
// directly inside the output directory. Empty means generated.
func validateArchiveName(name string) error {
	if name == "" {
		return nil
	}
	if name == "." || !filepath.IsLocal(name) || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("archive name %q must be a plain file name", name)
	}
	return nil
}

func embeddedConfigPath(root string) string {
	return filepath.Join(root, EmbeddedConfigName)
}
