package bk

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// RestoreRequest describes one restore run.
type RestoreRequest struct {
	ArchivePath string
	GroupFilter string // restore only this task; empty means all
	OutputDir   string // where the safety bundle is written
}

// RestoreResult is the outcome of a confirmed restore.
type RestoreResult struct {
	SafetyArchive string
	Tasks         []*TaskRestoreResult
}

// Failed returns the number of paths that could not be restored.
func (r *RestoreResult) Failed() int {
	n := 0
	for _, t := range r.Tasks {
		n += t.Failed
	}
	return n
}

// Restore unpacks an archive, previews what would be restored, and after
// operator confirmation overwrites the task targets from the archive.
//
// Targets are read from the task document embedded in the archive, never from
// the operator's current one. Each task's current targets are copied into a
// safety bundle (restore_bk_*) before that task is overwritten, including tasks
// excluded by the group filter. ErrCancelled is returned, with nothing
// changed, if the operator declines. When a safety backup fails or ctx is
// cancelled part way, the remaining tasks are left alone and the safety
// bundle still holds the tasks handled so far; its path is set on the
// returned result along with the error.
func (s *Service) Restore(ctx context.Context, req RestoreRequest) (*RestoreResult, error) {
	s.reportArchiveTime(req.ArchivePath)

	unpacked, err := s.unpack(ctx, req.ArchivePath)
	if err != nil {
		return nil, err
	}
	defer s.dispose(unpacked)

	tasks, err := s.loadEmbeddedTasks(unpacked.Path())
	if err != nil {
		return nil, err
	}

	rows := ComputeStatus(tasks, unpacked.Path(), req.GroupFilter)
	RenderStatus(s.out, rows, s.tableWidth)

	ok, err := s.confirmer.Confirm(ctx, "Restore these files?")
	if err != nil {
		return nil, fmt.Errorf("reading confirmation: %w", err)
	}
	if !ok {
		s.logger.Info("restore cancelled by operator", "archive", req.ArchivePath)
		return nil, ErrCancelled
	}

	safety, err := s.staging.Create(req.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("creating safety backup directory: %w", err)
	}
	defer s.dispose(safety)

	result := &RestoreResult{}
	protected := 0
	var restoreErr error
	for _, t := range tasks {
		if restoreErr = ctx.Err(); restoreErr != nil {
			break
		}
		tr, err := t.Restore(s.fsmgr, s.logger, safety.Path(), unpacked.Path(), req.GroupFilter)
		result.Tasks = append(result.Tasks, tr)
		if err != nil {
			restoreErr = err
			break
		}
		protected++
	}
	if protected == 0 && restoreErr != nil {
		return result, restoreErr
	}

	// Tasks handled before a failure or cancellation may already be
	// overwritten, so their safety copies are packed regardless.
	safetyArchive, err := s.packSafety(context.WithoutCancel(ctx), safety.Path(), unpacked.Path(), req.OutputDir, len(tasks))
	if err != nil {
		return result, errors.Join(restoreErr, err)
	}
	result.SafetyArchive = safetyArchive
	if restoreErr != nil {
		s.logger.Error("restore stopped", "archive", req.ArchivePath, "safety_archive", safetyArchive, "error", restoreErr)
		return result, restoreErr
	}

	s.logger.Info("restore complete", "archive", req.ArchivePath, "safety_archive", safetyArchive, "failed", result.Failed())
	return result, nil
}

// packSafety adds the archive's task document to the safety tree and packs
// it as a restore_bk_* bundle in outputDir.
func (s *Service) packSafety(ctx context.Context, safetyRoot, unpackedRoot, outputDir string, taskCount int) (string, error) {
	if err := s.copyConfig(embeddedConfigPath(unpackedRoot), safetyRoot); err != nil {
		return "", err
	}
	name := "restore_bk_" + GenerateArchiveName(s.clock, s.idgen)
	path, err := s.archiver.Pack(ctx, safetyRoot, outputDir, name)
	if err != nil {
		return "", fmt.Errorf("packing safety backup: %w", err)
	}
	s.recordArchive(ArchiveKindSafety, path, taskCount)
	return path, nil
}

// reportArchiveTime prints when the archive was created: the catalog time if
// this archive was produced here, otherwise the file's modification time.
func (s *Service) reportArchiveTime(archivePath string) {
	created, source := s.archiveTime(archivePath)
	if created.IsZero() {
		// Unpack reports the real error.
		return
	}
	stamp := created.Local().Format("2006-01-02 15:04:05")
	fmt.Fprintf(s.out, "Archive %s created at %s\n", filepath.Base(archivePath), stamp)
	s.logger.Info("archive created", "archive", archivePath, "created_at", stamp, "source", source)
}

func (s *Service) archiveTime(archivePath string) (time.Time, string) {
	if s.catalog != nil {
		rec, err := s.catalog.FindArchiveByPath(absPath(archivePath))
		if err != nil {
			s.logger.Warn("looking up archive in catalog", "archive", archivePath, "error", err)
		} else if rec != nil {
			return rec.CreatedAt, "catalog"
		}
	}
	info, err := os.Stat(archivePath)
	if err != nil {
		return time.Time{}, ""
	}
	return info.ModTime(), "mtime"
}

// absPath returns p made absolute, or p itself if that fails.
func absPath(p string) string {
	abs, err := filepath.Abs(p)
	if err != nil {
		return p
	}
	return abs
}
