package bk

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// EmbeddedConfigName is the file name the task document is stored under at
// the top level of every archive bundle.
const EmbeddedConfigName = "config.yaml"

// Task is a named group of paths that are backed up and restored as a unit.
// The name doubles as the task's directory inside an archive and as the
// restore group filter key.
type Task struct {
	Name        string
	Paths       []PathRef
	Destination *PathRef // optional restore destination directory
}

// NewTask validates the name and resolves every raw path.
// rawDst may be empty.
func NewTask(name string, rawPaths []string, rawDst string) (*Task, error) {
	if err := validateTaskName(name); err != nil {
		return nil, &ConfigError{Path: name, Err: err}
	}
	if len(rawPaths) == 0 {
		return nil, &ConfigError{Path: name, Err: errors.New("task has no paths")}
	}

	t := &Task{Name: name}
	bases := make(map[string]string, len(rawPaths))
	for _, raw := range rawPaths {
		if strings.TrimSpace(raw) == "" {
			return nil, &ConfigError{Path: name, Err: errors.New("empty path")}
		}
		p, err := ResolvePath(raw)
		if err != nil {
			return nil, err
		}
		// Paths are stored in the archive under <task>/<basename>.
		if prev, ok := bases[p.Base()]; ok {
			return nil, &ConfigError{Path: name, Err: fmt.Errorf("paths %s and %s share the name %q", prev, raw, p.Base())}
		}
		bases[p.Base()] = raw
		t.Paths = append(t.Paths, p)
	}

	if rawDst != "" {
		dst, err := ResolvePath(rawDst)
		if err != nil {
			return nil, err
		}
		t.Destination = &dst
	}
	return t, nil
}

// validateTaskName checks that name is usable as a single directory component.
func validateTaskName(name string) error {
	switch {
	case name == "":
		return errors.New("task name is empty")
	case name == "." || name == "..":
		return fmt.Errorf("invalid task name %q", name)
	case strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0):
		return fmt.Errorf("task name %q contains a path separator", name)
	case name == EmbeddedConfigName:
		return fmt.Errorf("task name %q is reserved", name)
	}
	return nil
}

// ValidateTasks checks that task names are unique within a list.
func ValidateTasks(tasks []*Task) error {
	seen := make(map[string]bool, len(tasks))
	for _, t := range tasks {
		if seen[t.Name] {
			return &ConfigError{Path: t.Name, Err: errors.New("duplicate task name")}
		}
		seen[t.Name] = true
	}
	return nil
}

// Target returns where p is written on restore: the path itself, or
// <destination>/<basename> when the task has a destination override.
func (t *Task) Target(p PathRef) string {
	if t.Destination != nil {
		return filepath.Join(t.Destination.Resolved(), p.Base())
	}
	return p.Resolved()
}

// ArchivePath returns the location of p inside an unpacked archive rooted at root.
func (t *Task) ArchivePath(root string, p PathRef) string {
	return filepath.Join(root, t.Name, p.Base())
}

// Backup copies every existing path of the task into root/<task name>.
// Missing paths are logged and skipped. A path that exists but cannot be
// copied aborts with a *CopyError.
func (t *Task) Backup(fsmgr FilesystemManager, logger Logger, root string) error {
	return t.stage(fsmgr, logger, root, t.Paths)
}

// targets returns the restore target of every path, keeping the raw form
// for display.
func (t *Task) targets() []PathRef {
	refs := make([]PathRef, len(t.Paths))
	for i, p := range t.Paths {
		refs[i] = PathRef{raw: p.raw, resolved: t.Target(p)}
	}
	return refs
}

// stage copies each existing source into root/<task name>/<basename>.
func (t *Task) stage(fsmgr FilesystemManager, logger Logger, root string, sources []PathRef) error {
	taskDir := filepath.Join(root, t.Name)
	if err := os.MkdirAll(taskDir, 0755); err != nil {
		return fmt.Errorf("creating task directory: %w", err)
	}

	for _, src := range sources {
		if !src.Exists() {
			logger.Warn("path not found, skipping", "task", t.Name, "path", src.Resolved())
			continue
		}

		dst := filepath.Join(taskDir, src.Base())
		if err := fsmgr.Copy(src.Resolved(), dst); err != nil {
			return &CopyError{Path: src.Resolved(), Err: err}
		}
		logger.Debug("path staged", "task", t.Name, "path", src.Resolved())
	}
	return nil
}

// TaskRestoreResult summarizes what Restore did for one task.
type TaskRestoreResult struct {
	Task     string
	Filtered bool // excluded by the group filter; safety backup still taken
	Restored int
	Missing  int // not present in the archive
	Failed   int
}

// Restore first copies the task's current restore targets into
// safetyRoot/<task name>, then, unless groupFilter excludes this task,
// overwrites each target from unpackedRoot/<task name>/<basename>.
//
// A safety backup failure is returned and nothing is overwritten. Failures
// restoring individual paths are logged and counted; the remaining paths are
// still attempted.
func (t *Task) Restore(fsmgr FilesystemManager, logger Logger, safetyRoot, unpackedRoot, groupFilter string) (*TaskRestoreResult, error) {
	result := &TaskRestoreResult{Task: t.Name}

	if err := t.stage(fsmgr, logger, safetyRoot, t.targets()); err != nil {
		return result, fmt.Errorf("safety backup of task %s: %w", t.Name, err)
	}

	if groupFilter != "" && groupFilter != t.Name {
		result.Filtered = true
		logger.Info("task filtered out, not restoring", "task", t.Name, "group", groupFilter)
		return result, nil
	}

	for _, p := range t.Paths {
		src := t.ArchivePath(unpackedRoot, p)
		if _, err := os.Stat(src); err != nil {
			result.Missing++
			logger.Warn("path not in archive, skipping", "task", t.Name, "path", p.String())
			continue
		}

		target := resolveTarget(t.Target(p))
		if err := restoreOne(fsmgr, src, target); err != nil {
			result.Failed++
			logger.Error("restore failed", "task", t.Name, "path", target, "error", err)
			continue
		}
		result.Restored++
		logger.Info("path restored", "task", t.Name, "path", target)
	}
	return result, nil
}

// resolveTarget returns the file a symlinked target points at, so a restore
// replaces the content and leaves the link in place. Dangling links and
// non-links are returned unchanged.
func resolveTarget(target string) string {
	info, err := os.Lstat(target)
	if err != nil || info.Mode()&os.ModeSymlink == 0 {
		return target
	}
	resolved, err := filepath.EvalSymlinks(target)
	if err != nil {
		return target
	}
	return resolved
}

// restoreOne overwrites target with src, creating parent directories.
func restoreOne(fsmgr FilesystemManager, src, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return fmt.Errorf("creating parent directory: %w", err)
	}
	if err := fsmgr.Copy(src, target); err != nil {
		return &CopyError{Path: target, Err: err}
	}
	return nil
}
