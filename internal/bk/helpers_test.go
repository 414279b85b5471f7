package bk_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cfgbk-go/internal/archive"
	"cfgbk-go/internal/bk"
	"cfgbk-go/internal/fs"
	"cfgbk-go/internal/taskfile"
	"cfgbk-go/internal/testutil"
)

// harness is a Service wired to real collaborators under temp directories.
type harness struct {
	svc       *bk.Service
	db        bk.Database
	staging   *testutil.RecordingStagingArea
	confirmer *testutil.ScriptedConfirmer
	out       *bytes.Buffer
	outputDir string
	tempRoot  string
}

type harnessOption func(*bk.Deps)

func withFilesystem(fsmgr bk.FilesystemManager) harnessOption {
	return func(d *bk.Deps) { d.Filesystem = fsmgr }
}

func newHarness(t *testing.T, opts ...harnessOption) *harness {
	t.Helper()

	h := &harness{
		db:        testutil.NewTestDatabase(t),
		staging:   testutil.NewTestStagingArea(),
		confirmer: &testutil.ScriptedConfirmer{Answer: true},
		out:       &bytes.Buffer{},
		outputDir: filepath.Join(t.TempDir(), "bkup"),
		tempRoot:  t.TempDir(),
	}
	deps := bk.Deps{
		Filesystem: fs.NewOSFilesystemManager(nil),
		Archiver:   archive.NewTarGz(nil),
		Staging:    h.staging,
		Tasks:      taskfile.Loader{},
		Catalog:    h.db,
		Confirmer:  h.confirmer,
		Clock:      testutil.FixedClock(),
		IDGen:      testutil.NewStubIDGenerator(),
		Out:        h.out,
		TempRoot:   h.tempRoot,
	}
	for _, opt := range opts {
		opt(&deps)
	}
	h.svc = bk.NewService(deps)
	return h
}

// assertStagingDisposed fails if any staging directory handed out still exists.
func (h *harness) assertStagingDisposed(t *testing.T) {
	t.Helper()
	for _, dir := range h.staging.Created() {
		if _, err := os.Stat(dir); !os.IsNotExist(err) {
			t.Errorf("staging directory %s still exists (stat err = %v)", dir, err)
		}
	}
}

// taskDoc renders a task document. Each task is "name=path1,path2" with an
// optional ">dstpath" suffix.
func taskDoc(entries ...string) string {
	var b strings.Builder
	for _, entry := range entries {
		dst := ""
		if i := strings.Index(entry, ">"); i >= 0 {
			entry, dst = entry[:i], entry[i+1:]
		}
		name, paths, _ := strings.Cut(entry, "=")
		b.WriteString("- name: " + name + "\n  path:\n")
		for _, p := range strings.Split(paths, ",") {
			b.WriteString("    - " + p + "\n")
		}
		if dst != "" {
			b.WriteString("  dstpath: " + dst + "\n")
		}
	}
	return b.String()
}

// writeTaskDoc writes a task document to a temp file and parses it.
func writeTaskDoc(t *testing.T, entries ...string) (string, []*bk.Task) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tasks.yaml")
	testutil.WriteFile(t, path, taskDoc(entries...))
	tasks, err := taskfile.Loader{}.Load(path)
	if err != nil {
		t.Fatalf("loading task document: %v", err)
	}
	return path, tasks
}

// backup runs a backup of the given task entries and returns the archive path.
func (h *harness) backup(t *testing.T, entries ...string) string {
	t.Helper()
	docPath, tasks := writeTaskDoc(t, entries...)
	res, err := h.svc.Backup(context.Background(), bk.BackupRequest{
		Tasks:        tasks,
		ConfigSource: docPath,
		OutputDir:    h.outputDir,
	})
	if err != nil {
		t.Fatalf("Backup() error = %v", err)
	}
	return res.ArchivePath
}

// unpack extracts an archive into a fresh temp dir and returns its files.
func unpack(t *testing.T, archivePath string) map[string]string {
	t.Helper()
	dir := t.TempDir()
	if err := archive.NewTarGz(nil).Unpack(context.Background(), archivePath, dir); err != nil {
		t.Fatalf("unpacking %s: %v", archivePath, err)
	}
	return testutil.ReadTree(t, dir)
}

// archivesIn lists the bundles in dir.
func archivesIn(t *testing.T, dir string) []string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, "*"+bk.ArchiveExt))
	if err != nil {
		t.Fatal(err)
	}
	return matches
}
