package bk_test

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"cfgbk-go/internal/bk"
	"cfgbk-go/internal/testutil"
)

func TestComputeStatus(t *testing.T) {
	root := t.TempDir()
	testutil.WriteTree(t, root, map[string]string{
		"A/a.conf": "a",
		"B/b.conf": "b",
	})
	taskA, _ := bk.NewTask("A", []string{"/etc/a.conf", "/etc/gone.conf"}, "")
	taskB, _ := bk.NewTask("B", []string{"/etc/b.conf"}, "")
	tasks := []*bk.Task{taskA, taskB}

	tests := []struct {
		name   string
		filter string
		want   []bk.Status
	}{
		{"no filter", "", []bk.Status{bk.StatusOK, bk.StatusNG, bk.StatusOK}},
		{"filter A", "A", []bk.Status{bk.StatusOK, bk.StatusNG, bk.StatusSkip}},
		{"filter B", "B", []bk.Status{bk.StatusSkip, bk.StatusNG, bk.StatusOK}},
		{"unknown filter", "Z", []bk.Status{bk.StatusSkip, bk.StatusNG, bk.StatusSkip}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := bk.ComputeStatus(tasks, root, tt.filter)
			if len(rows) != len(tt.want) {
				t.Fatalf("got %d rows, want %d", len(rows), len(tt.want))
			}
			for i, row := range rows {
				if row.Status != tt.want[i] {
					t.Errorf("row %d (%s/%s) = %s, want %s", i, row.Group, row.File, row.Status, tt.want[i])
				}
			}
		})
	}

	rows := bk.ComputeStatus(tasks, root, "")
	if rows[0].Group != "A" || rows[0].File != "a.conf" || rows[0].Path != "/etc/a.conf" {
		t.Errorf("row 0 = %+v", rows[0])
	}

	t.Run("destination shows the restore target", func(t *testing.T) {
		redirected, _ := bk.NewTask("A", []string{"/etc/a.conf"}, "/srv/restore")
		rows := bk.ComputeStatus([]*bk.Task{redirected}, root, "")
		if len(rows) != 1 || rows[0].Path != "/srv/restore/a.conf" || rows[0].Status != bk.StatusOK {
			t.Errorf("rows = %+v, want /srv/restore/a.conf OK", rows)
		}
	})
}

func TestRenderStatus(t *testing.T) {
	rows := []bk.StatusRow{
		{Group: "shell", File: ".bashrc", Path: "~/.bashrc", Status: bk.StatusOK},
		{Group: "editor", File: "init.vim", Path: "/home/someone/with/a/rather/long/path/to/nvim/init.vim", Status: bk.StatusSkip},
	}

	t.Run("unlimited width", func(t *testing.T) {
		var buf bytes.Buffer
		bk.RenderStatus(&buf, rows, 0)
		out := buf.String()
		for _, want := range []string{"Group", "File", "Path", "Status", "~/.bashrc", rows[1].Path, "SKIP"} {
			if !strings.Contains(out, want) {
				t.Errorf("table missing %q:\n%s", want, out)
			}
		}
	})

	t.Run("narrow width shortens paths from the left", func(t *testing.T) {
		var buf bytes.Buffer
		bk.RenderStatus(&buf, rows, 70)
		out := buf.String()
		if strings.Contains(out, rows[1].Path) {
			t.Errorf("long path not shortened:\n%s", out)
		}
		if !strings.Contains(out, "...") || !strings.Contains(out, "nvim/init.vim") {
			t.Errorf("shortened path should keep its tail:\n%s", out)
		}
		if !strings.Contains(out, "~/.bashrc") {
			t.Errorf("short path should be untouched:\n%s", out)
		}
	})
}

func TestService_Status(t *testing.T) {
	h := newHarness(t)
	home := t.TempDir()
	rc := filepath.Join(home, ".bashrc")
	testutil.WriteFile(t, rc, "v1")
	archivePath := h.backup(t, "shell="+rc+","+filepath.Join(home, "missing"), "other="+rc)
	testutil.WriteFile(t, rc, "v2")

	rows, err := h.svc.Status(context.Background(), archivePath, "shell")
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}

	want := []bk.Status{bk.StatusOK, bk.StatusNG, bk.StatusSkip}
	if len(rows) != len(want) {
		t.Fatalf("got %d rows, want %d", len(rows), len(want))
	}
	for i := range want {
		if rows[i].Status != want[i] {
			t.Errorf("row %d = %s, want %s", i, rows[i].Status, want[i])
		}
	}

	if got := testutil.ReadFile(t, rc); got != "v2" {
		t.Errorf("Status() modified a target: %q", got)
	}
	if len(h.confirmer.Prompts) != 0 {
		t.Error("Status() prompted for confirmation")
	}
	if got := archivesIn(t, h.outputDir); len(got) != 1 {
		t.Errorf("Status() wrote archives: %v", got)
	}
	h.assertStagingDisposed(t)
}
