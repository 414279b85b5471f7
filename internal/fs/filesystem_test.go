package fs

import (
	"os"
	"path/filepath"
	"testing"

	"cfgbk-go/internal/testutil"
)

func TestOSFilesystemManager_Copy(t *testing.T) {
	t.Run("copies a file and creates nothing else", func(t *testing.T) {
		src := filepath.Join(t.TempDir(), ".bashrc")
		testutil.WriteFile(t, src, "alias ll='ls -l'\n")
		dst := filepath.Join(t.TempDir(), ".bashrc")

		if err := NewOSFilesystemManager(nil).Copy(src, dst); err != nil {
			t.Fatalf("Copy() error = %v", err)
		}
		if got := testutil.ReadFile(t, dst); got != "alias ll='ls -l'\n" {
			t.Errorf("content = %q", got)
		}
	})

	t.Run("copies a tree", func(t *testing.T) {
		src := t.TempDir()
		testutil.WriteTree(t, src, map[string]string{
			"config.fish":          "set fish_greeting\n",
			"functions/ll.fish":    "function ll\nend\n",
			"conf.d/deep/env.fish": "set -x A 1\n",
		})
		dst := filepath.Join(t.TempDir(), "fish")

		if err := NewOSFilesystemManager(nil).Copy(src, dst); err != nil {
			t.Fatalf("Copy() error = %v", err)
		}
		want := testutil.TreeDigest(t, src)
		got := testutil.TreeDigest(t, dst)
		if len(got) != len(want) {
			t.Fatalf("copied %d files, want %d", len(got), len(want))
		}
		for rel, sum := range want {
			if got[rel] != sum {
				t.Errorf("%s differs after copy", rel)
			}
		}
	})

	t.Run("merges into an existing directory", func(t *testing.T) {
		src := t.TempDir()
		testutil.WriteTree(t, src, map[string]string{"a": "new a", "sub/b": "new b"})
		dst := t.TempDir()
		testutil.WriteTree(t, dst, map[string]string{"a": "old a", "keep": "kept"})

		if err := NewOSFilesystemManager(nil).Copy(src, dst); err != nil {
			t.Fatalf("Copy() error = %v", err)
		}
		got := testutil.ReadTree(t, dst)
		if got["a"] != "new a" || got["sub/b"] != "new b" {
			t.Errorf("merged tree = %v, want source files overwritten", got)
		}
		if got["keep"] != "kept" {
			t.Errorf("existing file not in source was removed: %v", got)
		}
	})

	t.Run("file replaces a directory", func(t *testing.T) {
		src := filepath.Join(t.TempDir(), "f")
		testutil.WriteFile(t, src, "file")
		dst := t.TempDir()
		testutil.WriteFile(t, filepath.Join(dst, "inner"), "x")

		if err := NewOSFilesystemManager(nil).Copy(src, dst); err != nil {
			t.Fatalf("Copy() error = %v", err)
		}
		if got := testutil.ReadFile(t, dst); got != "file" {
			t.Errorf("content = %q, want file", got)
		}
	})

	t.Run("directory replaces a file", func(t *testing.T) {
		src := t.TempDir()
		testutil.WriteFile(t, filepath.Join(src, "inner"), "x")
		dst := filepath.Join(t.TempDir(), "target")
		testutil.WriteFile(t, dst, "was a file")

		if err := NewOSFilesystemManager(nil).Copy(src, dst); err != nil {
			t.Fatalf("Copy() error = %v", err)
		}
		if got := testutil.ReadFile(t, filepath.Join(dst, "inner")); got != "x" {
			t.Errorf("content = %q, want x", got)
		}
	})

	t.Run("skips ignored entries inside trees", func(t *testing.T) {
		src := t.TempDir()
		testutil.WriteTree(t, src, map[string]string{
			"init.vim":          "set nu\n",
			".init.vim.swp":     "junk",
			"cache/state":       "junk",
			"plugin/cache/keep": "kept: pattern is anchored to the tree root",
		})
		dst := filepath.Join(t.TempDir(), "nvim")

		m := NewOSFilesystemManager([]string{"*.swp", "cache/*"})
		if err := m.Copy(src, dst); err != nil {
			t.Fatalf("Copy() error = %v", err)
		}
		got := testutil.ReadTree(t, dst)
		if _, ok := got[".init.vim.swp"]; ok {
			t.Error("basename pattern did not skip .init.vim.swp")
		}
		if _, ok := got["cache/state"]; ok {
			t.Error("path pattern did not skip cache/state")
		}
		if _, ok := got["init.vim"]; !ok {
			t.Error("init.vim missing")
		}
		if _, ok := got["plugin/cache/keep"]; !ok {
			t.Error("plugin/cache/keep should not match cache/*")
		}
	})

	t.Run("ignore patterns do not apply to the copied path itself", func(t *testing.T) {
		src := filepath.Join(t.TempDir(), "notes.swp")
		testutil.WriteFile(t, src, "x")
		dst := filepath.Join(t.TempDir(), "notes.swp")

		if err := NewOSFilesystemManager([]string{"*.swp"}).Copy(src, dst); err != nil {
			t.Fatalf("Copy() error = %v", err)
		}
		if got := testutil.ReadFile(t, dst); got != "x" {
			t.Errorf("content = %q, want x", got)
		}
	})

	t.Run("follows a top-level symlink", func(t *testing.T) {
		dir := t.TempDir()
		target := filepath.Join(dir, "real.conf")
		testutil.WriteFile(t, target, "real")
		link := filepath.Join(dir, "app.conf")
		if err := os.Symlink(target, link); err != nil {
			t.Fatal(err)
		}
		dst := filepath.Join(t.TempDir(), "app.conf")

		if err := NewOSFilesystemManager(nil).Copy(link, dst); err != nil {
			t.Fatalf("Copy() error = %v", err)
		}
		info, err := os.Lstat(dst)
		if err != nil {
			t.Fatal(err)
		}
		if info.Mode()&os.ModeSymlink != 0 {
			t.Error("destination is a symlink, want a regular file")
		}
		if got := testutil.ReadFile(t, dst); got != "real" {
			t.Errorf("content = %q, want real", got)
		}
	})

	t.Run("keeps symlinks inside trees", func(t *testing.T) {
		src := t.TempDir()
		testutil.WriteFile(t, filepath.Join(src, "target"), "t")
		if err := os.Symlink("target", filepath.Join(src, "alias")); err != nil {
			t.Fatal(err)
		}
		dst := filepath.Join(t.TempDir(), "tree")

		if err := NewOSFilesystemManager(nil).Copy(src, dst); err != nil {
			t.Fatalf("Copy() error = %v", err)
		}
		link, err := os.Readlink(filepath.Join(dst, "alias"))
		if err != nil || link != "target" {
			t.Errorf("Readlink() = %q, %v; want target", link, err)
		}
	})

	t.Run("missing source", func(t *testing.T) {
		err := NewOSFilesystemManager(nil).Copy(filepath.Join(t.TempDir(), "absent"), filepath.Join(t.TempDir(), "x"))
		if err == nil {
			t.Fatal("Copy() expected error for missing source")
		}
	})
}
