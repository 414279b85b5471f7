// Package archive implements bk.Archiver with gzip-compressed tar bundles.
package archive

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"cfgbk-go/internal/bk"
)

// TarGz packs and unpacks .tar.gz bundles using the standard gzip level.
type TarGz struct {
	logger bk.Logger
	level  int
}

var _ bk.Archiver = (*TarGz)(nil)

// NewTarGz creates an archiver that logs entry-level detail at debug level.
func NewTarGz(logger bk.Logger) *TarGz {
	if logger == nil {
		logger = bk.NewNopLogger()
	}
	return &TarGz{logger: logger, level: gzip.DefaultCompression}
}

// Pack writes the contents of sourceDir to destDir/name.tar.gz.
// A failed pack may leave a truncated file behind.
func (a *TarGz) Pack(ctx context.Context, sourceDir, destDir, name string) (string, error) {
	archivePath := filepath.Join(destDir, name+bk.ArchiveExt)

	if err := os.MkdirAll(destDir, 0755); err != nil {
		return "", &bk.ArchiveError{Op: "pack", Path: archivePath, Err: fmt.Errorf("creating output directory: %w", err)}
	}
	if err := a.writeArchive(ctx, sourceDir, archivePath); err != nil {
		return "", &bk.ArchiveError{Op: "pack", Path: archivePath, Err: err}
	}

	a.logger.Info("archive written", "path", archivePath)
	return archivePath, nil
}

func (a *TarGz) writeArchive(ctx context.Context, sourceDir, archivePath string) (err error) {
	f, err := os.OpenFile(archivePath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("creating archive file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("closing archive file: %w", cerr)
		}
	}()

	gz, err := gzip.NewWriterLevel(f, a.level)
	if err != nil {
		return fmt.Errorf("creating gzip writer: %w", err)
	}
	tw := tar.NewWriter(gz)

	if err := a.addTree(ctx, tw, sourceDir); err != nil {
		return err
	}
	if err := tw.Close(); err != nil {
		return fmt.Errorf("finalizing tar stream: %w", err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("finalizing gzip stream: %w", err)
	}
	return nil
}

// addTree writes every entry below sourceDir with names relative to it.
// The root itself is not recorded.
func (a *TarGz) addTree(ctx context.Context, tw *tar.Writer, sourceDir string) error {
	return filepath.WalkDir(sourceDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(sourceDir, p)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return fmt.Errorf("stat %s: %w", p, err)
		}

		var link string
		if info.Mode()&fs.ModeSymlink != 0 {
			if link, err = os.Readlink(p); err != nil {
				return fmt.Errorf("reading symlink %s: %w", p, err)
			}
		}

		header, err := tar.FileInfoHeader(info, link)
		if err != nil {
			return fmt.Errorf("building header for %s: %w", p, err)
		}
		header.Name = filepath.ToSlash(rel)
		if info.IsDir() {
			header.Name += "/"
		}
		header.Format = tar.FormatPAX

		if err := tw.WriteHeader(header); err != nil {
			return fmt.Errorf("writing header for %s: %w", rel, err)
		}

		if info.Mode().IsRegular() {
			if err := copyFileInto(tw, p); err != nil {
				return fmt.Errorf("writing %s: %w", rel, err)
			}
		} else if !info.IsDir() && link == "" {
			a.logger.Debug("recorded header only for special file", "path", rel)
		}

		a.logger.Debug("added to archive", "path", rel)
		return nil
	})
}

func copyFileInto(w io.Writer, p string) error {
	f, err := os.Open(p)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(w, f)
	return err
}

// Unpack extracts archivePath into destDir. Entries that would land outside
// destDir are rejected.
func (a *TarGz) Unpack(ctx context.Context, archivePath, destDir string) error {
	if err := a.extract(ctx, archivePath, destDir); err != nil {
		return &bk.ArchiveError{Op: "unpack", Path: archivePath, Err: err}
	}
	return nil
}

func (a *TarGz) extract(ctx context.Context, archivePath, destDir string) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("opening archive: %w", err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return fmt.Errorf("reading gzip stream: %w", err)
	}
	defer gz.Close()

	root, err := filepath.EvalSymlinks(destDir)
	if err != nil {
		return fmt.Errorf("resolving destination: %w", err)
	}

	tr := tar.NewReader(gz)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		header, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading tar header: %w", err)
		}

		target, err := entryTarget(root, header.Name)
		if err != nil {
			return err
		}
		if target == "" {
			continue
		}
		if err := a.extractEntry(tr, header, root, target); err != nil {
			return fmt.Errorf("extracting %s: %w", header.Name, err)
		}
	}
}

// entryTarget maps an entry name to a path under root. It returns "" for
// entries naming the root itself.
func entryTarget(root, name string) (string, error) {
	clean := path.Clean(strings.TrimPrefix(name, "/"))
	if clean == "." {
		return "", nil
	}
	local := filepath.FromSlash(clean)
	if !filepath.IsLocal(local) {
		return "", fmt.Errorf("illegal path in archive: %s", name)
	}
	return filepath.Join(root, local), nil
}

func (a *TarGz) extractEntry(tr *tar.Reader, header *tar.Header, root, target string) error {
	if err := checkParentWithin(root, target); err != nil {
		return err
	}

	mode := fs.FileMode(header.Mode).Perm()
	switch header.Typeflag {
	case tar.TypeDir:
		return os.MkdirAll(target, mode|0700)
	case tar.TypeReg:
		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return err
		}
		if err := os.RemoveAll(target); err != nil {
			return err
		}
		out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
		if err != nil {
			return err
		}
		if _, err := io.Copy(out, tr); err != nil {
			out.Close()
			return err
		}
		if err := out.Close(); err != nil {
			return err
		}
		return os.Chtimes(target, header.ModTime, header.ModTime)
	case tar.TypeSymlink:
		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return err
		}
		if err := os.RemoveAll(target); err != nil {
			return err
		}
		return os.Symlink(header.Linkname, target)
	default:
		a.logger.Debug("skipping unsupported entry", "name", header.Name, "type", header.Typeflag)
		return nil
	}
}

// checkParentWithin makes sure the nearest existing ancestor of target does
// not resolve, through symlinks extracted earlier, to a place outside root.
func checkParentWithin(root, target string) error {
	dir := filepath.Dir(target)
	for {
		if _, err := os.Lstat(dir); err == nil {
			break
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	resolved, err := filepath.EvalSymlinks(dir)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", dir, err)
	}
	rel, err := filepath.Rel(root, resolved)
	if err != nil || !filepath.IsLocal(rel) {
		return fmt.Errorf("illegal path in archive: %s escapes destination", target)
	}
	return nil
}
