// Package staging allocates the temporary working trees used between raw
// files and archives.
package staging

import (
	"fmt"
	"os"
	"path/filepath"

	"cfgbk-go/internal/bk"
)

// dirPrefix starts every staging directory name.
const dirPrefix = "tmp_"

// Area implements bk.StagingArea on the real filesystem.
// Directory names are "tmp_" plus a random token, so concurrent processes
// sharing a base directory do not collide.
type Area struct {
	idgen bk.IDGenerator
}

var _ bk.StagingArea = (*Area)(nil)

// NewArea creates a staging area drawing directory names from idgen.
func NewArea(idgen bk.IDGenerator) *Area {
	if idgen == nil {
		idgen = bk.UUIDGenerator{}
	}
	return &Area{idgen: idgen}
}

// Create makes a fresh directory under base. The final Mkdir is exclusive: an
// existing directory with the same name is an error, never reused.
func (a *Area) Create(base string) (*bk.StagingDir, error) {
	if err := os.MkdirAll(base, 0755); err != nil {
		return nil, fmt.Errorf("creating staging base %s: %w", base, err)
	}

	dir := filepath.Join(base, dirPrefix+a.idgen.New())
	if err := os.Mkdir(dir, 0700); err != nil {
		return nil, fmt.Errorf("creating staging directory: %w", err)
	}
	return bk.NewStagingDir(dir, os.RemoveAll), nil
}
