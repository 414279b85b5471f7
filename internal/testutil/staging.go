package testutil

import (
	"sync"

	"cfgbk-go/internal/bk"
	"cfgbk-go/internal/staging"
)

// RecordingStagingArea wraps a real staging area and remembers every
// directory it hands out, so tests can assert they were all disposed.
type RecordingStagingArea struct {
	inner bk.StagingArea

	mu      sync.Mutex
	created []string
}

// NewTestStagingArea creates a recording staging area with deterministic
// directory names.
func NewTestStagingArea() *RecordingStagingArea {
	return &RecordingStagingArea{inner: staging.NewArea(NewStubIDGenerator())}
}

func (a *RecordingStagingArea) Create(base string) (*bk.StagingDir, error) {
	dir, err := a.inner.Create(base)
	if err != nil {
		return nil, err
	}
	a.mu.Lock()
	a.created = append(a.created, dir.Path())
	a.mu.Unlock()
	return dir, nil
}

// Created returns the paths of every directory created so far.
func (a *RecordingStagingArea) Created() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.created...)
}

var _ bk.StagingArea = (*RecordingStagingArea)(nil)
