// Package taskfile reads the YAML task document.
//
// The document is a top-level sequence of tasks:
//
//	- name: shell
//	  path:
//	    - ~/.bashrc
//	    - ~/.config/fish
//	- name: editor
//	  path: [~/.vimrc]
//	  dstpath: /srv/restore/editor
package taskfile

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"cfgbk-go/internal/bk"
)

// taskEntry is one task as written in the document.
type taskEntry struct {
	Name    string   `yaml:"name"`
	Path    []string `yaml:"path"`
	DstPath string   `yaml:"dstpath,omitempty"`
}

// Loader implements bk.TaskLoader.
type Loader struct{}

var _ bk.TaskLoader = Loader{}

// Load reads and validates the task document at path.
func (Loader) Load(path string) ([]*bk.Task, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &bk.ConfigError{Path: path, Err: err}
	}
	defer f.Close()
	return Parse(f, path)
}

// Parse decodes a task document from r. origin names the document in errors.
func Parse(r io.Reader, origin string) ([]*bk.Task, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var entries []taskEntry
	if err := dec.Decode(&entries); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &bk.ConfigError{Path: origin, Err: errors.New("task document is empty")}
		}
		return nil, &bk.ConfigError{Path: origin, Err: err}
	}
	if len(entries) == 0 {
		return nil, &bk.ConfigError{Path: origin, Err: errors.New("task document lists no tasks")}
	}

	tasks := make([]*bk.Task, 0, len(entries))
	for i, e := range entries {
		t, err := bk.NewTask(e.Name, e.Path, e.DstPath)
		if err != nil {
			return nil, &bk.ConfigError{Path: origin, Err: fmt.Errorf("task %d: %w", i+1, err)}
		}
		tasks = append(tasks, t)
	}
	if err := bk.ValidateTasks(tasks); err != nil {
		return nil, &bk.ConfigError{Path: origin, Err: err}
	}
	return tasks, nil
}
