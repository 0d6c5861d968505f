package pidfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// DefaultPath is where the pid list lives when no other path is configured.
// It is resolved against the working directory of the caller.
const DefaultPath = ".prism-pids.json"

// FileMode is used for newly written pid files.
const FileMode = 0o600

// File is a pid list persisted as a flat JSON array of integers, e.g. [111,222].
// A missing file is equivalent to an empty list.
type File struct {
	Path string
}

func New(path string) File {
	if path == "" {
		path = DefaultPath
	}
	return File{Path: filepath.Clean(path)}
}

// Load returns the recorded pids. It returns an empty slice when the file does
// not exist and an error when the content is not a JSON array of integers.
func (f File) Load() ([]int, error) {
	b, err := os.ReadFile(f.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []int{}, nil
		}
		return nil, err
	}
	var pids []int
	if err := json.Unmarshal(b, &pids); err != nil {
		return nil, fmt.Errorf("parse pid file %s: %w", f.Path, err)
	}
	if pids == nil {
		pids = []int{}
	}
	return pids, nil
}

// Save replaces the file content with pids.
func (f File) Save(pids []int) error {
	if pids == nil {
		pids = []int{}
	}
	b, err := json.Marshal(pids)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(f.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return err
		}
	}
	if err := writeFile(f.Path, b, FileMode); err != nil {
		return fmt.Errorf("write pid file %s: %w", f.Path, err)
	}
	return nil
}

// Remove deletes the file. A missing file is not an error.
func (f File) Remove() error {
	if err := os.Remove(f.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Exists reports whether the file is present.
func (f File) Exists() bool {
	_, err := os.Stat(f.Path)
	return err == nil
}
