package storage

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"
)

// Store defines the temp-file lifecycle used by compression jobs.
type Store interface {
	Allocate(suffix string) (string, error)
	Release(path string)
	WriteFile(path string, data []byte) error
	ReadFile(path string) ([]byte, error)
	SweepStale(maxAge time.Duration) (int, error)
	SweepAll() (int, error)
	Count() (int, error)
	EnsureDir() error
}

// TempStore keeps per-job scratch files under a dedicated root directory.
type TempStore struct {
	fs       afero.Fs
	basePath string
	now      func() time.Time
}

// NewTempStore creates a store rooted at basePath on the given filesystem.
func NewTempStore(fs afero.Fs, basePath string) *TempStore {
	return &TempStore{fs: fs, basePath: filepath.Clean(basePath), now: time.Now}
}

// NewOSTempStore creates a store backed by the real filesystem, which is what
// an external process needs to see the files.
func NewOSTempStore(basePath string) *TempStore {
	return NewTempStore(afero.NewOsFs(), basePath)
}

// BasePath returns the temp root.
func (ts *TempStore) BasePath() string {
	return ts.basePath
}

// EnsureDir creates the temp root if it doesn't exist.
func (ts *TempStore) EnsureDir() error {
	if err := ts.fs.MkdirAll(ts.basePath, 0700); err != nil {
		return fmt.Errorf("failed to create temp directory %s: %w", ts.basePath, err)
	}
	return nil
}

// Allocate returns a fresh, unguessable path under the temp root. The file
// itself is not created.
func (ts *TempStore) Allocate(suffix string) (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("failed to generate temp file id: %w", err)
	}
	return filepath.Join(ts.basePath, id.String()+suffix), nil
}

// Release deletes path if present. Failures are logged, never returned.
func (ts *TempStore) Release(path string) {
	if path == "" {
		return
	}
	if !ts.owns(path) {
		slog.Error("refusing to release path outside temp root", "path", path, "root", ts.basePath)
		return
	}
	if err := ts.fs.Remove(path); err != nil && !os.IsNotExist(err) {
		slog.Error("failed to delete temp file", "path", path, "error", err)
	}
}

// WriteFile stores data at a path previously returned by Allocate.
func (ts *TempStore) WriteFile(path string, data []byte) error {
	if !ts.owns(path) {
		return fmt.Errorf("path %s is outside the temp root", path)
	}
	if err := afero.WriteFile(ts.fs, path, data, 0600); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	return nil
}

// ReadFile loads a file under the temp root into memory.
func (ts *TempStore) ReadFile(path string) ([]byte, error) {
	if !ts.owns(path) {
		return nil, fmt.Errorf("path %s is outside the temp root", path)
	}
	data, err := afero.ReadFile(ts.fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read temp file: %w", err)
	}
	return data, nil
}

// SweepStale removes every regular file whose modification time is more than
// maxAge in the past. Younger files may belong to in-flight jobs and are
// always left alone. It returns the number of files removed.
func (ts *TempStore) SweepStale(maxAge time.Duration) (int, error) {
	cutoff := ts.now().Add(-maxAge)
	return ts.sweep(func(info os.FileInfo) bool {
		return info.ModTime().Before(cutoff)
	})
}

// SweepAll removes every regular file in the temp root.
func (ts *TempStore) SweepAll() (int, error) {
	return ts.sweep(func(os.FileInfo) bool { return true })
}

// Count returns the number of regular files in the temp root.
func (ts *TempStore) Count() (int, error) {
	entries, err := afero.ReadDir(ts.fs, ts.basePath)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to list temp directory: %w", err)
	}

	n := 0
	for _, e := range entries {
		if e.Mode().IsRegular() {
			n++
		}
	}
	return n, nil
}

func (ts *TempStore) sweep(match func(os.FileInfo) bool) (int, error) {
	entries, err := afero.ReadDir(ts.fs, ts.basePath)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to list temp directory: %w", err)
	}

	removed := 0
	for _, info := range entries {
		if !info.Mode().IsRegular() || !match(info) {
			continue
		}
		path := filepath.Join(ts.basePath, info.Name())
		if err := ts.fs.Remove(path); err != nil && !os.IsNotExist(err) {
			slog.Error("failed to delete temp file", "path", path, "error", err)
			continue
		}
		removed++
	}
	return removed, nil
}

func (ts *TempStore) owns(path string) bool {
	rel, err := filepath.Rel(ts.basePath, filepath.Clean(path))
	if err != nil {
		return false
	}
	return rel != "." && filepath.Dir(rel) == "." && rel != ".."
}
