package fs

import (
	"errors"
	iofs "io/fs"
	"os"
	"path/filepath"

	"go.trai.ch/pinlock/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.LockfileStore = (*Store)(nil)

// LockSuffix is appended to a lockfile path to name its advisory lock file.
const LockSuffix = ".lk"

// Store implements ports.LockfileStore on the local file system.
type Store struct{}

// NewStore creates a new Store.
func NewStore() *Store {
	return &Store{}
}

// Read returns the contents of path. A missing file is not an error.
func (s *Store) Read(path string) ([]byte, bool, error) {
	data, err := os.ReadFile(path) //nolint:gosec // Path is provided by the user
	if err != nil {
		if errors.Is(err, iofs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, zerr.With(zerr.Wrap(err, "failed to read lockfile"), "path", path)
	}
	return data, true, nil
}

// Write replaces path atomically: the data goes to a temporary file in the same
// directory, is synced, and is then renamed over the target.
func (s *Store) Write(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to create lockfile directory"), "path", path)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to create temporary lockfile"), "path", path)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return zerr.With(zerr.Wrap(err, "failed to write temporary lockfile"), "path", tmpPath)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return zerr.With(zerr.Wrap(err, "failed to sync temporary lockfile"), "path", tmpPath)
	}
	if err := tmp.Close(); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to close temporary lockfile"), "path", tmpPath)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil { //nolint:gosec // Lockfiles are meant to be committed and shared
		return zerr.With(zerr.Wrap(err, "failed to set lockfile permissions"), "path", tmpPath)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to replace lockfile"), "path", path)
	}
	committed = true
	return nil
}
