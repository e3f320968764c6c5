// Package fs provides file system adapters: lockfile storage, advisory locking and archive hashing.
package fs

import (
	"crypto/sha512"
	"io"
	"os"

	"go.trai.ch/pinlock/internal/core/domain"
	"go.trai.ch/pinlock/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Hasher = (*Hasher)(nil)

// Hasher computes package integrity digests: SHA-512 truncated to 32 bytes.
type Hasher struct {
	walker *Walker
}

// NewHasher creates a new Hasher.
func NewHasher(walker *Walker) *Hasher {
	return &Hasher{walker: walker}
}

// HashFile computes the integrity digest of a single archive.
func (h *Hasher) HashFile(path string) ([domain.IntegritySize]byte, error) {
	var out [domain.IntegritySize]byte

	f, err := os.Open(path) //nolint:gosec // Path is controlled by caller
	if err != nil {
		return out, zerr.With(zerr.Wrap(err, "failed to open file"), "path", path)
	}
	defer f.Close() //nolint:errcheck // Best effort close in defer

	hasher := sha512.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return out, zerr.With(zerr.Wrap(err, "failed to hash file content"), "path", path)
	}

	copy(out[:], hasher.Sum(nil))
	return out, nil
}

// HashDir computes the integrity digest of every archive under root.
func (h *Hasher) HashDir(root string) ([]domain.FileDigest, error) {
	var out []domain.FileDigest
	for path, err := range h.walker.WalkArchives(root) {
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, "failed to walk directory"), "root", root)
		}
		sum, err := h.HashFile(path)
		if err != nil {
			return nil, err
		}
		out = append(out, domain.FileDigest{Path: path, Integrity: sum})
	}
	return out, nil
}
