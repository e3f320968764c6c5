package ports

import "go.trai.ch/pinlock/internal/core/domain"

// Hasher defines the interface for computing package integrity hashes.
//
//go:generate mockgen -destination=mocks/hasher_mock.go -package=mocks -source=hasher.go
type Hasher interface {
	// HashFile computes the integrity digest of a package archive.
	HashFile(path string) ([domain.IntegritySize]byte, error)

	// HashDir computes the integrity digest of every package archive under root.
	HashDir(root string) ([]domain.FileDigest, error)
}
