package ports

import (
	"context"

	"go.trai.ch/pinlock/internal/core/domain"
)

// LockfileStore defines the interface for reading and writing lockfile bytes.
//
//go:generate mockgen -source=store.go -destination=mocks/mock_store.go -package=mocks
type LockfileStore interface {
	// Read returns the file contents. The boolean is false if the file does not exist.
	Read(path string) ([]byte, bool, error)

	// Write replaces the file atomically.
	Write(path string, data []byte) error

	// Lock takes an exclusive advisory lock for a read-merge-write cycle on path.
	// The returned function releases it.
	Lock(ctx context.Context, path string) (func() error, error)
}

// HistoryStore keeps compressed snapshots of every lockfile written.
type HistoryStore interface {
	// Put stores a snapshot. Storing identical bytes twice is a no-op.
	Put(lockfile string, data []byte, packages int, clock string) (domain.Snapshot, error)

	// Get returns the snapshot whose digest starts with prefix.
	Get(prefix string) (domain.Snapshot, []byte, error)

	// List returns all snapshots, newest first.
	List() ([]domain.Snapshot, error)
}
