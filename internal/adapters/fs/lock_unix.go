//go:build unix

package fs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"go.trai.ch/zerr"
	"golang.org/x/sys/unix"
)

// lockPollInterval is how often a contended lock is retried.
const lockPollInterval = 25 * time.Millisecond

// Lock takes an exclusive flock on path+LockSuffix, waiting until it is
// available or ctx is done. The returned function releases it.
func (s *Store) Lock(ctx context.Context, path string) (func() error, error) {
	lockPath := path + LockSuffix
	if err := os.MkdirAll(filepath.Dir(lockPath), 0o750); err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to create lock directory"), "path", lockPath)
	}

	//nolint:gosec // Path is derived from the lockfile path
	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to open lock file"), "path", lockPath)
	}

	ticker := time.NewTicker(lockPollInterval)
	defer ticker.Stop()

	for {
		err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB)
		if err == nil {
			break
		}
		if !errors.Is(err, unix.EWOULDBLOCK) && !errors.Is(err, unix.EINTR) {
			_ = f.Close()
			return nil, zerr.With(zerr.Wrap(err, "failed to lock"), "path", lockPath)
		}
		select {
		case <-ctx.Done():
			_ = f.Close()
			return nil, zerr.With(zerr.Wrap(ctx.Err(), "lockfile is held by another process"), "path", lockPath)
		case <-ticker.C:
		}
	}

	return func() error {
		unlockErr := unix.Flock(int(f.Fd()), unix.LOCK_UN)
		closeErr := f.Close()
		if unlockErr != nil {
			return zerr.With(zerr.Wrap(unlockErr, "failed to unlock"), "path", lockPath)
		}
		return closeErr
	}, nil
}
