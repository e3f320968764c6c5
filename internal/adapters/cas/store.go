// Package cas implements a content-addressed history of written lockfiles.
package cas

import (
	"cmp"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/zeebo/blake3"
	"go.trai.ch/pinlock/internal/core/domain"
	"go.trai.ch/zerr"
)

// IndexFile is the name of the snapshot index inside the history directory.
const IndexFile = "history.json"

const snapshotExt = ".zst"

var (
	encoder *zstd.Encoder
	decoder *zstd.Decoder
)

func init() {
	var err error
	encoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("cas: zstd encoder initialization failed: " + err.Error())
	}
	decoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("cas: zstd decoder initialization failed: " + err.Error())
	}
}

// Store implements ports.HistoryStore. Snapshots are zstd-compressed and keyed
// by the BLAKE3 digest of the uncompressed lockfile.
type Store struct {
	dir   string
	mu    sync.RWMutex
	cache map[string]domain.Snapshot
	now   func() time.Time
}

// NewStore opens the history kept in dir. The directory is created on first write.
func NewStore(dir string) (*Store, error) {
	s := &Store{
		dir:   filepath.Clean(dir),
		cache: make(map[string]domain.Snapshot),
		now:   time.Now,
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Digest returns the hex BLAKE3 digest identifying data in the store.
func Digest(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func (s *Store) indexPath() string {
	return filepath.Join(s.dir, IndexFile)
}

func (s *Store) blobPath(digest string) string {
	return filepath.Join(s.dir, digest+snapshotExt)
}

func (s *Store) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.indexPath())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return zerr.Wrap(err, "failed to read history index")
	}

	if len(data) == 0 {
		return nil
	}

	if err := json.Unmarshal(data, &s.cache); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to unmarshal history index"), "path", s.indexPath())
	}
	return nil
}

// save must be called with mu held for writing.
func (s *Store) save() error {
	data, err := json.MarshalIndent(s.cache, "", "  ")
	if err != nil {
		return zerr.Wrap(err, "failed to marshal history index")
	}

	//nolint:gosec // Path is cleaned and provided by trusted caller
	if err := os.WriteFile(s.indexPath(), data, 0o644); err != nil {
		return zerr.Wrap(err, "failed to write history index")
	}
	return nil
}

// Put stores a snapshot of data. Storing identical bytes again returns the existing snapshot.
func (s *Store) Put(lockfile string, data []byte, packages int, clock string) (domain.Snapshot, error) {
	digest := Digest(data)

	s.mu.Lock()
	defer s.mu.Unlock()

	if snap, ok := s.cache[digest]; ok {
		return snap, nil
	}

	if err := os.MkdirAll(s.dir, 0o750); err != nil {
		return domain.Snapshot{}, zerr.Wrap(err, "failed to create history directory")
	}

	blob := encoder.EncodeAll(data, nil)
	//nolint:gosec // Path is derived from a hex digest
	if err := os.WriteFile(s.blobPath(digest), blob, 0o644); err != nil {
		return domain.Snapshot{}, zerr.Wrap(err, "failed to write snapshot")
	}

	snap := domain.Snapshot{
		Digest:    digest,
		Lockfile:  lockfile,
		Packages:  packages,
		Clock:     clock,
		Size:      len(data),
		Timestamp: s.now().UTC(),
	}
	s.cache[digest] = snap

	if err := s.save(); err != nil {
		delete(s.cache, digest)
		return domain.Snapshot{}, err
	}
	return snap, nil
}

// Get returns the snapshot whose digest starts with prefix, with its decompressed bytes.
func (s *Store) Get(prefix string) (domain.Snapshot, []byte, error) {
	snap, err := s.find(strings.ToLower(prefix))
	if err != nil {
		return domain.Snapshot{}, nil, err
	}

	blob, err := os.ReadFile(s.blobPath(snap.Digest))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.Snapshot{}, nil, zerr.With(zerr.Wrap(domain.ErrSnapshotNotFound, "snapshot blob is missing"), "digest", snap.Digest)
		}
		return domain.Snapshot{}, nil, zerr.Wrap(err, "failed to read snapshot")
	}

	data, err := decoder.DecodeAll(blob, nil)
	if err != nil {
		return domain.Snapshot{}, nil, zerr.With(zerr.Wrap(err, "failed to decompress snapshot"), "digest", snap.Digest)
	}
	if Digest(data) != snap.Digest {
		err := zerr.With(zerr.Wrap(domain.ErrCorrupted, "snapshot digest mismatch"), "digest", snap.Digest)
		return domain.Snapshot{}, nil, zerr.With(err, "reason", "history blob does not match its digest")
	}
	return snap, data, nil
}

func (s *Store) find(prefix string) (domain.Snapshot, error) {
	if prefix == "" {
		return domain.Snapshot{}, zerr.Wrap(domain.ErrSnapshotNotFound, "empty digest")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var matches []domain.Snapshot
	for digest, snap := range s.cache {
		if strings.HasPrefix(digest, prefix) {
			matches = append(matches, snap)
		}
	}

	switch len(matches) {
	case 0:
		return domain.Snapshot{}, zerr.With(zerr.Wrap(domain.ErrSnapshotNotFound, "no snapshot matches digest"), "digest", prefix)
	case 1:
		return matches[0], nil
	default:
		err := zerr.With(zerr.Wrap(domain.ErrSnapshotNotFound, "digest prefix is ambiguous"), "digest", prefix)
		return domain.Snapshot{}, zerr.With(err, "matches", len(matches))
	}
}

// List returns every snapshot, newest first.
func (s *Store) List() ([]domain.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Snapshot, 0, len(s.cache))
	for _, snap := range s.cache {
		out = append(out, snap)
	}
	slices.SortFunc(out, func(a, b domain.Snapshot) int {
		if c := b.Timestamp.Compare(a.Timestamp); c != 0 {
			return c
		}
		return cmp.Compare(a.Digest, b.Digest)
	})
	return out, nil
}
