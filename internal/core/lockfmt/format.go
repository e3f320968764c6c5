// Package lockfmt implements the binary lockfile codec.
//
// Layout (all integers little-endian):
//
//	header          140 bytes
//	index           16 bytes per package: xxhash64(name), absolute entry offset
//	entries         52 bytes per package
//	string table    NUL-terminated strings, referenced by sequential index
//	dependency refs u32 string refs, one run per package
//	conflicts       u32 length + deterministic CBOR (optional)
package lockfmt

import (
	"encoding/binary"
	"encoding/hex"

	"go.trai.ch/pinlock/internal/core/domain"
	"go.trai.ch/zerr"
)

// Magic identifies pinlock files.
var Magic = [4]byte{'P', 'L', 'C', 'K'}

const (
	// VersionMajor is the format major version. Readers reject other majors.
	VersionMajor uint32 = 1
	// VersionMinor is the format minor version. Minor bumps stay readable.
	VersionMinor uint32 = 0

	// HeaderSize is the size of the header in bytes.
	HeaderSize = 4 + 4 + 4 + 8 + 8 + 8 + 8 + 8*domain.MaxReplicas + 32 // 140 bytes
	// IndexEntrySize is the size of one index entry in bytes.
	IndexEntrySize = 8 + 8
	// EntrySize is the size of one package entry in bytes.
	EntrySize = 4 + 4 + domain.IntegritySize + 4 + 4 + 2 + 2 // 52 bytes
	// DependencyRefSize is the size of one dependency reference in bytes.
	DependencyRefSize = 4
)

// Entry flags.
const (
	FlagWorkspace  uint16 = 1 << 0
	FlagBrokenEdge uint16 = 1 << 1
)

// Header is the fixed-size record at the start of every lockfile.
// Offsets are absolute; zero means the section is absent.
type Header struct {
	Magic           [4]byte
	Version         uint32
	PackageCount    uint32
	IndexOffset     uint64
	EntriesOffset   uint64
	ConflictsOffset uint64
	HoistingOffset  uint64
	VectorClock     [domain.MaxReplicas]uint64
	ContentHash     [32]byte
}

// PackVersion combines a major and minor format version.
func PackVersion(major, minor uint32) uint32 {
	return major<<16 | minor&0xffff
}

// Major returns the format major version.
func (h Header) Major() uint32 {
	return h.Version >> 16
}

// Minor returns the format minor version.
func (h Header) Minor() uint32 {
	return h.Version & 0xffff
}

// EncodeHeader writes a header to a byte slice.
func EncodeHeader(h Header) []byte {
	buf := make([]byte, HeaderSize)
	putHeader(buf, h)
	return buf
}

func putHeader(buf []byte, h Header) {
	copy(buf[0:4], h.Magic[:])
	binary.LittleEndian.PutUint32(buf[4:8], h.Version)
	binary.LittleEndian.PutUint32(buf[8:12], h.PackageCount)
	binary.LittleEndian.PutUint64(buf[12:20], h.IndexOffset)
	binary.LittleEndian.PutUint64(buf[20:28], h.EntriesOffset)
	binary.LittleEndian.PutUint64(buf[28:36], h.ConflictsOffset)
	binary.LittleEndian.PutUint64(buf[36:44], h.HoistingOffset)
	for i, c := range h.VectorClock {
		off := 44 + 8*i
		binary.LittleEndian.PutUint64(buf[off:off+8], c)
	}
	copy(buf[108:140], h.ContentHash[:])
}

// DecodeHeader reads a header from a byte slice. It only checks the length.
func DecodeHeader(buf []byte) (Header, error) {
	if len(buf) < HeaderSize {
		return Header{}, corrupted("buffer shorter than header", "size", len(buf))
	}

	var h Header
	copy(h.Magic[:], buf[0:4])
	h.Version = binary.LittleEndian.Uint32(buf[4:8])
	h.PackageCount = binary.LittleEndian.Uint32(buf[8:12])
	h.IndexOffset = binary.LittleEndian.Uint64(buf[12:20])
	h.EntriesOffset = binary.LittleEndian.Uint64(buf[20:28])
	h.ConflictsOffset = binary.LittleEndian.Uint64(buf[28:36])
	h.HoistingOffset = binary.LittleEndian.Uint64(buf[36:44])
	for i := range h.VectorClock {
		off := 44 + 8*i
		h.VectorClock[i] = binary.LittleEndian.Uint64(buf[off : off+8])
	}
	copy(h.ContentHash[:], buf[108:140])
	return h, nil
}

// ValidateMagic checks the format tag.
func (h Header) ValidateMagic() error {
	if h.Magic != Magic {
		return zerr.With(
			zerr.Wrap(domain.ErrInvalidMagic, "not a pinlock file"),
			"found", hex.EncodeToString(h.Magic[:]),
		)
	}
	return nil
}

// ValidateVersion rejects unknown major versions.
func (h Header) ValidateVersion() error {
	if h.Major() != VersionMajor {
		err := zerr.Wrap(domain.ErrUnsupportedVersion, "cannot read lockfile")
		err = zerr.With(err, "major", h.Major())
		return zerr.With(err, "minor", h.Minor())
	}
	return nil
}

func corrupted(reason string, kv ...any) error {
	err := zerr.With(zerr.Wrap(domain.ErrCorrupted, reason), "reason", reason)
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		err = zerr.With(err, key, kv[i+1])
	}
	return err
}
