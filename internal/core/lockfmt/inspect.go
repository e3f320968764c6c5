package lockfmt

import (
	"go.trai.ch/pinlock/internal/core/domain"
)

// Report summarizes the integrity of a lockfile buffer without failing.
type Report struct {
	Size            int
	MagicValid      bool
	Major           uint32
	Minor           uint32
	PackageCount    uint32
	IndexOffset     uint64
	EntriesOffset   uint64
	ConflictsOffset uint64
	Clock           domain.VectorClock
	StoredHash      [32]byte
	ComputedHash    [32]byte
	ConflictCount   int
	Err             error
}

// HashMatches reports whether the stored content hash matches the body.
func (r Report) HashMatches() bool {
	return r.Size >= HeaderSize && r.StoredHash == r.ComputedHash
}

// OK reports whether the buffer decoded cleanly.
func (r Report) OK() bool {
	return r.Err == nil
}

// Inspect decodes as much of b as it can and records the first error.
func Inspect(b []byte) Report {
	r := Report{Size: len(b)}

	h, err := DecodeHeader(b)
	if err != nil {
		r.Err = err
		return r
	}

	r.MagicValid = h.ValidateMagic() == nil
	r.Major, r.Minor = h.Major(), h.Minor()
	r.PackageCount = h.PackageCount
	r.IndexOffset = h.IndexOffset
	r.EntriesOffset = h.EntriesOffset
	r.ConflictsOffset = h.ConflictsOffset
	r.Clock = domain.VectorClockFromArray(h.VectorClock)
	r.StoredHash = h.ContentHash
	r.ComputedHash = ContentHash(b[HeaderSize:])

	data, err := Deserialize(b)
	if err != nil {
		r.Err = err
		return r
	}
	r.ConflictCount = len(data.Conflicts)
	return r
}
