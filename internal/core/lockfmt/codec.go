package lockfmt

import (
	"encoding/binary"
	"math"

	"go.trai.ch/pinlock/internal/core/domain"
	"go.trai.ch/zerr"
)

// Serialize encodes data into the binary lockfile format.
// The output is deterministic for identical input. Serialize never modifies data.
func Serialize(data domain.LockfileData) ([]byte, error) {
	clock, err := data.Clock.Array()
	if err != nil {
		return nil, err
	}

	n := len(data.Packages)
	if uint64(n) > math.MaxUint32 {
		return nil, zerr.With(zerr.Wrap(domain.ErrInvalidPackage, "too many packages"), "count", n)
	}

	// Strings are interned in two passes: (name, url) per package first,
	// then dependency names not seen yet.
	table := newStringTable()
	nameRefs := make([]uint32, n)
	urlRefs := make([]uint32, n)
	for i, p := range data.Packages {
		if err := validatePackage(p); err != nil {
			return nil, err
		}
		nameRefs[i] = table.ref(p.Name.String())
		urlRefs[i] = table.ref(p.TarballURL)
	}
	depRefs := make([][]uint32, n)
	for i, p := range data.Packages {
		for _, d := range p.Dependencies {
			depRefs[i] = append(depRefs[i], table.ref(d.String()))
		}
	}

	var conflicts []byte
	if len(data.Conflicts) > 0 {
		if conflicts, err = encodeConflicts(data.Conflicts); err != nil {
			return nil, err
		}
	}

	var (
		indexOffset   = uint64(HeaderSize)
		entriesOffset = indexOffset + uint64(n)*IndexEntrySize
		stringsOffset = entriesOffset + uint64(n)*EntrySize
		depsOffset    = stringsOffset + uint64(table.size)
	)
	totalDeps := 0
	for _, refs := range depRefs {
		totalDeps += len(refs)
	}
	conflictsOffset := depsOffset + uint64(totalDeps)*DependencyRefSize
	size := conflictsOffset
	if len(conflicts) > 0 {
		size += 4 + uint64(len(conflicts))
	}
	if size > math.MaxUint32 {
		return nil, zerr.With(zerr.Wrap(domain.ErrInvalidPackage, "lockfile exceeds 4 GiB"), "size", size)
	}

	buf := make([]byte, HeaderSize, size)

	for i, p := range data.Packages {
		var rec [IndexEntrySize]byte
		binary.LittleEndian.PutUint64(rec[0:8], NameHash(p.Name.String()))
		binary.LittleEndian.PutUint64(rec[8:16], entriesOffset+uint64(i)*EntrySize)
		buf = append(buf, rec[:]...)
	}

	next := depsOffset
	for i, p := range data.Packages {
		var rec [EntrySize]byte
		binary.LittleEndian.PutUint32(rec[0:4], nameRefs[i])
		binary.LittleEndian.PutUint32(rec[4:8], p.Version.Pack())
		copy(rec[8:40], p.Integrity[:])
		binary.LittleEndian.PutUint32(rec[40:44], urlRefs[i])
		if len(depRefs[i]) > 0 {
			binary.LittleEndian.PutUint32(rec[44:48], uint32(next))
			next += uint64(len(depRefs[i])) * DependencyRefSize
		}
		binary.LittleEndian.PutUint16(rec[48:50], uint16(len(depRefs[i])))
		binary.LittleEndian.PutUint16(rec[50:52], flagsOf(p))
		buf = append(buf, rec[:]...)
	}

	buf = table.appendTo(buf)

	for _, refs := range depRefs {
		for _, r := range refs {
			buf = binary.LittleEndian.AppendUint32(buf, r)
		}
	}

	h := Header{
		Magic:        Magic,
		Version:      PackVersion(VersionMajor, VersionMinor),
		PackageCount: uint32(n),
		VectorClock:  clock,
	}
	if n > 0 {
		h.IndexOffset = indexOffset
		h.EntriesOffset = entriesOffset
	}
	if len(conflicts) > 0 {
		h.ConflictsOffset = conflictsOffset
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(conflicts)))
		buf = append(buf, conflicts...)
	}

	// The header goes in last, once the body hash is known.
	h.ContentHash = ContentHash(buf[HeaderSize:])
	putHeader(buf[:HeaderSize], h)

	return buf, nil
}

func validatePackage(p domain.PackageResolution) error {
	name := p.Name.String()
	switch {
	case name == "":
		return zerr.Wrap(domain.ErrInvalidPackage, "package name is empty")
	case !validString(name) || !validString(p.TarballURL):
		return zerr.With(zerr.Wrap(domain.ErrInvalidPackage, "strings must not contain NUL"), "package", name)
	case !p.Version.Fits():
		err := zerr.With(zerr.Wrap(domain.ErrInvalidPackage, "version does not fit packed layout"), "package", name)
		return zerr.With(err, "version", p.Version.String())
	case len(p.Dependencies) > math.MaxUint16:
		return zerr.With(zerr.Wrap(domain.ErrInvalidPackage, "too many dependencies"), "package", name)
	}
	for _, d := range p.Dependencies {
		if d.String() == "" || !validString(d.String()) {
			return zerr.With(zerr.Wrap(domain.ErrInvalidPackage, "invalid dependency name"), "package", name)
		}
	}
	return nil
}

// Deserialize decodes a binary lockfile. Any inconsistency aborts the whole decode.
func Deserialize(b []byte) (domain.LockfileData, error) {
	h, err := DecodeHeader(b)
	if err != nil {
		return domain.LockfileData{}, err
	}
	if err := h.ValidateMagic(); err != nil {
		return domain.LockfileData{}, err
	}
	if err := h.ValidateVersion(); err != nil {
		return domain.LockfileData{}, err
	}
	if ContentHash(b[HeaderSize:]) != h.ContentHash {
		return domain.LockfileData{}, corrupted("content hash mismatch")
	}

	d := &decoder{buf: b, header: h}
	return d.decode()
}

type decoder struct {
	buf    []byte
	header Header
}

func (d *decoder) decode() (domain.LockfileData, error) {
	h := d.header
	n := uint64(h.PackageCount)
	size := uint64(len(d.buf))

	data := domain.LockfileData{
		Packages: make([]domain.PackageResolution, 0, min(n, size/EntrySize)),
		Clock:    domain.VectorClockFromArray(h.VectorClock),
	}

	stringsOffset := uint64(HeaderSize)
	if n > 0 {
		if !d.inBounds(h.IndexOffset, n*IndexEntrySize) {
			return domain.LockfileData{}, corrupted("index section out of bounds", "offset", h.IndexOffset)
		}
		if !d.inBounds(h.EntriesOffset, n*EntrySize) {
			return domain.LockfileData{}, corrupted("entries section out of bounds", "offset", h.EntriesOffset)
		}
		stringsOffset = h.EntriesOffset + n*EntrySize
	}

	// The string table ends where the first dependency list or the conflicts section begins.
	stringsEnd := size
	if h.ConflictsOffset != 0 {
		if h.ConflictsOffset < stringsOffset || h.ConflictsOffset > size {
			return domain.LockfileData{}, corrupted("conflicts offset out of bounds", "offset", h.ConflictsOffset)
		}
		stringsEnd = h.ConflictsOffset
	}
	entries := make([][]byte, n)
	for i := range n {
		off := h.EntriesOffset + i*EntrySize
		entries[i] = d.buf[off : off+EntrySize]
		depsOffset := uint64(binary.LittleEndian.Uint32(entries[i][44:48]))
		depsCount := binary.LittleEndian.Uint16(entries[i][48:50])
		if depsCount > 0 && depsOffset < stringsEnd {
			if depsOffset < stringsOffset {
				return domain.LockfileData{}, corrupted("dependency list overlaps entries", "offset", depsOffset)
			}
			stringsEnd = depsOffset
		}
	}

	table, err := readStringTable(d.buf[stringsOffset:stringsEnd])
	if err != nil {
		return domain.LockfileData{}, err
	}
	lookup := func(ref uint32, field string) (string, error) {
		if uint64(ref) >= uint64(len(table)) {
			return "", corrupted("string ref out of range", "field", field, "ref", ref)
		}
		return table[ref], nil
	}

	for i := range n {
		idx := h.IndexOffset + i*IndexEntrySize
		hash := binary.LittleEndian.Uint64(d.buf[idx : idx+8])
		target := binary.LittleEndian.Uint64(d.buf[idx+8 : idx+16])
		if target != h.EntriesOffset+i*EntrySize {
			return domain.LockfileData{}, corrupted("index entry points outside entries", "index", i)
		}

		rec := entries[i]
		name, err := lookup(binary.LittleEndian.Uint32(rec[0:4]), "name")
		if err != nil {
			return domain.LockfileData{}, err
		}
		if NameHash(name) != hash {
			return domain.LockfileData{}, corrupted("index hash does not match entry name", "package", name)
		}
		url, err := lookup(binary.LittleEndian.Uint32(rec[40:44]), "url")
		if err != nil {
			return domain.LockfileData{}, err
		}

		p := domain.PackageResolution{
			Name:       domain.NewPackageName(name),
			Version:    domain.UnpackVersion(binary.LittleEndian.Uint32(rec[4:8])),
			TarballURL: url,
		}
		copy(p.Integrity[:], rec[8:40])
		applyFlags(&p, binary.LittleEndian.Uint16(rec[50:52]))

		depsOffset := uint64(binary.LittleEndian.Uint32(rec[44:48]))
		depsCount := uint64(binary.LittleEndian.Uint16(rec[48:50]))
		p.Dependencies = make([]domain.PackageName, 0, depsCount)
		if depsCount > 0 {
			end := size
			if h.ConflictsOffset != 0 {
				end = h.ConflictsOffset
			}
			if depsOffset+depsCount*DependencyRefSize > end {
				return domain.LockfileData{}, corrupted("dependency list out of bounds", "package", name)
			}
			for j := range depsCount {
				off := depsOffset + j*DependencyRefSize
				dep, err := lookup(binary.LittleEndian.Uint32(d.buf[off:off+4]), "dependency")
				if err != nil {
					return domain.LockfileData{}, err
				}
				p.Dependencies = append(p.Dependencies, domain.NewPackageName(dep))
			}
		}

		data.Packages = append(data.Packages, p)
	}

	if h.ConflictsOffset != 0 {
		conflicts, err := d.conflicts()
		if err != nil {
			return domain.LockfileData{}, err
		}
		data.Conflicts = conflicts
	}

	return data, nil
}

func (d *decoder) conflicts() ([]domain.Conflict, error) {
	off := d.header.ConflictsOffset
	if !d.inBounds(off, 4) {
		return nil, corrupted("conflicts header out of bounds", "offset", off)
	}
	length := uint64(binary.LittleEndian.Uint32(d.buf[off : off+4]))
	if !d.inBounds(off+4, length) {
		return nil, corrupted("conflicts section truncated", "length", length)
	}
	return decodeConflicts(d.buf[off+4 : off+4+length])
}

// inBounds reports whether [off, off+length) lies after the header and within the buffer.
func (d *decoder) inBounds(off, length uint64) bool {
	size := uint64(len(d.buf))
	if off < HeaderSize || off > size {
		return false
	}
	return length <= size-off
}
