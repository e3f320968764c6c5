package domain

import (
	"cmp"
	"fmt"
	"strconv"
	"strings"

	"go.trai.ch/zerr"
)

// Bit widths of the packed version word. The three fields share one uint32.
const (
	MajorBits = 12
	MinorBits = 10
	PatchBits = 10

	MaxMajor = 1<<MajorBits - 1
	MaxMinor = 1<<MinorBits - 1
	MaxPatch = 1<<PatchBits - 1
)

// Version is an already-decided (major, minor, patch) triple.
type Version struct {
	Major uint32
	Minor uint32
	Patch uint32
}

// NewVersion creates a Version.
func NewVersion(major, minor, patch uint32) Version {
	return Version{Major: major, Minor: minor, Patch: patch}
}

// ParseVersion parses "1.2.3" or "v1.2.3". Missing minor or patch components default to zero.
// Pre-release and build suffixes are not part of the packed format and are rejected.
func ParseVersion(s string) (Version, error) {
	raw := strings.TrimPrefix(strings.TrimSpace(s), "v")
	if raw == "" {
		return Version{}, zerr.With(zerr.Wrap(ErrInvalidVersion, "empty version"), "version", s)
	}

	parts := strings.Split(raw, ".")
	if len(parts) > 3 {
		return Version{}, zerr.With(zerr.Wrap(ErrInvalidVersion, "too many components"), "version", s)
	}

	var nums [3]uint32
	for i, p := range parts {
		n, err := strconv.ParseUint(p, 10, 32)
		if err != nil {
			return Version{}, zerr.With(zerr.Wrap(ErrInvalidVersion, "component is not a number"), "version", s)
		}
		nums[i] = uint32(n)
	}

	return Version{Major: nums[0], Minor: nums[1], Patch: nums[2]}, nil
}

// Fits reports whether the version can be packed without aliasing.
func (v Version) Fits() bool {
	return v.Major <= MaxMajor && v.Minor <= MaxMinor && v.Patch <= MaxPatch
}

// Pack encodes the version into a single word using the 12/10/10 layout.
// Components that do not fit are truncated; call Fits first.
func (v Version) Pack() uint32 {
	return (v.Major&MaxMajor)<<(MinorBits+PatchBits) |
		(v.Minor&MaxMinor)<<PatchBits |
		v.Patch&MaxPatch
}

// UnpackVersion decodes a packed version word.
func UnpackVersion(w uint32) Version {
	return Version{
		Major: w >> (MinorBits + PatchBits),
		Minor: (w >> PatchBits) & MaxMinor,
		Patch: w & MaxPatch,
	}
}

// Compare orders versions by major, then minor, then patch.
func (v Version) Compare(other Version) int {
	if c := cmp.Compare(v.Major, other.Major); c != 0 {
		return c
	}
	if c := cmp.Compare(v.Minor, other.Minor); c != 0 {
		return c
	}
	return cmp.Compare(v.Patch, other.Patch)
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}
