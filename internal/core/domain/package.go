package domain

import (
	"bytes"
	"cmp"
	"slices"
	"strings"
)

// IntegritySize is the length of a package integrity digest.
const IntegritySize = 32

// PackageResolution is the decided resolution of a single package.
type PackageResolution struct {
	// Name is the lower-cased package name.
	Name PackageName

	// Version is the resolved version.
	Version Version

	// Integrity is the content hash of the package tarball. The engine never interprets it.
	Integrity [IntegritySize]byte

	// TarballURL is where the package archive can be fetched from.
	TarballURL string

	// Dependencies are the direct dependencies recorded for this package.
	Dependencies []PackageName

	// Workspace marks packages resolved from local sources rather than a registry.
	Workspace bool

	// BrokenEdges marks packages that had a dependency edge removed to break a cycle.
	BrokenEdges bool
}

// Equal reports whether both resolutions carry the same content.
func (p PackageResolution) Equal(other PackageResolution) bool {
	return compareResolution(p, other) == 0
}

// DependencyNames returns the dependency names as plain strings.
func (p PackageResolution) DependencyNames() []string {
	out := make([]string, len(p.Dependencies))
	for i, d := range p.Dependencies {
		out[i] = d.String()
	}
	return out
}

// compareResolution is a total order over resolution content.
// It is used to pick the same winner regardless of merge direction.
func compareResolution(a, b PackageResolution) int {
	if c := strings.Compare(a.Name.String(), b.Name.String()); c != 0 {
		return c
	}
	if c := a.Version.Compare(b.Version); c != 0 {
		return c
	}
	if c := strings.Compare(a.TarballURL, b.TarballURL); c != 0 {
		return c
	}
	if c := bytes.Compare(a.Integrity[:], b.Integrity[:]); c != 0 {
		return c
	}
	if c := slices.Compare(a.DependencyNames(), b.DependencyNames()); c != 0 {
		return c
	}
	if c := cmp.Compare(flagRank(a), flagRank(b)); c != 0 {
		return c
	}
	return 0
}

func flagRank(p PackageResolution) int {
	r := 0
	if p.Workspace {
		r |= 1
	}
	if p.BrokenEdges {
		r |= 2
	}
	return r
}

// FileDigest is the integrity digest of an archive on disk.
type FileDigest struct {
	Path      string
	Integrity [IntegritySize]byte
}
