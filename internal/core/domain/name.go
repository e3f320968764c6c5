package domain

import (
	"strings"
	"unique"
)

// PackageName is an interned, lower-cased package identifier.
// Package identity is case-insensitive, so "React" and "react" produce the same handle.
type PackageName struct {
	h unique.Handle[string]
}

// NewPackageName normalizes s and interns it.
func NewPackageName(s string) PackageName {
	return PackageName{
		h: unique.Make(NormalizeName(s)),
	}
}

// NormalizeName returns the canonical spelling used for graph and lockfile keys.
func NormalizeName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// String returns the underlying string value.
func (n PackageName) String() string {
	var zero unique.Handle[string]
	if n.h == zero {
		return ""
	}
	return n.h.Value()
}

// IsZero reports whether the name was never set.
func (n PackageName) IsZero() bool {
	var zero unique.Handle[string]
	return n.h == zero
}

// MarshalText implements encoding.TextMarshaler.
func (n PackageName) MarshalText() ([]byte, error) {
	return []byte(n.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (n *PackageName) UnmarshalText(text []byte) error {
	*n = NewPackageName(string(text))
	return nil
}

// PackageNames converts raw strings into normalized names.
func PackageNames(raw ...string) []PackageName {
	out := make([]PackageName, 0, len(raw))
	for _, s := range raw {
		out = append(out, NewPackageName(s))
	}
	return out
}
