package lockfmt

import (
	"github.com/cespare/xxhash/v2"
	"github.com/zeebo/blake3"
)

// NameHash is the index hash of a package name.
// It is a fast non-cryptographic hash used only to build the index; never use it for verification.
func NameHash(name string) uint64 {
	return xxhash.Sum64String(name)
}

// ContentHash is the BLAKE3-256 digest of a lockfile body.
func ContentHash(body []byte) [32]byte {
	return blake3.Sum256(body)
}
