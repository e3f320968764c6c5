// Package resolver implements constant-time package resolution over a loaded lockfile.
package resolver

import (
	"sync"

	"go.trai.ch/pinlock/internal/core/domain"
	"go.trai.ch/pinlock/internal/core/lockfmt"
	"go.trai.ch/zerr"
)

// Resolver indexes a lockfile by package name.
// Workspace packages live in a separate namespace that callers populate explicitly.
type Resolver struct {
	mu        sync.RWMutex
	data      domain.LockfileData
	index     map[string]int
	workspace map[string]domain.Version
}

// New creates an empty Resolver.
func New() *Resolver {
	return &Resolver{
		index:     make(map[string]int),
		workspace: make(map[string]domain.Version),
	}
}

// LoadFromBytes decodes a binary lockfile and rebuilds the index.
// The previous index is always discarded, even if decoding fails.
func (r *Resolver) LoadFromBytes(b []byte) error {
	data, err := lockfmt.Deserialize(b)
	if err != nil {
		r.Load(domain.LockfileData{})
		return zerr.Wrap(err, "failed to load lockfile")
	}
	r.Load(data)
	return nil
}

// Load indexes already-decoded lockfile data in a single linear pass.
func (r *Resolver) Load(data domain.LockfileData) {
	index := make(map[string]int, len(data.Packages))
	for i, p := range data.Packages {
		index[p.Name.String()] = i
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.data = data
	r.index = index
}

// Resolve looks up a package by its name as stored. A miss is not an error.
func (r *Resolver) Resolve(name string) (domain.PackageResolution, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i, ok := r.index[name]
	if !ok {
		return domain.PackageResolution{}, false
	}
	return r.data.Packages[i], true
}

// RegisterWorkspacePackage records a workspace-local package version.
func (r *Resolver) RegisterWorkspacePackage(name string, v domain.Version) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.workspace[name] = v
}

// ResolveWorkspace looks up a workspace-local package.
func (r *Resolver) ResolveWorkspace(name string) (domain.Version, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.workspace[name]
	return v, ok
}

// Len returns the number of indexed packages.
func (r *Resolver) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.data.Packages)
}

// Packages returns the loaded packages in lockfile order.
func (r *Resolver) Packages() []domain.PackageResolution {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.PackageResolution, len(r.data.Packages))
	copy(out, r.data.Packages)
	return out
}

// Data returns the loaded lockfile data.
func (r *Resolver) Data() domain.LockfileData {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.data.Clone()
}
