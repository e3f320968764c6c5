package domain

import (
	"slices"
	"strings"
)

// LockfileData is the in-memory representation of a lockfile before serialization.
// It is only mutated through Merge, Retain and Sort; serialization never changes it.
type LockfileData struct {
	// Packages are the resolved packages, in list order.
	Packages []PackageResolution

	// Clock is the causal history of the writers that produced this data.
	Clock VectorClock

	// Conflicts are concurrent writes surfaced by previous merges and not yet resolved.
	Conflicts []Conflict
}

// NewLockfileData creates lockfile data from packages, sorted by name, with an empty clock.
func NewLockfileData(packages ...PackageResolution) LockfileData {
	d := LockfileData{
		Packages: slices.Clone(packages),
		Clock:    NewVectorClock(),
	}
	d.Sort()
	return d
}

// Lookup finds a package by its stored name with a linear scan.
// Hot paths should build an index instead (see the resolver engine).
func (d *LockfileData) Lookup(name string) (PackageResolution, bool) {
	for _, p := range d.Packages {
		if p.Name.String() == name {
			return p, true
		}
	}
	return PackageResolution{}, false
}

// Names returns the package names in list order.
func (d *LockfileData) Names() []string {
	names := make([]string, len(d.Packages))
	for i, p := range d.Packages {
		names[i] = p.Name.String()
	}
	return names
}

// Sort orders packages by name.
func (d *LockfileData) Sort() {
	slices.SortStableFunc(d.Packages, func(a, b PackageResolution) int {
		return strings.Compare(a.Name.String(), b.Name.String())
	})
}

// Retain drops every package whose name is not in keep, along with conflicts about those packages.
func (d *LockfileData) Retain(keep []string) {
	set := make(map[string]struct{}, len(keep))
	for _, k := range keep {
		set[k] = struct{}{}
	}
	d.Packages = slices.DeleteFunc(d.Packages, func(p PackageResolution) bool {
		_, ok := set[p.Name.String()]
		return !ok
	})
	d.Conflicts = slices.DeleteFunc(d.Conflicts, func(c Conflict) bool {
		_, ok := set[c.Name]
		return !ok
	})
}

// ClearConflicts drops recorded conflicts for the given names.
func (d *LockfileData) ClearConflicts(names []string) {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	d.Conflicts = slices.DeleteFunc(d.Conflicts, func(c Conflict) bool {
		_, ok := set[c.Name]
		return ok
	})
}

// Merge joins other into the receiver.
//
// Packages are unioned by name. When both sides hold different content for the same
// name, the causally newer side wins. If the clocks are equal or concurrent, the
// write is a true conflict: a deterministic winner is kept and the conflict is returned
// and recorded, so merging in either direction yields the same packages and conflicts.
// Clocks are joined component-wise.
func (d *LockfileData) Merge(other LockfileData) []Conflict {
	ord := d.Clock.Compare(other.Clock)

	merged := make(map[string]PackageResolution, len(d.Packages)+len(other.Packages))
	for _, p := range d.Packages {
		merged[p.Name.String()] = p
	}

	var conflicts []Conflict
	for _, theirs := range other.Packages {
		key := theirs.Name.String()
		ours, ok := merged[key]
		if !ok {
			merged[key] = theirs
			continue
		}
		if ours.Equal(theirs) {
			continue
		}

		switch ord {
		case Before:
			merged[key] = theirs
		case After:
			// Ours already supersedes theirs.
		default:
			kept, discarded := ours, theirs
			if compareResolution(theirs, ours) > 0 {
				kept, discarded = theirs, ours
			}
			merged[key] = kept
			conflicts = append(conflicts, Conflict{Name: key, Kept: kept, Discarded: discarded})
		}
	}

	packages := make([]PackageResolution, 0, len(merged))
	for _, p := range merged {
		packages = append(packages, p)
	}
	d.Packages = packages
	d.Sort()

	d.Clock.Merge(other.Clock)
	conflicts = mergeConflicts(conflicts)
	d.Conflicts = mergeConflicts(d.Conflicts, other.Conflicts, conflicts)

	return conflicts
}

// Clone returns a deep copy.
func (d *LockfileData) Clone() LockfileData {
	out := LockfileData{
		Packages:  make([]PackageResolution, len(d.Packages)),
		Clock:     d.Clock.Clone(),
		Conflicts: slices.Clone(d.Conflicts),
	}
	for i, p := range d.Packages {
		p.Dependencies = slices.Clone(p.Dependencies)
		out.Packages[i] = p
	}
	return out
}
