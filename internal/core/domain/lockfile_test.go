package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/pinlock/internal/core/domain"
)

func pkg(name string, major, minor, patch uint32, deps ...string) domain.PackageResolution {
	return domain.PackageResolution{
		Name:         domain.NewPackageName(name),
		Version:      domain.NewVersion(major, minor, patch),
		TarballURL:   "https://registry.example.com/" + name + ".tgz",
		Dependencies: domain.PackageNames(deps...),
	}
}

func lockfileAt(t *testing.T, counts map[domain.ReplicaID]int, packages ...domain.PackageResolution) domain.LockfileData {
	t.Helper()
	d := domain.NewLockfileData(packages...)
	d.Clock = clockOf(t, counts)
	return d
}

func TestLockfileData_MergeIdempotent(t *testing.T) {
	x := lockfileAt(t, map[domain.ReplicaID]int{0: 2}, pkg("lodash", 4, 17, 21), pkg("react", 18, 2, 0))

	m := x.Clone()
	conflicts := m.Merge(x)

	assert.Empty(t, conflicts)
	assert.Equal(t, x.Packages, m.Packages)
	assert.True(t, m.Clock.Equal(x.Clock))
}

func TestLockfileData_MergeDisjointIsMonotonic(t *testing.T) {
	a := lockfileAt(t, map[domain.ReplicaID]int{0: 1}, pkg("lodash", 4, 17, 21))
	b := lockfileAt(t, map[domain.ReplicaID]int{1: 1}, pkg("react", 18, 2, 0), pkg("scheduler", 0, 23, 0))

	before := len(a.Packages)
	conflicts := a.Merge(b)

	assert.Empty(t, conflicts)
	assert.GreaterOrEqual(t, len(a.Packages), before)
	assert.Equal(t, []string{"lodash", "react", "scheduler"}, a.Names())
	assert.Equal(t, "{0:1 1:1}", a.Clock.String())
}

func TestLockfileData_MergeCausallyNewerWins(t *testing.T) {
	older := lockfileAt(t, map[domain.ReplicaID]int{0: 1}, pkg("react", 18, 2, 0))
	newer := lockfileAt(t, map[domain.ReplicaID]int{0: 2}, pkg("react", 17, 0, 2))

	t.Run("other is newer", func(t *testing.T) {
		m := older.Clone()
		conflicts := m.Merge(newer)
		assert.Empty(t, conflicts)
		got, ok := m.Lookup("react")
		require.True(t, ok)
		assert.Equal(t, domain.NewVersion(17, 0, 2), got.Version, "a causally newer downgrade still wins")
	})

	t.Run("self is newer", func(t *testing.T) {
		m := newer.Clone()
		conflicts := m.Merge(older)
		assert.Empty(t, conflicts)
		got, ok := m.Lookup("react")
		require.True(t, ok)
		assert.Equal(t, domain.NewVersion(17, 0, 2), got.Version)
	})
}

func TestLockfileData_MergeConcurrentConflict(t *testing.T) {
	a := lockfileAt(t, map[domain.ReplicaID]int{0: 1}, pkg("react", 18, 2, 0), pkg("lodash", 4, 17, 21))
	b := lockfileAt(t, map[domain.ReplicaID]int{1: 1}, pkg("react", 18, 3, 1), pkg("lodash", 4, 17, 21))

	ab := a.Clone()
	abConflicts := ab.Merge(b)
	ba := b.Clone()
	baConflicts := ba.Merge(a)

	require.Len(t, abConflicts, 1)
	assert.Equal(t, "react", abConflicts[0].Name)
	assert.Equal(t, domain.NewVersion(18, 3, 1), abConflicts[0].Kept.Version)
	assert.Equal(t, domain.NewVersion(18, 2, 0), abConflicts[0].Discarded.Version)

	assert.Equal(t, abConflicts, baConflicts, "conflict surfacing is symmetric")
	assert.Equal(t, ab.Packages, ba.Packages, "merge is commutative")
	assert.Equal(t, ab.Conflicts, ba.Conflicts)
	assert.True(t, ab.Clock.Equal(ba.Clock))
}

func TestLockfileData_MergeEqualClocksDifferentContent(t *testing.T) {
	a := lockfileAt(t, nil, pkg("react", 18, 2, 0))
	b := lockfileAt(t, nil, pkg("react", 18, 2, 0, "loose-envify"))

	conflicts := a.Merge(b)
	require.Len(t, conflicts, 1)
	assert.Equal(t, []string{"loose-envify"}, conflicts[0].Kept.DependencyNames())
}

func TestLockfileData_MergeCarriesConflicts(t *testing.T) {
	a := lockfileAt(t, map[domain.ReplicaID]int{0: 1}, pkg("react", 18, 2, 0))
	b := lockfileAt(t, map[domain.ReplicaID]int{1: 1}, pkg("react", 18, 3, 0))
	a.Merge(b)
	require.Len(t, a.Conflicts, 1)

	again := a.Clone()
	again.Merge(a)
	assert.Len(t, again.Conflicts, 1, "recorded conflicts are deduplicated")

	again.Retain([]string{"lodash"})
	assert.Empty(t, again.Packages)
	assert.Empty(t, again.Conflicts)
}

func TestLockfileData_ClearConflicts(t *testing.T) {
	a := lockfileAt(t, map[domain.ReplicaID]int{0: 1}, pkg("react", 18, 2, 0))
	b := lockfileAt(t, map[domain.ReplicaID]int{1: 1}, pkg("react", 18, 3, 0))
	a.Merge(b)

	a.ClearConflicts([]string{"react"})
	assert.Empty(t, a.Conflicts)
	assert.Len(t, a.Packages, 1)
}

func TestLockfileData_Lookup(t *testing.T) {
	d := domain.NewLockfileData(pkg("react", 18, 2, 0), pkg("lodash", 4, 17, 21))

	assert.Equal(t, []string{"lodash", "react"}, d.Names())
	_, ok := d.Lookup("nonexistent")
	assert.False(t, ok)
}
