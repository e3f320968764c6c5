package domain_test

import (
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/pinlock/internal/core/domain"
)

func clockOf(t *testing.T, counts map[domain.ReplicaID]int) domain.VectorClock {
	t.Helper()
	vc := domain.NewVectorClock()
	for id, n := range counts {
		for range n {
			require.NoError(t, vc.Increment(id))
		}
	}
	return vc
}

func randomClock(t *testing.T, r *rand.Rand) domain.VectorClock {
	t.Helper()
	counts := make(map[domain.ReplicaID]int)
	for id := range domain.ReplicaID(domain.MaxReplicas) {
		if r.IntN(2) == 0 {
			counts[id] = r.IntN(5)
		}
	}
	return clockOf(t, counts)
}

func merged(a, b domain.VectorClock) domain.VectorClock {
	out := a.Clone()
	out.Merge(b)
	return out
}

func TestVectorClock_Increment(t *testing.T) {
	vc := domain.NewVectorClock()
	require.NoError(t, vc.Increment(0))
	require.NoError(t, vc.Increment(0))
	require.NoError(t, vc.Increment(7))

	assert.Equal(t, uint64(2), vc.Get(0))
	assert.Equal(t, uint64(1), vc.Get(7))
	assert.Equal(t, "{0:2 7:1}", vc.String())
}

func TestVectorClock_IncrementOutOfRange(t *testing.T) {
	vc := domain.NewVectorClock()
	err := vc.Increment(domain.MaxReplicas)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrReplicaOutOfRange))
	assert.Equal(t, "{}", vc.String())
}

func TestVectorClock_ZeroValue(t *testing.T) {
	var vc domain.VectorClock
	require.NoError(t, vc.Increment(3))
	assert.Equal(t, uint64(1), vc.Get(3))

	var other domain.VectorClock
	other.Merge(vc)
	assert.True(t, other.Equal(vc))
}

func TestVectorClock_Compare(t *testing.T) {
	a := clockOf(t, map[domain.ReplicaID]int{0: 1})
	b := clockOf(t, map[domain.ReplicaID]int{0: 2})
	c := clockOf(t, map[domain.ReplicaID]int{1: 1})

	assert.Equal(t, domain.Before, a.Compare(b))
	assert.Equal(t, domain.After, b.Compare(a))
	assert.Equal(t, domain.Equal, a.Compare(a.Clone()))
	assert.Equal(t, domain.Concurrent, a.Compare(c))

	assert.True(t, a.IsConcurrent(c))
	assert.False(t, a.IsConcurrent(b), "a weakly dominated clock is not concurrent")
	assert.False(t, a.IsConcurrent(a), "a clock is never concurrent with itself")
}

func TestVectorClock_ZeroEntriesAreAbsent(t *testing.T) {
	a := domain.VectorClockFromArray([domain.MaxReplicas]uint64{0, 0, 0})
	b := domain.NewVectorClock()
	assert.True(t, a.Equal(b))
}

func TestVectorClock_ArrayRoundTrip(t *testing.T) {
	vc := clockOf(t, map[domain.ReplicaID]int{1: 3, 5: 2})

	slots, err := vc.Array()
	require.NoError(t, err)
	assert.Equal(t, [domain.MaxReplicas]uint64{0, 3, 0, 0, 0, 2, 0, 0}, slots)
	assert.True(t, domain.VectorClockFromArray(slots).Equal(vc))
}

func TestVectorClock_LatticeLaws(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))

	for i := range 200 {
		a := randomClock(t, r)
		b := randomClock(t, r)
		c := randomClock(t, r)

		assert.True(t, merged(a, a).Equal(a), "idempotent (case %d)", i)
		assert.True(t, merged(a, b).Equal(merged(b, a)), "commutative (case %d)", i)
		assert.True(t, merged(merged(a, b), c).Equal(merged(a, merged(b, c))), "associative (case %d)", i)

		assert.Equal(t, a.IsConcurrent(b), b.IsConcurrent(a), "symmetric concurrency (case %d)", i)
		assert.False(t, a.IsConcurrent(a))

		m := merged(a, b)
		assert.NotEqual(t, domain.Before, m.Compare(a), "join dominates its inputs (case %d)", i)
		assert.NotEqual(t, domain.Before, m.Compare(b), "join dominates its inputs (case %d)", i)
	}
}

func TestOrdering_String(t *testing.T) {
	assert.Equal(t, "equal", domain.Equal.String())
	assert.Equal(t, "before", domain.Before.String())
	assert.Equal(t, "after", domain.After.String())
	assert.Equal(t, "concurrent", domain.Concurrent.String())
}
