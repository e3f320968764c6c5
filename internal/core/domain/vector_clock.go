package domain

import (
	"maps"
	"slices"
	"strconv"
	"strings"

	"go.trai.ch/zerr"
)

// MaxReplicas is the number of writer slots the binary lockfile header can hold.
const MaxReplicas = 8

// ReplicaID identifies a writer (machine, branch, CI job) that produces lockfiles.
type ReplicaID uint32

// Ordering is the causal relationship between two vector clocks.
type Ordering int

const (
	// Equal means both clocks have identical counters.
	Equal Ordering = iota
	// Before means the receiver happened before the argument.
	Before
	// After means the receiver happened after the argument.
	After
	// Concurrent means neither clock dominates the other.
	Concurrent
)

func (o Ordering) String() string {
	switch o {
	case Equal:
		return "equal"
	case Before:
		return "before"
	case After:
		return "after"
	case Concurrent:
		return "concurrent"
	default:
		return "unknown"
	}
}

// VectorClock is a per-replica logical clock.
// The zero value is an empty clock ready for use.
type VectorClock struct {
	counters map[ReplicaID]uint64
}

// NewVectorClock creates an empty clock.
func NewVectorClock() VectorClock {
	return VectorClock{counters: make(map[ReplicaID]uint64)}
}

// VectorClockFromArray decodes the fixed slot layout stored in the lockfile header.
func VectorClockFromArray(slots [MaxReplicas]uint64) VectorClock {
	vc := NewVectorClock()
	for i, c := range slots {
		if c != 0 {
			vc.counters[ReplicaID(i)] = c
		}
	}
	return vc
}

// Get returns the counter for id.
func (vc VectorClock) Get(id ReplicaID) uint64 {
	return vc.counters[id]
}

// Increment advances the counter owned by id.
// Replica ids that cannot be stored in the header are rejected instead of being dropped.
func (vc *VectorClock) Increment(id ReplicaID) error {
	if id >= MaxReplicas {
		return zerr.With(zerr.Wrap(ErrReplicaOutOfRange, "cannot increment clock"), "replica", uint32(id))
	}
	if vc.counters == nil {
		vc.counters = make(map[ReplicaID]uint64)
	}
	vc.counters[id]++
	return nil
}

// Merge joins other into the receiver by taking the component-wise maximum.
func (vc *VectorClock) Merge(other VectorClock) {
	if len(other.counters) == 0 {
		return
	}
	if vc.counters == nil {
		vc.counters = make(map[ReplicaID]uint64, len(other.counters))
	}
	for id, c := range other.counters {
		if c > vc.counters[id] {
			vc.counters[id] = c
		}
	}
}

// Compare returns the causal order of the receiver relative to other.
func (vc VectorClock) Compare(other VectorClock) Ordering {
	var less, greater bool
	for id := range vc.union(other) {
		a, b := vc.counters[id], other.counters[id]
		switch {
		case a < b:
			less = true
		case a > b:
			greater = true
		}
		if less && greater {
			return Concurrent
		}
	}
	switch {
	case less:
		return Before
	case greater:
		return After
	default:
		return Equal
	}
}

// IsConcurrent reports whether some component is smaller and some other component is greater.
func (vc VectorClock) IsConcurrent(other VectorClock) bool {
	return vc.Compare(other) == Concurrent
}

// Equal reports whether both clocks hold the same counters. Missing and zero entries are equivalent.
func (vc VectorClock) Equal(other VectorClock) bool {
	return vc.Compare(other) == Equal
}

// Clone returns an independent copy.
func (vc VectorClock) Clone() VectorClock {
	return VectorClock{counters: maps.Clone(vc.counters)}
}

// Replicas returns the ids with a non-zero counter, sorted.
func (vc VectorClock) Replicas() []ReplicaID {
	ids := make([]ReplicaID, 0, len(vc.counters))
	for id, c := range vc.counters {
		if c != 0 {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids
}

// Array encodes the clock into the fixed slot layout.
func (vc VectorClock) Array() ([MaxReplicas]uint64, error) {
	var slots [MaxReplicas]uint64
	for id, c := range vc.counters {
		if c == 0 {
			continue
		}
		if id >= MaxReplicas {
			return slots, zerr.With(zerr.Wrap(ErrReplicaOutOfRange, "clock does not fit header"), "replica", uint32(id))
		}
		slots[id] = c
	}
	return slots, nil
}

func (vc VectorClock) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, id := range vc.Replicas() {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(strconv.FormatUint(uint64(id), 10))
		b.WriteByte(':')
		b.WriteString(strconv.FormatUint(vc.counters[id], 10))
	}
	b.WriteByte('}')
	return b.String()
}

func (vc VectorClock) union(other VectorClock) map[ReplicaID]struct{} {
	ids := make(map[ReplicaID]struct{}, len(vc.counters)+len(other.counters))
	for id := range vc.counters {
		ids[id] = struct{}{}
	}
	for id := range other.counters {
		ids[id] = struct{}{}
	}
	return ids
}
