package audit_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/pinlock/internal/adapters/audit"
	"go.trai.ch/pinlock/internal/core/domain"
)

func newJournal(t *testing.T) *audit.Journal {
	t.Helper()
	j := audit.NewJournal(filepath.Join(t.TempDir(), "state", "audit.db"))
	tick := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	j.SetClock(func() time.Time {
		tick = tick.Add(time.Second)
		return tick
	})
	t.Cleanup(func() { _ = j.Close() })
	return j
}

func TestJournal_RunLifecycle(t *testing.T) {
	ctx := context.Background()
	j := newJournal(t)

	id, err := j.Begin(ctx, "lock", "pinlock.lock")
	require.NoError(t, err)
	_, err = uuid.Parse(id)
	require.NoError(t, err)

	require.NoError(t, j.RecordBrokenEdges(ctx, id, []domain.Edge{{From: "c", To: "a"}}))
	require.NoError(t, j.RecordConflicts(ctx, id, []domain.Conflict{{
		Name:      "lodash",
		Kept:      domain.PackageResolution{Name: domain.NewPackageName("lodash"), Version: domain.NewVersion(4, 17, 21)},
		Discarded: domain.PackageResolution{Name: domain.NewPackageName("lodash"), Version: domain.NewVersion(4, 17, 20)},
	}}))
	require.NoError(t, j.Finish(ctx, id, 12))

	runs, err := j.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)

	run := runs[0]
	assert.Equal(t, id, run.ID)
	assert.Equal(t, "lock", run.Command)
	assert.Equal(t, "pinlock.lock", run.Lockfile)
	assert.Equal(t, 12, run.Packages)
	assert.True(t, run.Finished.After(run.Started))
	assert.Equal(t, []domain.Edge{{From: "c", To: "a"}}, run.BrokenEdges)
	assert.Equal(t, []string{"lodash: kept 4.17.21, discarded 4.17.20"}, run.Conflicts)
}

func TestJournal_BrokenEdgesKeepInsertionOrder(t *testing.T) {
	ctx := context.Background()
	j := newJournal(t)

	edges := []domain.Edge{{From: "c", To: "a"}, {From: "b", To: "a"}, {From: "z", To: "y"}}
	id, err := j.Begin(ctx, "lock", "pinlock.lock")
	require.NoError(t, err)
	require.NoError(t, j.RecordBrokenEdges(ctx, id, edges))
	require.NoError(t, j.Finish(ctx, id, 3))

	runs, err := j.Recent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, edges, runs[0].BrokenEdges)
	assert.Empty(t, runs[0].Conflicts)
}

func TestJournal_RecentOrderAndLimit(t *testing.T) {
	ctx := context.Background()
	j := newJournal(t)

	var ids []string
	for _, cmd := range []string{"lock", "merge", "restore"} {
		id, err := j.Begin(ctx, cmd, "pinlock.lock")
		require.NoError(t, err)
		ids = append(ids, id)
	}

	runs, err := j.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, ids[2], runs[0].ID)
	assert.Equal(t, ids[1], runs[1].ID)
	assert.True(t, runs[0].Finished.IsZero(), "unfinished runs have no finish time")
}

func TestJournal_FinishUnknownRun(t *testing.T) {
	j := newJournal(t)
	require.Error(t, j.Finish(context.Background(), "missing", 0))
}

func TestJournal_EmptyRecords(t *testing.T) {
	ctx := context.Background()
	j := newJournal(t)

	id, err := j.Begin(ctx, "lock", "pinlock.lock")
	require.NoError(t, err)
	require.NoError(t, j.RecordBrokenEdges(ctx, id, nil))
	require.NoError(t, j.RecordConflicts(ctx, id, nil))
}
