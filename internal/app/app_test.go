package app_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/pinlock/internal/adapters/telemetry"
	"go.trai.ch/pinlock/internal/app"
	"go.trai.ch/pinlock/internal/core/domain"
	"go.trai.ch/pinlock/internal/core/lockfmt"
	"go.trai.ch/pinlock/internal/core/ports"
	"go.trai.ch/pinlock/internal/core/ports/mocks"
	"go.trai.ch/pinlock/internal/engine/planner"
	"go.trai.ch/pinlock/internal/engine/resolver"
	"go.uber.org/mock/gomock"
)

const lockPath = "pinlock.lock"

type fixture struct {
	logger    *mocks.MockLogger
	manifests *mocks.MockManifestLoader
	store     *mocks.MockLockfileStore
	history   *mocks.MockHistoryStore
	journal   *mocks.MockAuditJournal
	hasher    *mocks.MockHasher
	telemetry ports.Telemetry
	settings  domain.Settings
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	f := &fixture{
		logger:    mocks.NewMockLogger(ctrl),
		manifests: mocks.NewMockManifestLoader(ctrl),
		store:     mocks.NewMockLockfileStore(ctrl),
		history:   mocks.NewMockHistoryStore(ctrl),
		journal:   mocks.NewMockAuditJournal(ctrl),
		hasher:    mocks.NewMockHasher(ctrl),
		telemetry: telemetry.NewNoop(),
		settings:  domain.DefaultSettings(),
	}
	f.logger.EXPECT().Info(gomock.Any()).AnyTimes()
	f.logger.EXPECT().Warn(gomock.Any()).AnyTimes()
	return f
}

func (f *fixture) app() *app.App {
	return app.New(
		f.settings,
		f.logger,
		f.manifests,
		f.store,
		f.history,
		f.journal,
		f.hasher,
		f.telemetry,
		planner.New(f.logger),
		resolver.New(),
	)
}

func (f *fixture) expectManifest(m *domain.Manifest) {
	f.manifests.EXPECT().Discover(".").Return("/work/pinlock.yaml", nil)
	f.manifests.EXPECT().Load("/work/pinlock.yaml").Return(m, nil)
}

func (f *fixture) expectFlock(path string) {
	f.store.EXPECT().Lock(gomock.Any(), path).Return(func() error { return nil }, nil)
}

func (f *fixture) expectWrite(path string, out *[]byte) {
	f.store.EXPECT().Write(path, gomock.Any()).DoAndReturn(func(_ string, b []byte) error {
		*out = b
		return nil
	})
}

func (f *fixture) expectJournal(command, path string, packages int) {
	gomock.InOrder(
		f.journal.EXPECT().Begin(gomock.Any(), command, path).Return("run-1", nil),
		f.journal.EXPECT().RecordBrokenEdges(gomock.Any(), "run-1", gomock.Any()).Return(nil),
		f.journal.EXPECT().RecordConflicts(gomock.Any(), "run-1", gomock.Any()).Return(nil),
		f.journal.EXPECT().Finish(gomock.Any(), "run-1", packages).Return(nil),
	)
}

func manifest(roots []string, edges map[string][]string) *domain.Manifest {
	m := domain.NewManifest()
	m.Roots = domain.PackageNames(roots...)
	for name, deps := range edges {
		m.Packages[name] = domain.Declaration{
			Name:         domain.NewPackageName(name),
			Version:      domain.NewVersion(1, 0, 0),
			TarballURL:   "https://r.example/" + name + ".tgz",
			Dependencies: domain.PackageNames(deps...),
		}
	}
	return m
}

func appManifest() *domain.Manifest {
	return manifest([]string{"app"}, map[string][]string{
		"app":  {"lib", "util"},
		"lib":  {"util"},
		"util": nil,
	})
}

func encode(t *testing.T, data domain.LockfileData) []byte {
	t.Helper()
	b, err := lockfmt.Serialize(data)
	require.NoError(t, err)
	return b
}

func decode(t *testing.T, b []byte) domain.LockfileData {
	t.Helper()
	data, err := lockfmt.Deserialize(b)
	require.NoError(t, err)
	return data
}

func pkg(name string, major, minor, patch uint32) domain.PackageResolution {
	return domain.PackageResolution{
		Name:         domain.NewPackageName(name),
		Version:      domain.NewVersion(major, minor, patch),
		Dependencies: []domain.PackageName{},
	}
}

func TestApp_Lock_FreshLockfile(t *testing.T) {
	f := newFixture(t)
	f.expectFlock(lockPath)
	f.expectManifest(appManifest())
	f.store.EXPECT().Read(lockPath).Return(nil, false, nil)

	var written []byte
	f.expectWrite(lockPath, &written)
	f.history.EXPECT().Put(lockPath, gomock.Any(), 3, "{3:1}").Return(domain.Snapshot{}, nil)
	f.expectJournal("lock", lockPath, 3)

	a := f.app()
	replica := 3
	require.NoError(t, a.Configure(app.Overrides{Replica: &replica}))

	var out bytes.Buffer
	require.NoError(t, a.Lock(context.Background(), &out, app.LockOptions{}))
	assert.Empty(t, out.String())

	data := decode(t, written)
	assert.Equal(t, []string{"app", "lib", "util"}, data.Names())
	assert.Equal(t, uint64(1), data.Clock.Get(3))
	assert.Empty(t, data.Conflicts)

	p, ok := data.Lookup("app")
	require.True(t, ok)
	assert.Equal(t, []string{"lib", "util"}, p.DependencyNames())
}

func TestApp_Lock_UpToDate(t *testing.T) {
	ctrl := gomock.NewController(t)
	f := newFixture(t)
	m := appManifest()

	plan, err := planner.New(f.logger).Plan(context.Background(), m, planner.Options{})
	require.NoError(t, err)
	existing := plan.Lockfile
	require.NoError(t, existing.Clock.Increment(0))

	tel := mocks.NewMockTelemetry(ctrl)
	vertex := mocks.NewMockVertex(ctrl)
	record := func(ctx context.Context, _ string) (context.Context, ports.Vertex) { return ctx, vertex }
	tel.EXPECT().Record(gomock.Any(), "load manifest").DoAndReturn(record)
	tel.EXPECT().Record(gomock.Any(), "plan").DoAndReturn(record)
	tel.EXPECT().Record(gomock.Any(), "write").DoAndReturn(record)
	vertex.EXPECT().Complete(nil).Times(2)
	vertex.EXPECT().Cached()
	f.telemetry = tel

	f.expectFlock(lockPath)
	f.expectManifest(m)
	f.store.EXPECT().Read(lockPath).Return(encode(t, existing), true, nil)

	require.NoError(t, f.app().Lock(context.Background(), &bytes.Buffer{}, app.LockOptions{}))
}

func TestApp_Lock_MergesIntoExisting(t *testing.T) {
	f := newFixture(t)

	existing := domain.NewLockfileData(pkg("util", 0, 9, 0), pkg("stale", 2, 0, 0))
	require.NoError(t, existing.Clock.Increment(1))
	require.NoError(t, existing.Clock.Increment(1))

	f.expectFlock(lockPath)
	f.expectManifest(appManifest())
	f.store.EXPECT().Read(lockPath).Return(encode(t, existing), true, nil)

	var written []byte
	f.expectWrite(lockPath, &written)
	f.history.EXPECT().Put(lockPath, gomock.Any(), 3, "{0:1 1:2}").Return(domain.Snapshot{}, nil)
	f.expectJournal("lock", lockPath, 3)

	require.NoError(t, f.app().Lock(context.Background(), &bytes.Buffer{}, app.LockOptions{}))

	data := decode(t, written)
	assert.Equal(t, []string{"app", "lib", "util"}, data.Names(), "packages no longer planned are dropped")
	util, ok := data.Lookup("util")
	require.True(t, ok)
	assert.Equal(t, domain.NewVersion(1, 0, 0), util.Version, "the newer write wins")
	assert.Equal(t, uint64(2), data.Clock.Get(1))
	assert.Equal(t, uint64(1), data.Clock.Get(0))
}

func TestApp_Lock_RecordedConflicts(t *testing.T) {
	conflicted := func(t *testing.T) []byte {
		t.Helper()
		existing := domain.NewLockfileData(pkg("lib", 1, 0, 0))
		existing.Conflicts = []domain.Conflict{{
			Name:      "lib",
			Kept:      pkg("lib", 1, 0, 0),
			Discarded: pkg("lib", 0, 9, 0),
		}}
		return encode(t, existing)
	}

	tests := []struct {
		name      string
		opts      app.LockOptions
		wantErr   bool
		wantOut   string
		conflicts int
	}{
		{
			name:      "Fails",
			wantErr:   true,
			wantOut:   "! conflict lib: kept 1.0.0, discarded 0.9.0\n",
			conflicts: 1,
		},
		{
			name:      "Allowed",
			opts:      app.LockOptions{AllowConflicts: true},
			wantOut:   "! conflict lib: kept 1.0.0, discarded 0.9.0\n",
			conflicts: 1,
		},
		{
			name: "Accepted",
			opts: app.LockOptions{Accept: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.expectFlock(lockPath)
			f.expectManifest(appManifest())
			f.store.EXPECT().Read(lockPath).Return(conflicted(t), true, nil)

			var written []byte
			f.expectWrite(lockPath, &written)
			f.history.EXPECT().Put(lockPath, gomock.Any(), 3, gomock.Any()).Return(domain.Snapshot{}, nil)
			f.expectJournal("lock", lockPath, 3)

			var out bytes.Buffer
			err := f.app().Lock(context.Background(), &out, tt.opts)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, domain.ErrLockfileConflicts))
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.wantOut, out.String())
			assert.Len(t, decode(t, written).Conflicts, tt.conflicts)
		})
	}
}

func TestApp_Lock_CycleUnderErrorPolicy(t *testing.T) {
	f := newFixture(t)
	f.expectFlock(lockPath)
	f.expectManifest(manifest([]string{"a"}, map[string][]string{
		"a": {"b"},
		"b": {"a"},
	}))

	err := f.app().Lock(context.Background(), &bytes.Buffer{}, app.LockOptions{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrCircularDependency))
}

func TestApp_Lock_BreakPolicyJournalsEdges(t *testing.T) {
	f := newFixture(t)
	f.settings.Policy = domain.PolicyBreak
	f.expectFlock(lockPath)
	f.expectManifest(manifest([]string{"a"}, map[string][]string{
		"a": {"b"},
		"b": {"a"},
	}))
	f.store.EXPECT().Read(lockPath).Return(nil, false, nil)

	var written []byte
	f.expectWrite(lockPath, &written)
	f.history.EXPECT().Put(lockPath, gomock.Any(), 2, gomock.Any()).Return(domain.Snapshot{}, nil)
	gomock.InOrder(
		f.journal.EXPECT().Begin(gomock.Any(), "lock", lockPath).Return("run-1", nil),
		f.journal.EXPECT().RecordBrokenEdges(gomock.Any(), "run-1", []domain.Edge{{From: "b", To: "a"}}).Return(nil),
		f.journal.EXPECT().RecordConflicts(gomock.Any(), "run-1", gomock.Any()).Return(nil),
		f.journal.EXPECT().Finish(gomock.Any(), "run-1", 2).Return(nil),
	)

	require.NoError(t, f.app().Lock(context.Background(), &bytes.Buffer{}, app.LockOptions{}))

	data := decode(t, written)
	b, ok := data.Lookup("b")
	require.True(t, ok)
	assert.True(t, b.BrokenEdges)
	assert.Empty(t, b.Dependencies)
}

func TestApp_Lock_JournalFailureIsNotFatal(t *testing.T) {
	f := newFixture(t)
	f.expectFlock(lockPath)
	f.expectManifest(appManifest())
	f.store.EXPECT().Read(lockPath).Return(nil, false, nil)

	var written []byte
	f.expectWrite(lockPath, &written)
	f.history.EXPECT().Put(lockPath, gomock.Any(), 3, gomock.Any()).Return(domain.Snapshot{}, errors.New("disk full"))
	f.journal.EXPECT().Begin(gomock.Any(), "lock", lockPath).Return("", errors.New("database is locked"))

	require.NoError(t, f.app().Lock(context.Background(), &bytes.Buffer{}, app.LockOptions{}))
	assert.NotEmpty(t, written)
}

func TestApp_Lock_FlockFails(t *testing.T) {
	f := newFixture(t)
	f.store.EXPECT().Lock(gomock.Any(), lockPath).Return(nil, context.DeadlineExceeded)

	err := f.app().Lock(context.Background(), &bytes.Buffer{}, app.LockOptions{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestApp_Resolve(t *testing.T) {
	f := newFixture(t)
	react := pkg("react", 18, 2, 0)
	react.TarballURL = "https://registry.npmjs.org/react/-/react-18.2.0.tgz"
	local := pkg("my-lib", 1, 2, 0)
	local.Workspace = true
	f.store.EXPECT().Read(lockPath).Return(encode(t, domain.NewLockfileData(react, local)), true, nil)

	var out bytes.Buffer
	err := f.app().Resolve(context.Background(), &out, []string{"React", "my-lib", "ghost"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrPackageNotFound))

	assert.Contains(t, out.String(), "react 18.2.0\n")
	assert.Contains(t, out.String(), "https://registry.npmjs.org/react/-/react-18.2.0.tgz")
	assert.Contains(t, out.String(), "my-lib 1.2.0\n")
	assert.Contains(t, out.String(), "flags:         workspace")
	assert.True(t, strings.HasSuffix(out.String(), "✗ ghost: not locked\n"))
}

func TestApp_Resolve_MissingLockfile(t *testing.T) {
	f := newFixture(t)
	f.store.EXPECT().Read(lockPath).Return(nil, false, nil)

	err := f.app().Resolve(context.Background(), &bytes.Buffer{}, []string{"react"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrLockfileNotFound))
}

func TestApp_List(t *testing.T) {
	data := domain.NewLockfileData(pkg("react", 18, 2, 0), pkg("lodash", 4, 17, 21))

	t.Run("Freeze", func(t *testing.T) {
		f := newFixture(t)
		f.store.EXPECT().Read(lockPath).Return(encode(t, data), true, nil)

		var out bytes.Buffer
		require.NoError(t, f.app().List(context.Background(), &out, app.FormatFreeze))
		assert.Equal(t, "lodash==4.17.21\nreact==18.2.0\n", out.String())
	})

	t.Run("Table", func(t *testing.T) {
		f := newFixture(t)
		f.store.EXPECT().Read(lockPath).Return(encode(t, data), true, nil)

		var out bytes.Buffer
		require.NoError(t, f.app().List(context.Background(), &out, app.FormatTable))
		assert.True(t, strings.HasPrefix(out.String(), "NAME "))
		assert.Contains(t, out.String(), "2 packages\n")
	})

	t.Run("UnknownFormat", func(t *testing.T) {
		f := newFixture(t)
		f.store.EXPECT().Read(lockPath).Return(encode(t, data), true, nil)

		err := f.app().List(context.Background(), &bytes.Buffer{}, "xml")
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrInvalidSetting))
	})

	t.Run("Corrupted", func(t *testing.T) {
		f := newFixture(t)
		f.store.EXPECT().Read(lockPath).Return([]byte("garbage"), true, nil)

		err := f.app().List(context.Background(), &bytes.Buffer{}, app.FormatTable)
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrCorrupted))
	})
}

func TestApp_Check(t *testing.T) {
	cyclic := func() *domain.Manifest {
		return manifest(nil, map[string][]string{
			"a": {"b"},
			"b": {"c"},
			"c": {"a"},
		})
	}

	t.Run("Acyclic", func(t *testing.T) {
		f := newFixture(t)
		f.expectManifest(appManifest())

		var out bytes.Buffer
		require.NoError(t, f.app().Check(context.Background(), &out))
		assert.Contains(t, out.String(), "✓ no cycles")
		assert.Contains(t, out.String(), "install order: util, lib, app")
	})

	t.Run("CyclicErrorPolicy", func(t *testing.T) {
		f := newFixture(t)
		f.expectManifest(cyclic())

		var out bytes.Buffer
		err := f.app().Check(context.Background(), &out)
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrCycleDetected))
		assert.Contains(t, out.String(), "✗ 1 cycle")
	})

	t.Run("CyclicWarnPolicy", func(t *testing.T) {
		f := newFixture(t)
		f.settings.Policy = domain.PolicyWarn
		f.expectManifest(cyclic())

		require.NoError(t, f.app().Check(context.Background(), &bytes.Buffer{}))
	})

	t.Run("ExplicitManifestSkipsDiscovery", func(t *testing.T) {
		f := newFixture(t)
		f.settings.ManifestPath = "deps/pinlock.toml"
		f.manifests.EXPECT().Load("deps/pinlock.toml").Return(appManifest(), nil)

		require.NoError(t, f.app().Check(context.Background(), &bytes.Buffer{}))
	})

	t.Run("DiscoveryFails", func(t *testing.T) {
		f := newFixture(t)
		f.manifests.EXPECT().Discover("/somewhere").Return("", domain.ErrManifestNotFound)

		err := f.app().WithWorkDir("/somewhere").Check(context.Background(), &bytes.Buffer{})
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrManifestNotFound))
	})
}

func TestApp_Merge(t *testing.T) {
	left := domain.NewLockfileData(pkg("lodash", 4, 17, 21), pkg("react", 18, 2, 0))
	require.NoError(t, left.Clock.Increment(0))
	right := domain.NewLockfileData(pkg("lodash", 4, 17, 20), pkg("vue", 3, 4, 0))
	require.NoError(t, right.Clock.Increment(1))

	run := func(t *testing.T, opts app.MergeOptions) (domain.LockfileData, string, error) {
		t.Helper()
		f := newFixture(t)
		f.expectFlock("merged.lock")
		f.store.EXPECT().Read("left.lock").Return(encode(t, left), true, nil)
		f.store.EXPECT().Read("right.lock").Return(encode(t, right), true, nil)

		var written []byte
		f.expectWrite("merged.lock", &written)
		f.history.EXPECT().Put("merged.lock", gomock.Any(), 3, "{0:1 1:1}").Return(domain.Snapshot{}, nil)
		f.expectJournal("merge", "merged.lock", 3)

		var out bytes.Buffer
		err := f.app().Merge(context.Background(), &out, opts)
		return decode(t, written), out.String(), err
	}

	opts := app.MergeOptions{Output: "merged.lock", Inputs: []string{"left.lock", "right.lock"}}

	data, out, err := run(t, opts)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrLockfileConflicts))
	assert.Equal(t, []string{"lodash", "react", "vue"}, data.Names())
	require.Len(t, data.Conflicts, 1)
	assert.Equal(t, "lodash", data.Conflicts[0].Name)
	assert.Equal(t, domain.NewVersion(4, 17, 21), data.Conflicts[0].Kept.Version)
	assert.Equal(t, "! conflict lodash: kept 4.17.21, discarded 4.17.20\n", out)

	opts.AllowConflicts = true
	_, _, err = run(t, opts)
	require.NoError(t, err)
}

func TestApp_Merge_Errors(t *testing.T) {
	t.Run("NoInputs", func(t *testing.T) {
		f := newFixture(t)
		err := f.app().Merge(context.Background(), &bytes.Buffer{}, app.MergeOptions{})
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrInvalidSetting))
	})

	t.Run("MissingInput", func(t *testing.T) {
		f := newFixture(t)
		f.expectFlock(lockPath)
		f.store.EXPECT().Read("a.lock").Return(encode(t, domain.NewLockfileData()), true, nil)
		f.store.EXPECT().Read("b.lock").Return(nil, false, nil)

		err := f.app().Merge(context.Background(), &bytes.Buffer{}, app.MergeOptions{Inputs: []string{"a.lock", "b.lock"}})
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrLockfileNotFound))
	})
}

func TestApp_Verify(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		f := newFixture(t)
		f.store.EXPECT().Read("other.lock").Return(encode(t, domain.NewLockfileData(pkg("react", 18, 2, 0))), true, nil)

		var out bytes.Buffer
		require.NoError(t, f.app().Verify(context.Background(), &out, "other.lock"))
		assert.True(t, strings.HasPrefix(out.String(), "other.lock\n"))
		assert.Contains(t, out.String(), "hash:          ok")
		assert.True(t, strings.HasSuffix(out.String(), "✓ valid\n"))
	})

	t.Run("Tampered", func(t *testing.T) {
		f := newFixture(t)
		b := encode(t, domain.NewLockfileData(pkg("react", 18, 2, 0)))
		b[len(b)-1] ^= 0xff
		f.store.EXPECT().Read(lockPath).Return(b, true, nil)

		var out bytes.Buffer
		err := f.app().Verify(context.Background(), &out, "")
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrCorrupted))
		assert.Contains(t, out.String(), "hash:          mismatch")
	})

	t.Run("Missing", func(t *testing.T) {
		f := newFixture(t)
		f.store.EXPECT().Read(lockPath).Return(nil, false, nil)

		err := f.app().Verify(context.Background(), &bytes.Buffer{}, "")
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrLockfileNotFound))
	})
}

func TestApp_Affected(t *testing.T) {
	f := newFixture(t)
	f.expectManifest(appManifest())

	var out bytes.Buffer
	require.NoError(t, f.app().Affected(context.Background(), &out, "UTIL"))
	assert.Equal(t, "app\nlib\n", out.String())

	f.expectManifest(appManifest())
	err := f.app().Affected(context.Background(), &bytes.Buffer{}, "ghost")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrPackageNotFound))
}

func TestApp_History(t *testing.T) {
	f := newFixture(t)
	f.history.EXPECT().List().Return([]domain.Snapshot{{
		Digest:    "4f2a9c1d7e3b8a6f5c4d3e2f1a0b9c8d7e6f5a4b3c2d1e0f9a8b7c6d5e4f3a2b",
		Lockfile:  lockPath,
		Packages:  2,
		Clock:     "{0:1}",
		Timestamp: time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC),
	}}, nil)

	var out bytes.Buffer
	require.NoError(t, f.app().History(context.Background(), &out))
	assert.Contains(t, out.String(), "4f2a9c1d7e3b  2 ")
}

func TestApp_Restore(t *testing.T) {
	t.Run("Writes", func(t *testing.T) {
		f := newFixture(t)
		b := encode(t, domain.NewLockfileData(pkg("react", 18, 2, 0)))
		f.history.EXPECT().Get("4f2a").Return(domain.Snapshot{Digest: "4f2a9c1d7e3b8a6f", Packages: 1}, b, nil)
		f.expectFlock(lockPath)

		var written []byte
		f.expectWrite(lockPath, &written)
		f.expectJournal("restore", lockPath, 1)

		require.NoError(t, f.app().Restore(context.Background(), "4f2a", ""))
		assert.Equal(t, b, written)
	})

	t.Run("UnknownDigest", func(t *testing.T) {
		f := newFixture(t)
		f.history.EXPECT().Get("ffff").Return(domain.Snapshot{}, nil, domain.ErrSnapshotNotFound)

		err := f.app().Restore(context.Background(), "ffff", "")
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrSnapshotNotFound))
	})

	t.Run("UndecodableSnapshot", func(t *testing.T) {
		f := newFixture(t)
		f.history.EXPECT().Get("4f2a").Return(domain.Snapshot{Digest: "4f2a"}, []byte("garbage"), nil)

		err := f.app().Restore(context.Background(), "4f2a", "out.lock")
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrCorrupted))
	})
}

func TestApp_Audit(t *testing.T) {
	f := newFixture(t)
	f.journal.EXPECT().Recent(gomock.Any(), app.DefaultAuditLimit).Return([]domain.AuditRun{{
		ID:       "6f1c2d3e-4b5a-4c6d-8e7f-901234567890",
		Command:  "lock",
		Lockfile: lockPath,
		Packages: 3,
		Started:  time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC),
		Finished: time.Date(2026, 3, 14, 9, 26, 54, 0, time.UTC),
	}}, nil)

	var out bytes.Buffer
	require.NoError(t, f.app().Audit(context.Background(), &out, 0))
	assert.Contains(t, out.String(), "lock  pinlock.lock  3 packages")
}

func TestApp_Hash(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "react-18.2.0.tgz")
	require.NoError(t, os.WriteFile(archive, []byte("tarball"), 0o600))

	var sum [domain.IntegritySize]byte
	sum[0] = 0xff

	t.Run("File", func(t *testing.T) {
		f := newFixture(t)
		f.hasher.EXPECT().HashFile(archive).Return(sum, nil)

		var out bytes.Buffer
		require.NoError(t, f.app().Hash(context.Background(), &out, archive))
		assert.True(t, strings.HasPrefix(out.String(), "ff00"))
		assert.True(t, strings.HasSuffix(out.String(), "  "+archive+"\n"))
	})

	t.Run("Directory", func(t *testing.T) {
		f := newFixture(t)
		f.hasher.EXPECT().HashDir(dir).Return([]domain.FileDigest{{Path: archive, Integrity: sum}}, nil)

		var out bytes.Buffer
		require.NoError(t, f.app().Hash(context.Background(), &out, dir))
		assert.Equal(t, 1, strings.Count(out.String(), "\n"))
	})

	t.Run("Missing", func(t *testing.T) {
		f := newFixture(t)
		err := f.app().Hash(context.Background(), &bytes.Buffer{}, filepath.Join(dir, "nope.tgz"))
		require.Error(t, err)
		assert.True(t, errors.Is(err, os.ErrNotExist))
	})
}

func TestApp_Configure(t *testing.T) {
	f := newFixture(t)
	a := f.app()

	lockfile := "other.lock"
	policy := "warn"
	require.NoError(t, a.Configure(app.Overrides{Lockfile: &lockfile, Policy: &policy}))
	assert.Equal(t, "other.lock", a.Settings().LockfilePath)
	assert.Equal(t, domain.PolicyWarn, a.Settings().Policy)

	replica := domain.MaxReplicas
	err := a.Configure(app.Overrides{Replica: &replica})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrReplicaOutOfRange))

	bad := "explode"
	err = a.Configure(app.Overrides{Policy: &bad})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidPolicy))

	empty := ""
	err = a.Configure(app.Overrides{Lockfile: &empty})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidSetting))

	assert.Equal(t, "other.lock", a.Settings().LockfilePath, "failed overrides leave settings untouched")
}
