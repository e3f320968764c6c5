// Package app implements the application layer for pinlock.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"go.trai.ch/pinlock/internal/adapters/render"
	"go.trai.ch/pinlock/internal/core/domain"
	"go.trai.ch/pinlock/internal/core/lockfmt"
	"go.trai.ch/pinlock/internal/core/ports"
	"go.trai.ch/pinlock/internal/engine/planner"
	"go.trai.ch/pinlock/internal/engine/resolver"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// Output formats for List.
const (
	FormatTable  = "table"
	FormatFreeze = "freeze"
)

// DefaultAuditLimit is how many runs Audit shows when no limit is given.
const DefaultAuditLimit = 20

// App represents the main application logic.
type App struct {
	settings  domain.Settings
	logger    ports.Logger
	manifests ports.ManifestLoader
	store     ports.LockfileStore
	history   ports.HistoryStore
	journal   ports.AuditJournal
	hasher    ports.Hasher
	telemetry ports.Telemetry
	planner   *planner.Planner
	resolver  *resolver.Resolver
	workDir   string
}

// New creates a new App instance.
func New(
	settings domain.Settings,
	log ports.Logger,
	manifests ports.ManifestLoader,
	store ports.LockfileStore,
	history ports.HistoryStore,
	journal ports.AuditJournal,
	hasher ports.Hasher,
	telemetry ports.Telemetry,
	plan *planner.Planner,
	res *resolver.Resolver,
) *App {
	a := &App{
		settings:  settings,
		logger:    log,
		manifests: manifests,
		store:     store,
		history:   history,
		journal:   journal,
		hasher:    hasher,
		telemetry: telemetry,
		planner:   plan,
		resolver:  res,
		workDir:   ".",
	}
	a.applyLogFormat()
	return a
}

// WithWorkDir sets the directory manifest discovery starts from.
// This is primarily used for testing.
func (a *App) WithWorkDir(dir string) *App {
	a.workDir = dir
	return a
}

// Settings returns the effective settings.
func (a *App) Settings() domain.Settings {
	return a.settings
}

// Overrides are settings given on the command line. Nil fields keep the configured value.
type Overrides struct {
	Lockfile *string
	Manifest *string
	Policy   *string
	Replica  *int
	JSONLogs *bool
}

// Configure applies command line overrides on top of the loaded settings.
func (a *App) Configure(o Overrides) error {
	s := a.settings
	if o.Lockfile != nil {
		if *o.Lockfile == "" {
			return zerr.With(zerr.Wrap(domain.ErrInvalidSetting, "lockfile path must not be empty"), "flag", "lockfile")
		}
		s.LockfilePath = *o.Lockfile
	}
	if o.Manifest != nil {
		s.ManifestPath = *o.Manifest
	}
	if o.Policy != nil {
		p, err := domain.ParseCyclePolicy(*o.Policy)
		if err != nil {
			return err
		}
		s.Policy = p
	}
	if o.Replica != nil {
		if *o.Replica < 0 || *o.Replica >= domain.MaxReplicas {
			return zerr.With(zerr.Wrap(domain.ErrReplicaOutOfRange, "invalid replica flag"), "replica", *o.Replica)
		}
		s.Replica = domain.ReplicaID(*o.Replica) //nolint:gosec // Range checked above
	}
	if o.JSONLogs != nil {
		s.JSONLogs = *o.JSONLogs
	}
	a.settings = s
	a.applyLogFormat()
	return nil
}

func (a *App) applyLogFormat() {
	if l, ok := a.logger.(interface{ SetJSON(bool) }); ok {
		l.SetJSON(a.settings.JSONLogs)
	}
}

// phase records fn as a telemetry vertex.
func (a *App) phase(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	ctx, v := a.telemetry.Record(ctx, name)
	err := fn(ctx)
	v.Complete(err)
	return err
}

func (a *App) loadManifest(ctx context.Context) (*domain.Manifest, error) {
	var m *domain.Manifest
	err := a.phase(ctx, "load manifest", func(_ context.Context) error {
		path := a.settings.ManifestPath
		if path == "" {
			found, err := a.manifests.Discover(a.workDir)
			if err != nil {
				return err
			}
			path = found
		}
		loaded, err := a.manifests.Load(path)
		if err != nil {
			return zerr.Wrap(err, "failed to load manifest")
		}
		m = loaded
		return nil
	})
	return m, err
}

// readLockfile decodes the lockfile at path. A missing file yields empty data
// unless required is set.
func (a *App) readLockfile(path string, required bool) (domain.LockfileData, []byte, error) {
	b, ok, err := a.store.Read(path)
	if err != nil {
		return domain.LockfileData{}, nil, zerr.Wrap(err, "failed to read lockfile")
	}
	if !ok {
		if required {
			return domain.LockfileData{}, nil, zerr.With(zerr.Wrap(domain.ErrLockfileNotFound, "no lockfile at path"), "path", path)
		}
		return domain.NewLockfileData(), nil, nil
	}
	data, err := lockfmt.Deserialize(b)
	if err != nil {
		return domain.LockfileData{}, nil, zerr.With(zerr.Wrap(err, "failed to decode lockfile"), "path", path)
	}
	return data, b, nil
}

// LockOptions configuration for the Lock method.
type LockOptions struct {
	// AllowConflicts writes the lockfile without failing when it carries conflicts.
	AllowConflicts bool
	// Accept clears recorded conflicts for every planned package.
	Accept bool
}

// Lock plans the manifest and merges the result into the lockfile.
//
//nolint:cyclop,funlen // orchestration function
func (a *App) Lock(ctx context.Context, w io.Writer, opts LockOptions) error {
	path := a.settings.LockfilePath

	// 1. Serialize writers on the lockfile
	unlock, err := a.store.Lock(ctx, path)
	if err != nil {
		return zerr.Wrap(err, "failed to lock lockfile")
	}
	defer func() {
		if errUnlock := unlock(); errUnlock != nil {
			a.logger.Warn("failed to release lockfile lock: " + errUnlock.Error())
		}
	}()

	// 2. Load and plan
	m, err := a.loadManifest(ctx)
	if err != nil {
		return err
	}

	var plan *planner.Plan
	err = a.phase(ctx, "plan", func(ctx context.Context) error {
		p, errPlan := a.planner.Plan(ctx, m, planner.Options{
			Policy:   a.settings.Policy,
			MaxDepth: a.settings.MaxDepth,
		})
		plan = p
		return errPlan
	})
	if err != nil {
		return zerr.Wrap(err, "failed to plan dependencies")
	}

	// 3. Merge into the existing lockfile
	existing, raw, err := a.readLockfile(path, false)
	if err != nil {
		return err
	}

	if raw != nil && upToDate(existing, plan.Lockfile) {
		_, v := a.telemetry.Record(ctx, "write")
		v.Cached()
		a.logger.Info(path + " is up to date")
		return nil
	}

	var conflicts []domain.Conflict
	err = a.phase(ctx, "merge", func(_ context.Context) error {
		fresh := plan.Lockfile
		fresh.Clock = existing.Clock.Clone()
		if errInc := fresh.Clock.Increment(a.settings.Replica); errInc != nil {
			return errInc
		}
		conflicts = existing.Merge(fresh)
		existing.Retain(plan.Lockfile.Names())
		if opts.Accept {
			existing.ClearConflicts(plan.Lockfile.Names())
		}
		return nil
	})
	if err != nil {
		return zerr.Wrap(err, "failed to merge lockfile")
	}

	// 4. Persist
	if err := a.write(ctx, path, existing); err != nil {
		return err
	}
	a.logger.Info(fmt.Sprintf("wrote %s (%d packages)", path, len(existing.Packages)))

	a.journalRun(ctx, "lock", path, len(existing.Packages), plan.BrokenEdges, conflicts)

	if err := render.New(w).Conflicts(existing.Conflicts); err != nil {
		return err
	}
	if len(existing.Conflicts) > 0 && !opts.AllowConflicts {
		return zerr.With(zerr.Wrap(domain.ErrLockfileConflicts, "lockfile written with conflicts"), "conflicts", len(existing.Conflicts))
	}
	return nil
}

// upToDate reports whether writing plan would not change the packages in existing.
func upToDate(existing, plan domain.LockfileData) bool {
	if len(existing.Conflicts) > 0 || len(existing.Packages) != len(plan.Packages) {
		return false
	}
	for i, p := range existing.Packages {
		if !p.Equal(plan.Packages[i]) {
			return false
		}
	}
	return true
}

// write serializes data to path and snapshots it into the history store.
func (a *App) write(ctx context.Context, path string, data domain.LockfileData) error {
	var b []byte
	err := a.phase(ctx, "write", func(_ context.Context) error {
		encoded, err := lockfmt.Serialize(data)
		if err != nil {
			return err
		}
		b = encoded
		return a.store.Write(path, b)
	})
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to write lockfile"), "path", path)
	}

	if _, err := a.history.Put(path, b, len(data.Packages), data.Clock.String()); err != nil {
		a.logger.Warn("failed to snapshot lockfile: " + err.Error())
	}
	return nil
}

// journalRun records a write in the audit journal. Journal failures never fail the command.
func (a *App) journalRun(ctx context.Context, command, path string, packages int, edges []domain.Edge, conflicts []domain.Conflict) {
	err := func() error {
		id, err := a.journal.Begin(ctx, command, path)
		if err != nil {
			return err
		}
		if err := a.journal.RecordBrokenEdges(ctx, id, edges); err != nil {
			return err
		}
		if err := a.journal.RecordConflicts(ctx, id, conflicts); err != nil {
			return err
		}
		return a.journal.Finish(ctx, id, packages)
	}()
	if err != nil {
		a.logger.Warn("failed to record audit run: " + err.Error())
	}
}

// Resolve prints the locked resolution of each name.
// Every name is printed before a missing one is reported as an error.
func (a *App) Resolve(_ context.Context, w io.Writer, names []string) error {
	path := a.settings.LockfilePath
	b, ok, err := a.store.Read(path)
	if err != nil {
		return zerr.Wrap(err, "failed to read lockfile")
	}
	if !ok {
		return zerr.With(zerr.Wrap(domain.ErrLockfileNotFound, "no lockfile at path"), "path", path)
	}
	if err := a.resolver.LoadFromBytes(b); err != nil {
		return zerr.With(err, "path", path)
	}
	for _, p := range a.resolver.Packages() {
		if p.Workspace {
			a.resolver.RegisterWorkspacePackage(p.Name.String(), p.Version)
		}
	}

	r := render.New(w)
	var missing []string
	for _, raw := range names {
		name := domain.NormalizeName(raw)
		res, found := a.resolver.Resolve(name)
		if !found {
			missing = append(missing, name)
			if err := r.Missing(name); err != nil {
				return err
			}
			continue
		}
		if err := r.Resolution(res); err != nil {
			return err
		}
	}

	if len(missing) > 0 {
		return zerr.With(zerr.Wrap(domain.ErrPackageNotFound, "packages are not locked"), "packages", missing)
	}
	return nil
}

// List prints every locked package.
func (a *App) List(_ context.Context, w io.Writer, format string) error {
	data, _, err := a.readLockfile(a.settings.LockfilePath, true)
	if err != nil {
		return err
	}

	r := render.New(w)
	switch format {
	case FormatTable, "":
		return r.Table(data.Packages)
	case FormatFreeze:
		return r.Freeze(data.Packages)
	default:
		return zerr.With(zerr.Wrap(domain.ErrInvalidSetting, "unknown list format"), "format", format)
	}
}

// Check analyzes every declared edge of the manifest.
// Cycles fail the check only under the error policy.
func (a *App) Check(ctx context.Context, w io.Writer) error {
	m, err := a.loadManifest(ctx)
	if err != nil {
		return err
	}

	an := a.planner.Analyze(m)
	if err := render.New(w).Check(render.CheckReport{
		Nodes:      an.Nodes,
		Edges:      an.Edges,
		Cycles:     an.Cycles,
		Components: an.Components,
		Order:      an.Order,
		Acyclic:    an.Acyclic,
	}); err != nil {
		return err
	}

	if len(an.Cycles) > 0 && a.settings.Policy == domain.PolicyError {
		return zerr.With(zerr.Wrap(domain.ErrCycleDetected, "manifest has dependency cycles"), "cycles", len(an.Cycles))
	}
	return nil
}

// MergeOptions configuration for the Merge method.
type MergeOptions struct {
	// Output is the lockfile to write. Empty means the configured lockfile.
	Output string
	// Inputs are the lockfiles to join.
	Inputs []string
	// AllowConflicts writes the result without failing on concurrent writes.
	AllowConflicts bool
}

// Merge joins several lockfiles into one. The inputs are read concurrently and folded in order.
func (a *App) Merge(ctx context.Context, w io.Writer, opts MergeOptions) error {
	if len(opts.Inputs) == 0 {
		return zerr.Wrap(domain.ErrInvalidSetting, "merge needs at least one input")
	}
	out := opts.Output
	if out == "" {
		out = a.settings.LockfilePath
	}

	unlock, err := a.store.Lock(ctx, out)
	if err != nil {
		return zerr.Wrap(err, "failed to lock lockfile")
	}
	defer func() {
		if errUnlock := unlock(); errUnlock != nil {
			a.logger.Warn("failed to release lockfile lock: " + errUnlock.Error())
		}
	}()

	inputs := make([]domain.LockfileData, len(opts.Inputs))
	err = a.phase(ctx, "load lockfiles", func(_ context.Context) error {
		var g errgroup.Group
		for i, path := range opts.Inputs {
			g.Go(func() error {
				data, _, err := a.readLockfile(path, true)
				if err != nil {
					return err
				}
				inputs[i] = data
				return nil
			})
		}
		return g.Wait()
	})
	if err != nil {
		return err
	}

	merged := inputs[0]
	var conflicts []domain.Conflict
	err = a.phase(ctx, "merge", func(_ context.Context) error {
		for _, in := range inputs[1:] {
			conflicts = append(conflicts, merged.Merge(in)...)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if err := a.write(ctx, out, merged); err != nil {
		return err
	}
	a.logger.Info(fmt.Sprintf("merged %d lockfiles into %s (%d packages)", len(inputs), out, len(merged.Packages)))

	a.journalRun(ctx, "merge", out, len(merged.Packages), nil, conflicts)

	if err := render.New(w).Conflicts(merged.Conflicts); err != nil {
		return err
	}
	if len(merged.Conflicts) > 0 && !opts.AllowConflicts {
		return zerr.With(zerr.Wrap(domain.ErrLockfileConflicts, "merge produced conflicts"), "conflicts", len(merged.Conflicts))
	}
	return nil
}

// Verify checks the integrity of the lockfile at path and prints a report.
// Empty path means the configured lockfile.
func (a *App) Verify(_ context.Context, w io.Writer, path string) error {
	if path == "" {
		path = a.settings.LockfilePath
	}
	b, ok, err := a.store.Read(path)
	if err != nil {
		return zerr.Wrap(err, "failed to read lockfile")
	}
	if !ok {
		return zerr.With(zerr.Wrap(domain.ErrLockfileNotFound, "no lockfile at path"), "path", path)
	}

	rep := lockfmt.Inspect(b)
	if err := render.New(w).Verify(path, rep); err != nil {
		return err
	}
	if !rep.OK() {
		return zerr.With(zerr.Wrap(rep.Err, "lockfile failed verification"), "path", path)
	}
	return nil
}

// Affected prints the packages that transitively depend on name.
func (a *App) Affected(ctx context.Context, w io.Writer, name string) error {
	m, err := a.loadManifest(ctx)
	if err != nil {
		return err
	}
	name = domain.NormalizeName(name)
	if _, ok := m.Declaration(name); !ok && !m.IsWorkspace(name) {
		return zerr.With(zerr.Wrap(domain.ErrPackageNotFound, "package is not declared"), "package", name)
	}
	return render.New(w).Names(a.planner.Affected(m, name))
}

// History prints the stored lockfile snapshots.
func (a *App) History(_ context.Context, w io.Writer) error {
	snaps, err := a.history.List()
	if err != nil {
		return zerr.Wrap(err, "failed to list history")
	}
	return render.New(w).History(snaps)
}

// Restore writes a stored snapshot back to path. Empty path means the configured lockfile.
func (a *App) Restore(ctx context.Context, prefix, path string) error {
	if path == "" {
		path = a.settings.LockfilePath
	}

	snap, b, err := a.history.Get(prefix)
	if err != nil {
		return err
	}
	if _, err := lockfmt.Deserialize(b); err != nil {
		return zerr.With(zerr.Wrap(err, "snapshot does not decode"), "digest", snap.Digest)
	}

	unlock, err := a.store.Lock(ctx, path)
	if err != nil {
		return zerr.Wrap(err, "failed to lock lockfile")
	}
	defer func() {
		if errUnlock := unlock(); errUnlock != nil {
			a.logger.Warn("failed to release lockfile lock: " + errUnlock.Error())
		}
	}()

	if err := a.store.Write(path, b); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to write lockfile"), "path", path)
	}
	a.logger.Info(fmt.Sprintf("restored %s to %s", snap.ShortDigest(), path))
	a.journalRun(ctx, "restore", path, snap.Packages, nil, nil)
	return nil
}

// Audit prints the most recent journaled runs.
func (a *App) Audit(ctx context.Context, w io.Writer, limit int) error {
	if limit <= 0 {
		limit = DefaultAuditLimit
	}
	runs, err := a.journal.Recent(ctx, limit)
	if err != nil {
		return zerr.Wrap(err, "failed to read audit journal")
	}
	return render.New(w).Audit(runs)
}

// Hash prints the integrity digest of a package archive, or of every archive under a directory.
func (a *App) Hash(_ context.Context, w io.Writer, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return zerr.With(zerr.Wrap(err, "nothing to hash"), "path", path)
		}
		return zerr.Wrap(err, "failed to stat path")
	}

	var digests []domain.FileDigest
	if info.IsDir() {
		digests, err = a.hasher.HashDir(path)
	} else {
		var sum [domain.IntegritySize]byte
		sum, err = a.hasher.HashFile(path)
		digests = []domain.FileDigest{{Path: path, Integrity: sum}}
	}
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to hash"), "path", path)
	}
	return render.New(w).Digests(digests)
}
