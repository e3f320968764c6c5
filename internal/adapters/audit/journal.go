// Package audit keeps a SQLite journal of every command that wrote a lockfile.
package audit

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.trai.ch/pinlock/internal/core/domain"
	"go.trai.ch/pinlock/internal/core/ports"
	"go.trai.ch/zerr"
	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

var _ ports.AuditJournal = (*Journal)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	command TEXT NOT NULL,
	lockfile TEXT NOT NULL,
	packages INTEGER NOT NULL DEFAULT 0,
	started_at TEXT NOT NULL,
	finished_at TEXT
);
CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at DESC);

CREATE TABLE IF NOT EXISTS broken_edges (
	run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	from_pkg TEXT NOT NULL,
	to_pkg TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_broken_edges_run ON broken_edges(run_id);

CREATE TABLE IF NOT EXISTS conflicts (
	run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	package TEXT NOT NULL,
	kept TEXT NOT NULL,
	discarded TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_conflicts_run ON conflicts(run_id);
`

var pragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA synchronous=NORMAL",
	"PRAGMA foreign_keys=ON",
	"PRAGMA busy_timeout=5000",
}

// Journal implements ports.AuditJournal on SQLite. The database is opened on first use.
type Journal struct {
	path string
	conn *sql.DB
	now  func() time.Time
}

// NewJournal creates a journal backed by the database at path.
func NewJournal(path string) *Journal {
	return &Journal{path: path, now: time.Now}
}

func (j *Journal) db(ctx context.Context) (*sql.DB, error) {
	if j.conn != nil {
		return j.conn, nil
	}

	if err := os.MkdirAll(filepath.Dir(j.path), 0o750); err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to create audit directory"), "path", j.path)
	}

	conn, err := sql.Open("sqlite", j.path)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to open audit database"), "path", j.path)
	}
	for _, pragma := range pragmas {
		if _, err := conn.ExecContext(ctx, pragma); err != nil {
			_ = conn.Close()
			return nil, zerr.With(zerr.Wrap(err, "failed to set pragma"), "pragma", pragma)
		}
	}
	if _, err := conn.ExecContext(ctx, schema); err != nil {
		_ = conn.Close()
		return nil, zerr.Wrap(err, "failed to initialize audit schema")
	}

	j.conn = conn
	return conn, nil
}

func (j *Journal) timestamp() string {
	return j.now().UTC().Format(time.RFC3339Nano)
}

// Begin opens a run and returns its identifier.
func (j *Journal) Begin(ctx context.Context, command, lockfile string) (string, error) {
	conn, err := j.db(ctx)
	if err != nil {
		return "", err
	}

	id := uuid.NewString()
	_, err = conn.ExecContext(ctx,
		`INSERT INTO runs (id, command, lockfile, started_at) VALUES (?, ?, ?, ?)`,
		id, command, lockfile, j.timestamp(),
	)
	if err != nil {
		return "", zerr.With(zerr.Wrap(err, "failed to record run"), "command", command)
	}
	return id, nil
}

// RecordBrokenEdges attaches edges removed under the break policy to a run.
func (j *Journal) RecordBrokenEdges(ctx context.Context, runID string, edges []domain.Edge) error {
	if len(edges) == 0 {
		return nil
	}
	return j.insertMany(ctx, `INSERT INTO broken_edges (run_id, from_pkg, to_pkg) VALUES (?, ?, ?)`, len(edges), func(i int) []any {
		return []any{runID, edges[i].From, edges[i].To}
	})
}

// RecordConflicts attaches merge conflicts to a run.
func (j *Journal) RecordConflicts(ctx context.Context, runID string, conflicts []domain.Conflict) error {
	if len(conflicts) == 0 {
		return nil
	}
	return j.insertMany(ctx, `INSERT INTO conflicts (run_id, package, kept, discarded) VALUES (?, ?, ?, ?)`, len(conflicts), func(i int) []any {
		c := conflicts[i]
		return []any{runID, c.Name, c.Kept.Version.String(), c.Discarded.Version.String()}
	})
}

func (j *Journal) insertMany(ctx context.Context, query string, n int, args func(int) []any) error {
	conn, err := j.db(ctx)
	if err != nil {
		return err
	}

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return zerr.Wrap(err, "failed to begin audit transaction")
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return zerr.Wrap(err, "failed to prepare audit statement")
	}
	defer func() { _ = stmt.Close() }()

	for i := range n {
		if _, err := stmt.ExecContext(ctx, args(i)...); err != nil {
			return zerr.Wrap(err, "failed to insert audit row")
		}
	}
	if err := tx.Commit(); err != nil {
		return zerr.Wrap(err, "failed to commit audit transaction")
	}
	return nil
}

// Finish closes a run.
func (j *Journal) Finish(ctx context.Context, runID string, packages int) error {
	conn, err := j.db(ctx)
	if err != nil {
		return err
	}
	res, err := conn.ExecContext(ctx,
		`UPDATE runs SET packages = ?, finished_at = ? WHERE id = ?`,
		packages, j.timestamp(), runID,
	)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to finish run"), "run_id", runID)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return zerr.With(zerr.New("unknown audit run"), "run_id", runID)
	}
	return nil
}

// Recent returns the latest runs, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]domain.AuditRun, error) {
	conn, err := j.db(ctx)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 20
	}

	rows, err := conn.QueryContext(ctx,
		`SELECT id, command, lockfile, packages, started_at, COALESCE(finished_at, '')
		 FROM runs ORDER BY started_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to query audit runs")
	}

	var runs []domain.AuditRun
	for rows.Next() {
		var run domain.AuditRun
		var started, finished string
		if err := rows.Scan(&run.ID, &run.Command, &run.Lockfile, &run.Packages, &started, &finished); err != nil {
			_ = rows.Close()
			return nil, zerr.Wrap(err, "failed to scan audit run")
		}
		run.Started, _ = time.Parse(time.RFC3339Nano, started)
		if finished != "" {
			run.Finished, _ = time.Parse(time.RFC3339Nano, finished)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, zerr.Wrap(err, "failed to read audit runs")
	}
	_ = rows.Close()

	for i := range runs {
		if err := j.attach(ctx, conn, &runs[i]); err != nil {
			return nil, err
		}
	}
	return runs, nil
}

func (j *Journal) attach(ctx context.Context, conn *sql.DB, run *domain.AuditRun) error {
	edges, err := conn.QueryContext(ctx,
		`SELECT from_pkg, to_pkg FROM broken_edges WHERE run_id = ? ORDER BY rowid`, run.ID)
	if err != nil {
		return zerr.Wrap(err, "failed to query broken edges")
	}
	for edges.Next() {
		var e domain.Edge
		if err := edges.Scan(&e.From, &e.To); err != nil {
			_ = edges.Close()
			return zerr.Wrap(err, "failed to scan broken edge")
		}
		run.BrokenEdges = append(run.BrokenEdges, e)
	}
	err = edges.Err()
	_ = edges.Close()
	if err != nil {
		return zerr.Wrap(err, "failed to read broken edges")
	}

	conflicts, err := conn.QueryContext(ctx,
		`SELECT package, kept, discarded FROM conflicts WHERE run_id = ? ORDER BY rowid`, run.ID)
	if err != nil {
		return zerr.Wrap(err, "failed to query conflicts")
	}
	defer func() { _ = conflicts.Close() }()
	for conflicts.Next() {
		var name, kept, discarded string
		if err := conflicts.Scan(&name, &kept, &discarded); err != nil {
			return zerr.Wrap(err, "failed to scan conflict")
		}
		run.Conflicts = append(run.Conflicts, name+": kept "+kept+", discarded "+discarded)
	}
	return conflicts.Err()
}

// Close closes the database connection.
func (j *Journal) Close() error {
	if j.conn != nil {
		err := j.conn.Close()
		j.conn = nil
		return err
	}
	return nil
}
