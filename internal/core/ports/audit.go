package ports

import (
	"context"

	"go.trai.ch/pinlock/internal/core/domain"
)

// AuditJournal records every command that wrote a lockfile, with the cycles
// it broke and the conflicts it surfaced.
//
//go:generate mockgen -source=audit.go -destination=mocks/mock_audit.go -package=mocks
type AuditJournal interface {
	// Begin opens a run and returns its identifier.
	Begin(ctx context.Context, command, lockfile string) (string, error)

	// RecordBrokenEdges attaches edges removed under the break policy to a run.
	RecordBrokenEdges(ctx context.Context, runID string, edges []domain.Edge) error

	// RecordConflicts attaches merge conflicts to a run.
	RecordConflicts(ctx context.Context, runID string, conflicts []domain.Conflict) error

	// Finish closes a run.
	Finish(ctx context.Context, runID string, packages int) error

	// Recent returns the latest runs, newest first.
	Recent(ctx context.Context, limit int) ([]domain.AuditRun, error)
}
