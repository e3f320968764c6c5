package ports

import (
	"context"
	"io"
)

//go:generate mockgen -source=telemetry.go -destination=mocks/mock_telemetry.go -package=mocks

// Telemetry records the phases of a command.
type Telemetry interface {
	// Record starts a new phase.
	Record(ctx context.Context, name string) (context.Context, Vertex)
	// Close flushes the recording session.
	Close() error
}

// Vertex is a single recorded phase.
type Vertex interface {
	// Stdout returns a writer for phase output.
	Stdout() io.Writer
	// Complete marks the phase as finished, successfully or with an error.
	Complete(err error)
	// Cached marks the phase as skipped because its result was already present.
	Cached()
}
