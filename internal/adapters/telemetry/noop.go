// Package telemetry provides telemetry adapters that do not record anything.
package telemetry

import (
	"context"
	"io"

	"go.trai.ch/pinlock/internal/core/ports"
)

var _ ports.Telemetry = (*Noop)(nil)

// Noop is a no-op implementation of ports.Telemetry.
type Noop struct{}

// NewNoop creates a new Noop telemetry.
func NewNoop() *Noop {
	return &Noop{}
}

// Record returns ctx unchanged and a vertex that discards everything.
func (t *Noop) Record(ctx context.Context, _ string) (context.Context, ports.Vertex) {
	return ctx, noopVertex{}
}

// Close does nothing.
func (t *Noop) Close() error {
	return nil
}

type noopVertex struct{}

func (noopVertex) Stdout() io.Writer { return io.Discard }
func (noopVertex) Complete(error)    {}
func (noopVertex) Cached()           {}
