package app

import (
	"errors"
	"io"

	"go.trai.ch/pinlock/internal/core/ports"
)

// Components contains all the initialized application components.
// This struct provides controlled access to components needed by the CLI layer.
type Components struct {
	App       *App
	Logger    ports.Logger
	Telemetry ports.Telemetry
	Journal   ports.AuditJournal
}

// NewComponents creates a new Components struct from dependencies.
func NewComponents(app *App, logger ports.Logger, telemetry ports.Telemetry, journal ports.AuditJournal) *Components {
	return &Components{
		App:       app,
		Logger:    logger,
		Telemetry: telemetry,
		Journal:   journal,
	}
}

// Close releases the telemetry session and the audit journal.
func (c *Components) Close() error {
	errs := []error{c.Telemetry.Close()}
	if closer, ok := c.Journal.(io.Closer); ok {
		errs = append(errs, closer.Close())
	}
	return errors.Join(errs...)
}
