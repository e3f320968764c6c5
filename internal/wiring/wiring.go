// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/pinlock/internal/adapters/audit"
	_ "go.trai.ch/pinlock/internal/adapters/cas"
	_ "go.trai.ch/pinlock/internal/adapters/config"
	_ "go.trai.ch/pinlock/internal/adapters/fs"
	_ "go.trai.ch/pinlock/internal/adapters/logger"
	_ "go.trai.ch/pinlock/internal/adapters/settings"
	_ "go.trai.ch/pinlock/internal/adapters/telemetry/progrock"
	// Register app and engine nodes.
	_ "go.trai.ch/pinlock/internal/app"
	_ "go.trai.ch/pinlock/internal/engine/planner"
	_ "go.trai.ch/pinlock/internal/engine/resolver"
)
