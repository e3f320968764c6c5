package app

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/pinlock/internal/adapters/audit"              //nolint:depguard // Wired in app layer
	"go.trai.ch/pinlock/internal/adapters/cas"                //nolint:depguard // Wired in app layer
	"go.trai.ch/pinlock/internal/adapters/config"             //nolint:depguard // Wired in app layer
	"go.trai.ch/pinlock/internal/adapters/fs"                 //nolint:depguard // Wired in app layer
	"go.trai.ch/pinlock/internal/adapters/logger"             //nolint:depguard // Wired in app layer
	"go.trai.ch/pinlock/internal/adapters/settings"           //nolint:depguard // Wired in app layer
	"go.trai.ch/pinlock/internal/adapters/telemetry/progrock" //nolint:depguard // Wired in app layer
	"go.trai.ch/pinlock/internal/core/domain"
	"go.trai.ch/pinlock/internal/core/ports"
	"go.trai.ch/pinlock/internal/engine/planner"
	"go.trai.ch/pinlock/internal/engine/resolver"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

func init() {
	// App Node
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			settings.NodeID,
			logger.NodeID,
			config.NodeID,
			fs.StoreNodeID,
			fs.HasherNodeID,
			cas.NodeID,
			audit.NodeID,
			progrock.NodeID,
			planner.NodeID,
			resolver.NodeID,
		},
		Run: runAppNode,
	})

	// Components Node
	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			AppNodeID,
			logger.NodeID,
			progrock.NodeID,
			audit.NodeID,
		},
		Run: runComponentsNode,
	})
}

//nolint:cyclop // one lookup per dependency
func runAppNode(ctx context.Context) (*App, error) {
	s, err := graft.Dep[domain.Settings](ctx)
	if err != nil {
		return nil, err
	}

	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}

	manifests, err := graft.Dep[ports.ManifestLoader](ctx)
	if err != nil {
		return nil, err
	}

	store, err := graft.Dep[ports.LockfileStore](ctx)
	if err != nil {
		return nil, err
	}

	hasher, err := graft.Dep[ports.Hasher](ctx)
	if err != nil {
		return nil, err
	}

	history, err := graft.Dep[ports.HistoryStore](ctx)
	if err != nil {
		return nil, err
	}

	journal, err := graft.Dep[ports.AuditJournal](ctx)
	if err != nil {
		return nil, err
	}

	telemetry, err := graft.Dep[ports.Telemetry](ctx)
	if err != nil {
		return nil, err
	}

	plan, err := graft.Dep[*planner.Planner](ctx)
	if err != nil {
		return nil, err
	}

	res, err := graft.Dep[*resolver.Resolver](ctx)
	if err != nil {
		return nil, err
	}

	return New(s, log, manifests, store, history, journal, hasher, telemetry, plan, res), nil
}

func runComponentsNode(ctx context.Context) (*Components, error) {
	app, err := graft.Dep[*App](ctx)
	if err != nil {
		return nil, err
	}

	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}

	telemetry, err := graft.Dep[ports.Telemetry](ctx)
	if err != nil {
		return nil, err
	}

	journal, err := graft.Dep[ports.AuditJournal](ctx)
	if err != nil {
		return nil, err
	}

	return NewComponents(app, log, telemetry, journal), nil
}
