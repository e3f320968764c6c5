package planner

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/pinlock/internal/adapters/logger" //nolint:depguard // Wired in engine wiring
	"go.trai.ch/pinlock/internal/core/ports"
)

// NodeID is the unique identifier for the planner Graft node.
const NodeID graft.ID = "engine.planner"

func init() {
	graft.Register(graft.Node[*Planner]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*Planner, error) {
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return New(log), nil
		},
	})
}
