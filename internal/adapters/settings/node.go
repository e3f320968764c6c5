package settings

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/pinlock/internal/core/domain"
)

// NodeID is the unique identifier for the settings Graft node.
const NodeID graft.ID = "adapter.settings"

func init() {
	graft.Register(graft.Node[domain.Settings]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (domain.Settings, error) {
			return Load("")
		},
	})
}
