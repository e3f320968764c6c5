package cas

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/pinlock/internal/adapters/settings"
	"go.trai.ch/pinlock/internal/core/domain"
	"go.trai.ch/pinlock/internal/core/ports"
)

// NodeID is the unique identifier for the history store Graft node.
const NodeID graft.ID = "adapter.history_store"

func init() {
	graft.Register(graft.Node[ports.HistoryStore]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{settings.NodeID},
		Run: func(ctx context.Context) (ports.HistoryStore, error) {
			s, err := graft.Dep[domain.Settings](ctx)
			if err != nil {
				return nil, err
			}
			store, err := NewStore(s.HistoryDir)
			if err != nil {
				return nil, err
			}
			return store, nil
		},
	})
}
