package audit

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/pinlock/internal/adapters/settings"
	"go.trai.ch/pinlock/internal/core/domain"
	"go.trai.ch/pinlock/internal/core/ports"
)

// NodeID is the unique identifier for the audit journal Graft node.
const NodeID graft.ID = "adapter.audit"

func init() {
	graft.Register(graft.Node[ports.AuditJournal]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{settings.NodeID},
		Run: func(ctx context.Context) (ports.AuditJournal, error) {
			s, err := graft.Dep[domain.Settings](ctx)
			if err != nil {
				return nil, err
			}
			return NewJournal(s.AuditDB), nil
		},
	})
}
