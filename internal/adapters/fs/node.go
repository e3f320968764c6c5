package fs

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/pinlock/internal/core/ports"
)

const (
	// WalkerNodeID is the unique identifier for the archive walker Graft node.
	WalkerNodeID graft.ID = "adapter.fs.walker"
	// HasherNodeID is the unique identifier for the integrity hasher Graft node.
	HasherNodeID graft.ID = "adapter.fs.hasher"
	// StoreNodeID is the unique identifier for the lockfile store Graft node.
	StoreNodeID graft.ID = "adapter.fs.store"
)

func init() {
	graft.Register(graft.Node[*Walker]{
		ID:        WalkerNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (*Walker, error) {
			return NewWalker(), nil
		},
	})

	graft.Register(graft.Node[ports.Hasher]{
		ID:        HasherNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{WalkerNodeID},
		Run: func(ctx context.Context) (ports.Hasher, error) {
			walker, err := graft.Dep[*Walker](ctx)
			if err != nil {
				return nil, err
			}
			return NewHasher(walker), nil
		},
	})

	graft.Register(graft.Node[ports.LockfileStore]{
		ID:        StoreNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.LockfileStore, error) {
			return NewStore(), nil
		},
	})
}
