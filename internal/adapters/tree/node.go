package tree

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/burrow/internal/adapters/logger"
	"go.trai.ch/burrow/internal/core/ports"
)

// NodeID is the unique identifier for the tree materializer Graft node.
const NodeID graft.ID = "adapter.tree_materializer"

func init() {
	graft.Register(graft.Node[ports.Materializer]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{logger.NodeID},
		Run: func(ctx context.Context) (ports.Materializer, error) {
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return NewMaterializer(log), nil
		},
	})
}
