package lockfile

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/burrow/internal/adapters/logger"
	"go.trai.ch/burrow/internal/core/ports"
)

// NodeID is the unique identifier for the lockfile parser Graft node.
const NodeID graft.ID = "adapter.lockfile_parser"

func init() {
	graft.Register(graft.Node[ports.LockfileParser]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{logger.NodeID},
		Run: func(ctx context.Context) (ports.LockfileParser, error) {
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return NewParser(log), nil
		},
	})
}
