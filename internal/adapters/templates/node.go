package templates

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/burrow/internal/adapters/logger"
	"go.trai.ch/burrow/internal/core/ports"
)

// NodeID is the unique identifier for the template checker Graft node.
const NodeID graft.ID = "adapter.template_checker"

func init() {
	graft.Register(graft.Node[ports.TemplateChecker]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{logger.NodeID},
		Run: func(ctx context.Context) (ports.TemplateChecker, error) {
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return NewChecker(log), nil
		},
	})
}
