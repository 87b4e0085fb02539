package nixexpr

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/burrow/internal/core/ports"
)

// NodeID is the unique identifier for the Nix emitter Graft node.
const NodeID graft.ID = "adapter.nix_emitter"

func init() {
	graft.Register(graft.Node[ports.Emitter]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.Emitter, error) {
			return NewEmitter(), nil
		},
	})
}
