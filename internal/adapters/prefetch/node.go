package prefetch

import (
	"context"
	"os"

	"github.com/grindlemire/graft"
	"go.trai.ch/burrow/internal/adapters/config"
	"go.trai.ch/burrow/internal/adapters/logger"
	"go.trai.ch/burrow/internal/core/ports"
)

// NodeID is the unique identifier for the prefetcher Graft node.
const NodeID graft.ID = "adapter.prefetcher"

func init() {
	graft.Register(graft.Node[ports.Prefetcher]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{logger.NodeID, config.NodeID},
		Run: func(ctx context.Context) (ports.Prefetcher, error) {
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			loader, err := graft.Dep[ports.ConfigLoader](ctx)
			if err != nil {
				return nil, err
			}

			cwd, err := os.Getwd()
			if err != nil {
				return nil, err
			}
			cfg, err := loader.Load(cwd)
			if err != nil {
				return nil, err
			}

			cache, err := OpenCache(ctx, cfg.PrefetchCache)
			if err != nil {
				// A broken cache degrades to uncached prefetching.
				log.Warn("prefetch cache unavailable: " + err.Error())
				cache = nil
			}
			return NewFetcher(log, cache, cfg.StoreDir), nil
		},
	})
}
