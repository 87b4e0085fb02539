package app

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/burrow/internal/adapters/bun"       //nolint:depguard // Wired in app layer
	"go.trai.ch/burrow/internal/adapters/config"    //nolint:depguard // Wired in app layer
	"go.trai.ch/burrow/internal/adapters/lockfile"  //nolint:depguard // Wired in app layer
	"go.trai.ch/burrow/internal/adapters/logger"    //nolint:depguard // Wired in app layer
	"go.trai.ch/burrow/internal/adapters/nixexpr"   //nolint:depguard // Wired in app layer
	"go.trai.ch/burrow/internal/adapters/prefetch"  //nolint:depguard // Wired in app layer
	"go.trai.ch/burrow/internal/adapters/telemetry" //nolint:depguard // Wired in app layer
	"go.trai.ch/burrow/internal/adapters/templates" //nolint:depguard // Wired in app layer
	"go.trai.ch/burrow/internal/adapters/tree"      //nolint:depguard // Wired in app layer
	"go.trai.ch/burrow/internal/adapters/watcher"   //nolint:depguard // Wired in app layer
	"go.trai.ch/burrow/internal/core/ports"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

// Components contains all the initialized application components.
// This struct provides controlled access to components needed by the CLI layer.
type Components struct {
	App    *App
	Logger ports.Logger
}

func init() {
	// App Node
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.NodeID,
			lockfile.NodeID,
			nixexpr.NodeID,
			prefetch.NodeID,
			tree.NodeID,
			bun.NodeID,
			templates.NodeID,
			watcher.NodeID,
			logger.NodeID,
		},
		Run: runAppNode,
	})

	// Components Node
	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			AppNodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*Components, error) {
			application, err := graft.Dep[*App](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return &Components{App: application, Logger: log}, nil
		},
	})
}

func runAppNode(ctx context.Context) (*App, error) {
	loader, err := graft.Dep[ports.ConfigLoader](ctx)
	if err != nil {
		return nil, err
	}
	parser, err := graft.Dep[ports.LockfileParser](ctx)
	if err != nil {
		return nil, err
	}
	emitter, err := graft.Dep[ports.Emitter](ctx)
	if err != nil {
		return nil, err
	}
	prefetcher, err := graft.Dep[ports.Prefetcher](ctx)
	if err != nil {
		return nil, err
	}
	materializer, err := graft.Dep[ports.Materializer](ctx)
	if err != nil {
		return nil, err
	}
	toolchain, err := graft.Dep[ports.Toolchain](ctx)
	if err != nil {
		return nil, err
	}
	checker, err := graft.Dep[ports.TemplateChecker](ctx)
	if err != nil {
		return nil, err
	}
	fileWatcher, err := graft.Dep[ports.Watcher](ctx)
	if err != nil {
		return nil, err
	}
	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}

	// Phase spans become log lines through the bridge.
	telemetry.Setup(log)

	return New(loader, parser, emitter, prefetcher, materializer, toolchain, checker, fileWatcher, log), nil
}
