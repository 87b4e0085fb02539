// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/burrow/internal/adapters/bun"
	_ "go.trai.ch/burrow/internal/adapters/config"
	_ "go.trai.ch/burrow/internal/adapters/lockfile"
	_ "go.trai.ch/burrow/internal/adapters/logger"
	_ "go.trai.ch/burrow/internal/adapters/nixexpr"
	_ "go.trai.ch/burrow/internal/adapters/prefetch"
	_ "go.trai.ch/burrow/internal/adapters/templates"
	_ "go.trai.ch/burrow/internal/adapters/tree"
	_ "go.trai.ch/burrow/internal/adapters/watcher"
	// Register app nodes.
	_ "go.trai.ch/burrow/internal/app"
)
