package ports

import (
	"context"

	"go.trai.ch/burrow/internal/core/domain"
)

// MaterializeOptions configures a single tree materialization.
type MaterializeOptions struct {
	// StoreDir holds pre-fetched, hash-verified package content, one
	// directory per manifest entry ID.
	StoreDir string
	// DestDir is the scratch directory the tree is built under. Callers
	// must give each concurrent build its own destination.
	DestDir string
	// WorkspaceRoot is the source tree workspace packages are linked from.
	WorkspaceRoot string
}

// Materializer reconstructs an installable dependency tree from a manifest
// and pre-fetched content. It performs no network access.
//
//go:generate mockgen -source=materializer.go -destination=mocks/mock_materializer.go -package=mocks
type Materializer interface {
	// Materialize builds the tree and returns it in the Ready state. On
	// failure no partial tree is left behind.
	Materialize(ctx context.Context, m *domain.Manifest, opts MaterializeOptions) (*domain.MaterializedTree, error)
}
