package ports

import (
	"context"

	"go.trai.ch/burrow/internal/core/domain"
)

// Prefetcher fills in missing integrity hashes by fetching package content
// at conversion time. Builds themselves never fetch; this runs only while
// the manifest is being generated.
//
//go:generate mockgen -source=prefetcher.go -destination=mocks/mock_prefetcher.go -package=mocks
type Prefetcher interface {
	// Prefetch downloads content for every entry whose descriptor lacks an
	// integrity hash and records the computed SRI hash on the entry.
	Prefetch(ctx context.Context, m *domain.Manifest) error

	// Close releases the underlying cache resources.
	Close() error
}
