package ports

import "go.trai.ch/burrow/internal/core/domain"

// LockfileParser decodes raw lockfile bytes into a dependency graph.
//
//go:generate mockgen -source=parser.go -destination=mocks/mock_parser.go -package=mocks
type LockfileParser interface {
	// Parse decodes the lockfile and returns a validated graph. The graph's
	// fingerprint is set from the raw bytes so manifest regeneration can be
	// checked for staleness.
	Parse(data []byte) (*domain.Graph, error)
}
