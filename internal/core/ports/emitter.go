package ports

import "go.trai.ch/burrow/internal/core/domain"

// Emitter serializes a manifest into the build system's expression syntax.
//
//go:generate mockgen -source=emitter.go -destination=mocks/mock_emitter.go -package=mocks
type Emitter interface {
	// Emit renders the manifest. The output is byte-stable: emitting the
	// same manifest twice yields identical bytes.
	Emit(m *domain.Manifest) ([]byte, error)
}
