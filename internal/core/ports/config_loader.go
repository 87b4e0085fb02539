package ports

import "go.trai.ch/burrow/internal/core/domain"

// ConfigLoader resolves the tool configuration for a working directory.
//
//go:generate mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks
type ConfigLoader interface {
	// Load walks up from cwd looking for a burrow.yaml and returns the
	// parsed configuration, or defaults if none exists.
	Load(cwd string) (*domain.Config, error)
}
