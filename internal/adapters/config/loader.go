// Package config provides the configuration loader for burrow.
package config

import (
	"os"
	"path/filepath"

	"go.trai.ch/burrow/internal/core/domain"
	"go.trai.ch/burrow/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// Loader implements ports.ConfigLoader using a YAML file.
type Loader struct {
	Logger ports.Logger
}

// NewLoader creates a new Loader with the given logger.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{Logger: logger}
}

// Load walks from cwd towards the filesystem root looking for burrow.yaml.
// The directory containing it becomes the project root. When no file is
// found, cwd itself is the root and all settings take their defaults; a
// missing config file is not an error.
func (l *Loader) Load(cwd string) (*domain.Config, error) {
	configPath, root := findConfiguration(cwd)

	cfg := domain.DefaultConfig(root)
	if configPath == "" {
		return cfg, nil
	}

	// #nosec G304 -- configPath is discovered by walking up from cwd
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, zerr.Wrap(err, domain.ErrConfigReadFailed.Error())
	}

	var dto fileDTO
	if parseErr := yaml.Unmarshal(data, &dto); parseErr != nil {
		parseErr = zerr.Wrap(parseErr, domain.ErrConfigParseFailed.Error())
		return nil, zerr.With(parseErr, "path", configPath)
	}

	if dto.Registry != "" {
		cfg.Registry = dto.Registry
	}
	if dto.PrefetchCache != "" {
		cfg.PrefetchCache = resolvePath(root, dto.PrefetchCache)
	}
	if dto.Store != "" {
		cfg.StoreDir = resolvePath(root, dto.Store)
	}
	if dto.Templates != "" {
		cfg.TemplatesDir = dto.Templates
	}

	return cfg, nil
}

// findConfiguration returns the config file path and the project root. An
// empty path means no config file exists anywhere above cwd.
func findConfiguration(cwd string) (configPath, root string) {
	currentDir := filepath.Clean(cwd)

	for {
		candidate := filepath.Join(currentDir, domain.ConfigFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, currentDir
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			// Reached root
			break
		}
		currentDir = parentDir
	}

	return "", filepath.Clean(cwd)
}

func resolvePath(root, p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Clean(filepath.Join(root, p))
}
