package config

// fileDTO mirrors the burrow.yaml schema.
type fileDTO struct {
	// Registry overrides the npm registry base URL.
	Registry string `yaml:"registry"`
	// PrefetchCache overrides the prefetch database location.
	PrefetchCache string `yaml:"prefetch_cache"`
	// Store overrides the content store directory.
	Store string `yaml:"store"`
	// Templates overrides the flake templates directory, relative to the
	// project root.
	Templates string `yaml:"templates"`
}
