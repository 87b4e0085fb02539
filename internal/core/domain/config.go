package domain

// DefaultRegistry is the registry tarballs are addressed against when the
// config does not override it.
const DefaultRegistry = "https://registry.npmjs.org"

// Config holds the tool configuration, loaded from an optional burrow.yaml.
type Config struct {
	// Root is the directory the config was resolved against.
	Root string

	// Registry is the base URL registry tarball addresses are built from.
	Registry string

	// PrefetchCache is the path of the prefetch hash cache database.
	PrefetchCache string

	// StoreDir is the content store directory warmed by the prefetcher and
	// consumed by the materializer.
	StoreDir string

	// TemplatesDir is the directory scanned by the template version check.
	TemplatesDir string
}

// DefaultConfig returns the configuration used when no burrow.yaml exists.
func DefaultConfig(root string) *Config {
	return &Config{
		Root:          root,
		Registry:      DefaultRegistry,
		PrefetchCache: DefaultPrefetchCachePath(root),
		StoreDir:      DefaultStoreDir(root),
		TemplatesDir:  "templates",
	}
}
