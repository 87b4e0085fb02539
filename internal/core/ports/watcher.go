package ports

import (
	"context"
	"iter"
)

// WatchEvent signals that a watched file changed.
type WatchEvent struct {
	// Path is the absolute path of the file that changed.
	Path string
}

// Watcher defines the interface for watching a lockfile for changes.
type Watcher interface {
	// Start begins watching the given file.
	Start(ctx context.Context, path string) error
	// Stop stops the watcher and releases all resources.
	Stop() error
	// Events returns an iterator of change events.
	Events() iter.Seq[WatchEvent]
}
