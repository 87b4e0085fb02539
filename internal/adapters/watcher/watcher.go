// Package watcher implements lockfile watching for convert --watch.
package watcher

import (
	"context"
	"iter"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.trai.ch/burrow/internal/core/domain"
	"go.trai.ch/burrow/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Watcher = (*Watcher)(nil)

const eventChannelBuffer = 16

// debounceWindow coalesces the burst of events editors and package managers
// produce for a single logical save.
const debounceWindow = 200 * time.Millisecond

// Watcher implements ports.Watcher using fsnotify. It watches the
// lockfile's parent directory rather than the file itself, since most
// writers replace the file via rename, which would drop an inode watch.
type Watcher struct {
	logger    ports.Logger
	fsWatcher *fsnotify.Watcher
	path      string
	events    chan ports.WatchEvent

	mu    sync.Mutex
	timer *time.Timer
}

// NewWatcher creates a new lockfile watcher.
func NewWatcher(logger ports.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, zerr.Wrap(err, domain.ErrWatchFailed.Error())
	}
	return &Watcher{
		logger:    logger,
		fsWatcher: fsw,
		events:    make(chan ports.WatchEvent, eventChannelBuffer),
	}, nil
}

// Start begins watching the given lockfile.
func (w *Watcher) Start(ctx context.Context, path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return zerr.Wrap(err, domain.ErrWatchFailed.Error())
	}
	w.path = abs

	if err := w.fsWatcher.Add(filepath.Dir(abs)); err != nil {
		return zerr.Wrap(err, domain.ErrWatchFailed.Error())
	}

	go w.processEvents(ctx)

	return nil
}

// Stop stops the watcher and releases all resources.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	w.mu.Unlock()
	return w.fsWatcher.Close()
}

// Events returns an iterator of change events.
func (w *Watcher) Events() iter.Seq[ports.WatchEvent] {
	return func(yield func(ports.WatchEvent) bool) {
		for event := range w.events {
			if !yield(event) {
				return
			}
		}
	}
}

// processEvents filters raw fsnotify events down to debounced changes of
// the watched lockfile.
func (w *Watcher) processEvents(ctx context.Context) {
	defer close(w.events)

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if event.Name != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.bump(ctx)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			// Watch errors are transient; the loop keeps running.
			w.logger.Warn("lockfile watch error: " + err.Error())
		}
	}
}

// bump resets the debounce timer; the event fires once the burst settles.
func (w *Watcher) bump(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(debounceWindow, func() {
		select {
		case w.events <- ports.WatchEvent{Path: w.path}:
		case <-ctx.Done():
		}
	})
}
