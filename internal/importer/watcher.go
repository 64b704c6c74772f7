package importer

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	stdsync "sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// WatcherConfig holds configuration for the import watcher.
type WatcherConfig struct {
	// DebounceInterval is how long a file must be quiet before it is
	// imported. This batches editors that write in multiple passes.
	DebounceInterval time.Duration

	// PollInterval is how often the pending set is checked.
	PollInterval time.Duration

	// Logger for watcher activity.
	Logger *log.Logger
}

// DefaultWatcherConfig returns sensible defaults.
func DefaultWatcherConfig() *WatcherConfig {
	return &WatcherConfig{
		DebounceInterval: 200 * time.Millisecond,
		PollInterval:     100 * time.Millisecond,
		Logger:           log.New(os.Stderr, "[import] ", log.LstdFlags),
	}
}

// Watcher watches a drop directory and imports *.json files as they land.
type Watcher struct {
	svc    Creator
	dir    string
	config *WatcherConfig

	watcher *fsnotify.Watcher

	mu      stdsync.Mutex
	pending map[string]time.Time // path -> last event time
}

// NewWatcher creates a watcher for dir. Use Run to start it.
func NewWatcher(svc Creator, dir string, config *WatcherConfig) (*Watcher, error) {
	if svc == nil {
		return nil, fmt.Errorf("svc cannot be nil")
	}
	if dir == "" {
		return nil, fmt.Errorf("dir cannot be empty")
	}
	if config == nil {
		config = DefaultWatcherConfig()
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	return &Watcher{
		svc:     svc,
		dir:     dir,
		config:  config,
		watcher: fw,
		pending: make(map[string]time.Time),
	}, nil
}

// Run imports whatever is already in the directory, then watches for new
// files until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	if count, errs := ImportDir(ctx, w.svc, w.dir); count > 0 || len(errs) > 0 {
		w.config.Logger.Printf("Initial import: %d task(s), %d failure(s)", count, len(errs))
		for _, err := range errs {
			w.config.Logger.Printf("Warning: %v", err)
		}
	}

	if err := w.watcher.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch import directory %s: %w", w.dir, err)
	}
	w.config.Logger.Printf("Watching %s", w.dir)

	ticker := time.NewTicker(w.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !strings.HasSuffix(event.Name, ".json") {
				continue
			}
			if event.Has(fsnotify.Create) || event.Has(fsnotify.Write) {
				w.mu.Lock()
				w.pending[event.Name] = time.Now()
				w.mu.Unlock()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.config.Logger.Printf("Watch error: %v", err)

		case <-ticker.C:
			w.flush(ctx)
		}
	}
}

// flush imports every pending path that has been quiet for the debounce
// interval. Import failures are logged and the file is dropped from the
// pending set; a later write re-queues it.
func (w *Watcher) flush(ctx context.Context) {
	now := time.Now()

	w.mu.Lock()
	var ready []string
	for path, last := range w.pending {
		if now.Sub(last) >= w.config.DebounceInterval {
			ready = append(ready, path)
			delete(w.pending, path)
		}
	}
	w.mu.Unlock()

	for _, path := range ready {
		created, err := ImportFile(ctx, w.svc, path)
		if err != nil {
			w.config.Logger.Printf("Warning: %v", err)
			continue
		}
		w.config.Logger.Printf("Imported %s (%s)", created.ID, created.Title)
	}
}
