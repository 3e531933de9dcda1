package dataset

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// ChangeFunc is called with the resource name (relative to the watched
// directory) once a burst of edits to it has settled.
type ChangeFunc func(name string)

// Watcher watches a data directory and reports settled changes to data
// files.
type Watcher struct {
	mu          sync.Mutex
	watcher     *fsnotify.Watcher
	dir         string
	onChange    ChangeFunc
	logger      *zap.Logger
	debounceMap map[string]time.Time
	debounceDur time.Duration
	stopCh      chan struct{}
	doneCh      chan struct{}
	running     bool
}

// NewWatcher creates a watcher for dir. Nothing is watched until Start.
func NewWatcher(dir string, onChange ChangeFunc, logger *zap.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		watcher:     fw,
		dir:         dir,
		onChange:    onChange,
		logger:      logger,
		debounceMap: make(map[string]time.Time),
		debounceDur: 200 * time.Millisecond,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}, nil
}

// SetDebounce changes how long a file must be quiet before it is reported.
func (w *Watcher) SetDebounce(d time.Duration) {
	w.mu.Lock()
	w.debounceDur = d
	w.mu.Unlock()
}

// Start begins watching. It does not block.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	if err := w.watcher.Add(w.dir); err != nil {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		return err
	}
	w.logger.Info("watching data directory", zap.String("dir", w.dir))

	go w.run(ctx)
	return nil
}

// Stop stops the watcher and waits for its goroutine to exit. It is safe
// to call after the context passed to Start was cancelled.
func (w *Watcher) Stop() {
	w.mu.Lock()
	wasRunning := w.running
	w.running = false
	w.mu.Unlock()

	if wasRunning {
		close(w.stopCh)
		<-w.doneCh
	}
	if err := w.watcher.Close(); err != nil {
		w.logger.Warn("closing watcher", zap.Error(err))
	}
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("watcher error", zap.Error(err))
		case <-ticker.C:
			w.flush()
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return
	}
	rel, err := filepath.Rel(w.dir, event.Name)
	if err != nil {
		rel = filepath.Base(event.Name)
	}
	rel = filepath.ToSlash(rel)
	if !IsDataFile(rel) {
		return
	}

	w.mu.Lock()
	w.debounceMap[rel] = time.Now()
	w.mu.Unlock()
}

// flush reports files that have been quiet for the debounce window.
func (w *Watcher) flush() {
	w.mu.Lock()
	now := time.Now()
	var settled []string
	for name, at := range w.debounceMap {
		if now.Sub(at) >= w.debounceDur {
			settled = append(settled, name)
			delete(w.debounceMap, name)
		}
	}
	w.mu.Unlock()

	for _, name := range settled {
		w.logger.Info("data file changed", zap.String("resource", name))
		if w.onChange != nil {
			w.onChange(name)
		}
	}
}
