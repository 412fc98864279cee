package gps

import (
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/mediacutlet/nomadachi/internal/types"
)

// Watcher keeps a FileSource's cache warm by refreshing it whenever a
// candidate file changes. GPS files on tmpfs can vanish between writes; the
// cached fix carries across those gaps.
type Watcher struct {
	source *FileSource
	logger *zap.Logger

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	stopCh  chan struct{}
	doneCh  chan struct{}
	running bool
}

// NewWatcher wraps a FileSource with filesystem-event refreshing.
func NewWatcher(source *FileSource, logger *zap.Logger) *Watcher {
	return &Watcher{source: source, logger: logger}
}

// Start begins watching the candidate files' directories. Watch setup
// failure is not fatal: the source still reads on demand.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return nil
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		w.logger.Warn("gps watch unavailable, reading on demand", zap.Error(err))
		return nil
	}

	watching := false
	seen := make(map[string]bool)
	for _, path := range w.source.Paths() {
		dir := filepath.Dir(path)
		if seen[dir] {
			continue
		}
		seen[dir] = true
		if err := fsw.Add(dir); err != nil {
			w.logger.Debug("cannot watch gps dir", zap.String("dir", dir), zap.Error(err))
			continue
		}
		watching = true
	}

	if !watching {
		fsw.Close()
		w.logger.Warn("no gps directories watchable, reading on demand")
		return nil
	}

	w.watcher = fsw
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	w.running = true
	go w.run(fsw, w.stopCh, w.doneCh)

	// Prime the cache so the first event isn't the first read
	w.source.Refresh()
	return nil
}

// Stop stops the watcher and waits for the event loop to exit.
// Safe to call repeatedly or without a successful Start.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	fsw, stopCh, doneCh := w.watcher, w.stopCh, w.doneCh
	w.watcher = nil
	w.mu.Unlock()

	close(stopCh)
	<-doneCh
	fsw.Close()
}

// Current returns the source's current fix.
func (w *Watcher) Current() (types.Location, bool) {
	return w.source.Current()
}

func (w *Watcher) run(fsw *fsnotify.Watcher, stopCh, doneCh chan struct{}) {
	defer close(doneCh)

	wanted := make(map[string]bool, len(w.source.Paths()))
	for _, p := range w.source.Paths() {
		wanted[filepath.Clean(p)] = true
	}

	for {
		select {
		case <-stopCh:
			return

		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			if !wanted[filepath.Clean(event.Name)] {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			if _, ok := w.source.Refresh(); ok {
				w.logger.Debug("gps fix refreshed", zap.String("file", event.Name))
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.logger.Debug("gps watch error", zap.Error(err))
		}
	}
}
