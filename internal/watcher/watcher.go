// Package watcher re-indexes the evidence source tree when its files change.
package watcher

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const defaultDebounce = 500 * time.Millisecond

// indexableExtensions mirrors the file types the indexer ingests.
var indexableExtensions = map[string]bool{
	".pdf":  true,
	".txt":  true,
	".md":   true,
	".docx": true,
	".xlsx": true,
}

// Watcher watches one source root recursively and invokes a single
// debounced callback when any indexable file is created, written, renamed,
// or removed. Bursts of events (editor saves, bulk copies) coalesce into
// one callback; the callback decides whether a rebuild is actually needed.
type Watcher struct {
	root     string
	onChange func()
	debounce time.Duration
	watcher  *fsnotify.Watcher
	logger   *zap.Logger

	mu       sync.Mutex
	timer    *time.Timer
	done     chan struct{}
	started  bool
	stopOnce sync.Once
}

// New creates a watcher for root. onChange is invoked after the debounce
// window closes behind the last relevant event.
func New(root string, onChange func(), logger *zap.Logger) *Watcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		root:     root,
		onChange: onChange,
		debounce: defaultDebounce,
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// Start begins watching. It runs until ctx is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return nil
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		w.mu.Unlock()
		return err
	}
	w.watcher = fsw
	w.started = true
	w.mu.Unlock()

	if err := w.addRecursive(w.root); err != nil {
		_ = fsw.Close()
		return err
	}
	w.logger.Info("watching source tree", zap.String("root", w.root))
	go w.run(ctx)
	return nil
}

// Stop stops the watcher and cancels any pending callback.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		w.mu.Lock()
		if w.timer != nil {
			w.timer.Stop()
			w.timer = nil
		}
		if w.watcher != nil {
			_ = w.watcher.Close()
		}
		w.mu.Unlock()
	})
}

func (w *Watcher) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return
		case <-w.done:
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(ev)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			if err != nil {
				w.logger.Debug("watch error", zap.Error(err))
			}
		}
	}
}

func (w *Watcher) handleEvent(ev fsnotify.Event) {
	// New subdirectories must be added to the watch before their contents
	// produce events.
	if ev.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			_ = w.addRecursive(ev.Name)
		}
	}
	if !indexableExtensions[strings.ToLower(filepath.Ext(ev.Name))] {
		return
	}
	if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}
	w.logger.Debug("source change", zap.String("file", ev.Name), zap.String("op", ev.Op.String()))
	w.scheduleCallback()
}

func (w *Watcher) scheduleCallback() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		select {
		case <-w.done:
			return
		default:
		}
		w.onChange()
	})
}

// addRecursive watches path and every directory below it. Non-directories
// are ignored; fsnotify delivers file events via their parent directory.
func (w *Watcher) addRecursive(path string) error {
	return filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.watcher.Add(p); err != nil {
			w.logger.Debug("cannot watch directory", zap.String("dir", p), zap.Error(err))
		}
		return nil
	})
}
