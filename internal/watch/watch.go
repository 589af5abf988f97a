// Package watch provides a "watch the working tree, debounce, act" loop
// for a workspace. Filesystem events are coalesced per path so that rapid
// saves from survey tools (GPKG write-ahead logs, photo imports) trigger
// one action instead of dozens.
//
// Typical usage:
//
//	w, _ := watch.New(ws, watch.Options{Debounce: 2 * time.Second})
//	w.Run(ctx, func(paths []string) { syncer.Push() })
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/fieldsync-labs/fieldsync/internal/scan"
	"github.com/fieldsync-labs/fieldsync/internal/workspace"
)

// Options tunes the watcher behaviour.
type Options struct {
	// Debounce is the quiet period after the last event on a path before
	// the action fires for it. Further events reset the window.
	// Default: 500ms.
	Debounce time.Duration
	// Poll is how often settled paths are checked for. Default: 100ms.
	Poll time.Duration
	// Logger overrides the default no-op logger.
	Logger *zap.Logger
}

func (o *Options) defaults() {
	if o.Debounce <= 0 {
		o.Debounce = 500 * time.Millisecond
	}
	if o.Poll <= 0 {
		o.Poll = 100 * time.Millisecond
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
}

// Stats are point-in-time counters.
type Stats struct {
	Events int64 `json:"events"`
	Fires  int64 `json:"fires"`
	Errors int64 `json:"errors"`
}

// Watcher observes a workspace's working tree recursively. Paths under the
// metadata dir and conflict copies never produce events.
type Watcher struct {
	ws   *workspace.Workspace
	opts Options
	fsw  *fsnotify.Watcher

	mu      sync.Mutex
	pending map[string]time.Time // rel path -> last event time
	stats   Stats
}

// New creates a Watcher over the workspace root and all its subdirectories.
// Call Run to start the loop and Close when done.
func New(ws *workspace.Workspace, opts Options) (*Watcher, error) {
	opts.defaults()

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating filesystem watcher: %w", err)
	}

	w := &Watcher{
		ws:      ws,
		opts:    opts,
		fsw:     fsw,
		pending: make(map[string]time.Time),
	}

	if err := w.addRecursive(ws.Root); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

// Close releases the underlying filesystem watcher. Run returns after Close.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

// Stats returns the current counters.
func (w *Watcher) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}

// Run blocks until ctx is cancelled or the watcher is closed, invoking
// action with the batch of settled relative paths each time the debounce
// window passes quietly. Paths are sorted and unique within a batch.
func (w *Watcher) Run(ctx context.Context, action func(paths []string)) {
	log := w.opts.Logger
	log.Info("watching working tree",
		zap.String("root", w.ws.Root),
		zap.Duration("debounce", w.opts.Debounce))

	ticker := time.NewTicker(w.opts.Poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("watch stopped")
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.mu.Lock()
			w.stats.Errors++
			w.mu.Unlock()
			log.Warn("watch error", zap.Error(err))

		case <-ticker.C:
			if batch := w.settled(); len(batch) > 0 {
				w.mu.Lock()
				w.stats.Fires++
				w.mu.Unlock()
				log.Debug("changes settled", zap.Strings("paths", batch))
				action(batch)
			}
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	// Chmod-only events carry no content change.
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}

	rel, err := filepath.Rel(w.ws.Root, event.Name)
	if err != nil {
		return
	}
	rel = filepath.ToSlash(rel)

	if scan.Ignored(rel, filepath.Base(event.Name), w.ws.IgnorePatterns()) {
		return
	}

	// New directories must be added to the watch set; their contents
	// surface as events of their own.
	if event.Op&fsnotify.Create != 0 {
		if info, statErr := os.Stat(event.Name); statErr == nil && info.IsDir() {
			if addErr := w.addRecursive(event.Name); addErr != nil {
				w.opts.Logger.Warn("watching new directory failed",
					zap.String("path", rel), zap.Error(addErr))
			}
			return
		}
	}

	w.mu.Lock()
	w.stats.Events++
	w.pending[rel] = time.Now()
	w.mu.Unlock()
}

// settled drains paths whose debounce window has passed.
func (w *Watcher) settled() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := time.Now()
	var batch []string
	for rel, last := range w.pending {
		if now.Sub(last) >= w.opts.Debounce {
			batch = append(batch, rel)
			delete(w.pending, rel)
		}
	}
	sort.Strings(batch)
	return batch
}

// addRecursive watches dir and every non-ignored directory beneath it.
func (w *Watcher) addRecursive(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(w.ws.Root, path)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)
		if rel != "." && scan.Ignored(rel, d.Name(), w.ws.IgnorePatterns()) {
			return filepath.SkipDir
		}
		if addErr := w.fsw.Add(path); addErr != nil {
			return fmt.Errorf("watching %s: %w", path, addErr)
		}
		return nil
	})
}
