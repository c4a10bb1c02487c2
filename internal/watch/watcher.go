// Package watch re-runs the full staging pipeline whenever the source tree
// changes. Every rebuild is a complete clean build; watching only decides
// when to trigger one.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/sitestager/internal/config"
	"git.home.luguber.info/inful/sitestager/internal/logfields"
)

// RebuildFunc runs one full build and returns its exit status.
type RebuildFunc func(ctx context.Context) int

// Watcher monitors the source tree and triggers debounced full rebuilds.
type Watcher struct {
	cfg      *config.Config
	rebuild  RebuildFunc
	watcher  *fsnotify.Watcher
	mu       sync.Mutex
	stopOnce sync.Once
	stopChan chan struct{}
	buildCh  chan struct{}
	debounce time.Duration
}

// New creates a watcher over the configured source root. debounce bounds how
// quickly successive filesystem events can trigger rebuilds.
func New(cfg *config.Config, debounce time.Duration, rebuild RebuildFunc) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	return &Watcher{
		cfg:      cfg,
		rebuild:  rebuild,
		watcher:  fsw,
		stopChan: make(chan struct{}),
		buildCh:  make(chan struct{}, 1),
		debounce: debounce,
	}, nil
}

// Start registers the watched directories and begins the event and rebuild
// loops. It returns once watching is established; rebuilds happen in the
// background until Stop or context cancellation.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.watcher.Add(w.cfg.Source); err != nil {
		return fmt.Errorf("failed to watch source directory %s: %w", w.cfg.Source, err)
	}
	// fsnotify does not recurse; watch each existing asset directory too.
	for _, dir := range w.cfg.Site.AssetDirs {
		path := filepath.Join(w.cfg.Source, dir)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := w.watcher.Add(path); err != nil {
			slog.Warn("Failed to watch asset directory", logfields.Path(path), logfields.Error(err))
		}
	}

	slog.Info("Watching source tree for changes", logfields.Path(w.cfg.Source))

	go w.watchLoop(ctx)
	go w.rebuildLoop(ctx)
	return nil
}

// Stop halts watching. Safe to call more than once.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.stopChan)
		err = w.watcher.Close()
	})
	return err
}

func (w *Watcher) watchLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopChan:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			slog.Debug("Source change detected", logfields.Path(event.Name), slog.String("op", event.Op.String()))
			w.Trigger()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Error("Watcher error", logfields.Error(err))
		}
	}
}

// Trigger requests a rebuild; bursts collapse into one pending request.
func (w *Watcher) Trigger() {
	select {
	case w.buildCh <- struct{}{}:
	default:
		// Rebuild already pending.
	}
}

func (w *Watcher) rebuildLoop(ctx context.Context) {
	var timer *time.Timer
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return
		case <-w.stopChan:
			if timer != nil {
				timer.Stop()
			}
			return
		case <-w.buildCh:
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, func() {
				w.runRebuild(ctx)
			})
		}
	}
}

func (w *Watcher) runRebuild(ctx context.Context) {
	// One rebuild at a time; a trigger arriving mid-build queues the next one.
	w.mu.Lock()
	defer w.mu.Unlock()

	select {
	case <-ctx.Done():
		return
	case <-w.stopChan:
		return
	default:
	}

	slog.Info("Source changed, rebuilding site")
	if status := w.rebuild(ctx); status != 0 {
		slog.Warn("Rebuild finished with failures", slog.Int("status", status))
	}
}
