package daemon

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"autocombine/internal/logging"
	"autocombine/internal/runscan"
)

// dirWatcher watches every run parent directory and each run directory one
// level below it. Bursts of events collapse into one callback after the
// debounce interval.
type dirWatcher struct {
	watcher  *fsnotify.Watcher
	parents  map[string]struct{}
	debounce time.Duration
	callback func()
	logger   *slog.Logger

	mu     sync.Mutex
	timer  *time.Timer
	cancel context.CancelFunc
	done   chan struct{}
}

func newDirWatcher(parents []string, debounce time.Duration, logger *slog.Logger, callback func()) (*dirWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}

	dw := &dirWatcher{
		watcher:  watcher,
		parents:  make(map[string]struct{}, len(parents)),
		debounce: debounce,
		callback: callback,
		logger:   logger,
		done:     make(chan struct{}),
	}
	for _, parent := range parents {
		parent = filepath.Clean(parent)
		if err := watcher.Add(parent); err != nil {
			// A missing parent is reported by the scanner on every pass.
			logger.Debug("parent directory not watched",
				logging.String("parent_dir", parent),
				logging.Error(err),
			)
			continue
		}
		dw.parents[parent] = struct{}{}
		entries, err := os.ReadDir(parent)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() {
				_ = watcher.Add(filepath.Join(parent, entry.Name()))
			}
		}
	}
	return dw, nil
}

// Start begins watching for file changes.
func (dw *dirWatcher) Start(ctx context.Context) {
	ctx, dw.cancel = context.WithCancel(ctx)

	go func() {
		defer close(dw.done)
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-dw.watcher.Events:
				if !ok {
					return
				}
				dw.handleEvent(event)
			case err, ok := <-dw.watcher.Errors:
				if !ok {
					return
				}
				dw.logger.Debug("filesystem watch error", logging.Error(err))
			}
		}
	}()
}

// Stop stops watching and cancels a pending callback.
func (dw *dirWatcher) Stop() {
	if dw.cancel != nil {
		dw.cancel()
		<-dw.done
	}
	_ = dw.watcher.Close()

	dw.mu.Lock()
	defer dw.mu.Unlock()
	if dw.timer != nil {
		dw.timer.Stop()
	}
}

func (dw *dirWatcher) handleEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
		return
	}
	// Our own output must not schedule another pass.
	switch filepath.Base(event.Name) {
	case runscan.CombinedDir, runscan.CompletionRecord:
		return
	}

	// A new run directory directly below a parent gets its own watch so the
	// upload marker and sample sheet are seen when they land.
	if event.Op&fsnotify.Create != 0 {
		if _, isParent := dw.parents[filepath.Dir(event.Name)]; isParent {
			if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
				_ = dw.watcher.Add(event.Name)
			}
		}
	}

	dw.mu.Lock()
	defer dw.mu.Unlock()
	if dw.timer != nil {
		dw.timer.Stop()
	}
	dw.timer = time.AfterFunc(dw.debounce, dw.callback)
}
