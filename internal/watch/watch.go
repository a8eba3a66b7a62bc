// Package watch reruns a conversion whenever one of its input files changes.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period after the last change before a rerun.
const DefaultDebounce = 300 * time.Millisecond

// Watcher calls a function when any of a set of files is written, created,
// replaced or removed. Bursts of events closer together than the debounce
// period cause a single call.
type Watcher struct {
	files    map[string]struct{}
	dirs     map[string]struct{}
	debounce time.Duration
	logger   *slog.Logger
}

// New watches paths. Their parent directories are watched so that editors
// replacing a file through a rename are noticed.
func New(paths []string, debounce time.Duration, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	w := &Watcher{
		files:    make(map[string]struct{}),
		dirs:     make(map[string]struct{}),
		debounce: debounce,
		logger:   logger,
	}
	for _, p := range paths {
		if p == "" {
			continue
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s: %w", p, err)
		}
		w.files[abs] = struct{}{}
		w.dirs[filepath.Dir(abs)] = struct{}{}
	}
	if len(w.files) == 0 {
		return nil, fmt.Errorf("no files to watch")
	}
	return w, nil
}

// Run blocks until ctx is done, calling onChange after every settled burst
// of changes. Errors from onChange are logged and do not stop the watch.
func (w *Watcher) Run(ctx context.Context, onChange func(ctx context.Context) error) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file system watcher: %w", err)
	}
	defer watcher.Close()

	for dir := range w.dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to add directory to watcher: %w", err)
		}
		w.logger.Debug("Added directory to watcher", "path", dir)
	}

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()
	var changed string

	for {
		select {
		case <-ctx.Done():
			w.logger.Debug("File system watcher context cancelled")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			changed = event.Name
			timer.Reset(w.debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("File system watcher error", "error", err)

		case <-timer.C:
			w.logger.Info("Input changed, converting again", "path", changed)
			if err := onChange(ctx); err != nil {
				w.logger.Error("Conversion failed", "error", err)
			}
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
		return false
	}
	abs, err := filepath.Abs(event.Name)
	if err != nil {
		return false
	}
	_, ok := w.files[abs]
	return ok
}
