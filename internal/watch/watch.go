package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Trigger is invoked, debounced, whenever relevant source files change.
type Trigger func(ctx context.Context)

// Watcher monitors the source tree via fsnotify and fires a debounced
// trigger when lossless files or cue sheets appear or change. fsnotify
// watches are per-directory, so subdirectories are registered on startup and
// whenever a new one is created.
type Watcher struct {
	root     string
	ext      string
	debounce time.Duration
	trigger  Trigger
	logger   *slog.Logger

	mu    sync.Mutex
	timer *time.Timer
}

// New builds a watcher over root for files with the given source extension.
func New(root, ext string, debounce time.Duration, logger *slog.Logger, trigger Trigger) *Watcher {
	if debounce <= 0 {
		debounce = 2 * time.Second
	}
	return &Watcher{
		root:     root,
		ext:      strings.ToLower(ext),
		debounce: debounce,
		trigger:  trigger,
		logger:   logger,
	}
}

// Run blocks until ctx is cancelled, dispatching the trigger after each
// debounced burst of changes.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	defer w.stopTimer()

	if err := w.addTree(watcher, w.root); err != nil {
		return err
	}
	w.logger.Info("watching source tree", slog.String("root", w.root))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addTree(watcher, event.Name); err != nil {
						w.logger.Warn("watch new directory", slog.String("path", event.Name), slog.String("error", err.Error()))
					}
					w.schedule(ctx)
					continue
				}
			}
			if !w.relevant(event) {
				continue
			}
			w.schedule(ctx)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", slog.String("error", err.Error()))
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return false
	}
	ext := strings.ToLower(filepath.Ext(event.Name))
	return ext == w.ext || ext == ".cue"
}

func (w *Watcher) schedule(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		if ctx.Err() != nil {
			return
		}
		w.trigger(ctx)
	})
}

func (w *Watcher) stopTimer() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
}

func (w *Watcher) addTree(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !entry.IsDir() {
			return nil
		}
		return watcher.Add(path)
	})
}
