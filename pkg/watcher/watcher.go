// Package watcher reports debounced changes to a set of model source files.
package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Watcher watches the parent directories of a file set so that editors
// which save by rename are still noticed
type Watcher struct {
	fs       *fsnotify.Watcher
	log      zerolog.Logger
	debounce time.Duration
	onChange func(path string)

	mu    sync.Mutex
	files map[string]bool
	dirs  map[string]bool
	timer *time.Timer
}

// New creates a watcher that calls onChange once per burst of changes
func New(debounce time.Duration, log zerolog.Logger, onChange func(path string)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	return &Watcher{
		fs:       fsw,
		log:      log,
		debounce: debounce,
		onChange: onChange,
		files:    make(map[string]bool),
		dirs:     make(map[string]bool),
	}, nil
}

// Set replaces the watched file set
func (w *Watcher) Set(files []string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	wantFiles := make(map[string]bool, len(files))
	wantDirs := make(map[string]bool)
	for _, file := range files {
		abs, err := filepath.Abs(file)
		if err != nil {
			return fmt.Errorf("failed to resolve path %s: %w", file, err)
		}
		wantFiles[abs] = true
		wantDirs[filepath.Dir(abs)] = true
	}

	for dir := range w.dirs {
		if !wantDirs[dir] {
			if err := w.fs.Remove(dir); err != nil {
				w.log.Debug().Err(err).Str("dir", dir).Msg("failed to stop watching")
			}
			delete(w.dirs, dir)
		}
	}
	for dir := range wantDirs {
		if w.dirs[dir] {
			continue
		}
		if err := w.fs.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
		w.dirs[dir] = true
	}
	w.files = wantFiles

	w.log.Debug().Int("files", len(wantFiles)).Int("dirs", len(w.dirs)).Msg("watch set updated")
	return nil
}

// Run dispatches events until ctx is done or the watcher is closed
func (w *Watcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				w.handle(event.Name)
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.log.Warn().Err(err).Msg("watcher error")
		}
	}
}

// handle restarts the debounce timer when a watched file changed
func (w *Watcher) handle(name string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	abs, err := filepath.Abs(name)
	if err != nil || !w.files[abs] {
		return
	}
	w.log.Debug().Str("file", abs).Msg("change detected")

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		w.onChange(abs)
	})
}

// Close stops watching and cancels a pending callback
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
	return w.fs.Close()
}
