// Package watcher reports changes to dataset files so they can be reloaded.
package watcher

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce collapses the burst of events editors emit on save
const DefaultDebounce = 500 * time.Millisecond

// Watcher watches a set of files and calls onChange once per settled change
type Watcher struct {
	paths    []string
	onChange func(path string)
	debounce time.Duration
}

// New creates a watcher for paths. onChange runs on the Watch goroutine, so
// calls never overlap.
func New(paths []string, onChange func(path string)) *Watcher {
	return &Watcher{
		paths:    paths,
		onChange: onChange,
		debounce: DefaultDebounce,
	}
}

// WithDebounce sets the debounce duration
func (w *Watcher) WithDebounce(d time.Duration) *Watcher {
	w.debounce = d
	return w
}

// Watch blocks until ctx is cancelled. Directories are watched rather than
// files so editors that replace a file on save are still seen.
func (w *Watcher) Watch(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer fsw.Close()

	files := make(map[string]bool, len(w.paths))
	dirs := make(map[string]bool)
	for _, path := range w.paths {
		abs, err := filepath.Abs(path)
		if err != nil {
			return fmt.Errorf("resolving %s: %w", path, err)
		}
		files[abs] = true

		dir := filepath.Dir(abs)
		if dirs[dir] {
			continue
		}
		if err := fsw.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
		dirs[dir] = true
		log.Printf("Watching %s for changes", abs)
	}

	// Debounce timers deliver into fired so onChange runs here, not on timer goroutines
	fired := make(chan string)
	timers := make(map[string]*time.Timer)
	defer func() {
		for _, t := range timers {
			t.Stop()
		}
	}()

	for {
		select {
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			abs, err := filepath.Abs(event.Name)
			if err != nil || !files[abs] {
				continue
			}

			if t, exists := timers[abs]; exists {
				t.Stop()
			}
			timers[abs] = time.AfterFunc(w.debounce, func() {
				select {
				case fired <- abs:
				case <-ctx.Done():
				}
			})

		case path := <-fired:
			delete(timers, path)
			log.Printf("File changed: %s", path)
			w.onChange(path)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			log.Printf("Watcher error: %v", err)

		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
