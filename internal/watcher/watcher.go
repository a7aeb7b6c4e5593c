// Package watcher provides file system watching with debouncing for
// component definition files.
package watcher

import (
	"fmt"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/zjrosen/strand/internal/log"
)

// Watcher monitors definition directories and reports changed files.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	dirs      []string
	debounce  time.Duration
	onChange  chan []string
	done      chan struct{}

	changed map[string]struct{}
}

// Config holds watcher configuration options.
type Config struct {
	// Dirs lists the directories to watch for definition file changes.
	Dirs []string

	// DebounceDur batches bursts of events into one notification.
	DebounceDur time.Duration
}

// DefaultConfig returns sensible defaults for the watcher.
func DefaultConfig(dirs ...string) Config {
	return Config{
		Dirs:        dirs,
		DebounceDur: 250 * time.Millisecond,
	}
}

// New creates a new definition watcher.
func New(cfg Config) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}

	return &Watcher{
		fsWatcher: fsw,
		dirs:      cfg.Dirs,
		debounce:  cfg.DebounceDur,
		onChange:  make(chan []string, 1),
		done:      make(chan struct{}),
		changed:   make(map[string]struct{}),
	}, nil
}

// Start begins watching the configured directories. Returns a channel that
// receives the batch of changed definition file paths after each debounce
// window.
func (w *Watcher) Start() (<-chan []string, error) {
	for _, dir := range w.dirs {
		if err := w.fsWatcher.Add(dir); err != nil {
			return nil, fmt.Errorf("watching directory %s: %w", dir, err)
		}
	}

	go w.loop()

	return w.onChange, nil
}

// Stop terminates the watcher and releases resources.
func (w *Watcher) Stop() error {
	close(w.done)
	return w.fsWatcher.Close()
}

// loop processes file system events with debouncing.
func (w *Watcher) loop() {
	var timer *time.Timer

	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}

			if !w.isRelevantEvent(event) {
				continue
			}
			w.changed[event.Name] = struct{}{}

			// Reset or start debounce timer
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				if !timer.Stop() {
					// Drain the timer channel if it already fired
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}

		case <-func() <-chan time.Time {
			if timer != nil {
				return timer.C
			}
			return nil
		}():
			if len(w.changed) == 0 {
				continue
			}
			batch := make([]string, 0, len(w.changed))
			for path := range w.changed {
				batch = append(batch, path)
			}
			w.changed = make(map[string]struct{})

			// Non-blocking send - drop if channel full
			select {
			case w.onChange <- batch:
			default:
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			log.Warn(log.CatWatcher, "watch error", "err", err)

		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}

// isRelevantEvent checks if the event should trigger a notification.
func (w *Watcher) isRelevantEvent(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return false
	}
	return strings.HasSuffix(event.Name, ".yaml") || strings.HasSuffix(event.Name, ".yml")
}
