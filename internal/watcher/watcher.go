// Package watcher provides file system watching with debouncing for catalog
// inputs (part YAML files, the taxonomy and the catalog database).
package watcher

import (
	"fmt"
	"maps"
	"path/filepath"
	"slices"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/zjrosen/clsforge/internal/log"
)

// Watcher reports changes to a fixed set of files, coalescing bursts of
// writes into one notification.
type Watcher struct {
	fs       *fsnotify.Watcher
	dirs     []string
	watched  map[string]struct{}
	debounce time.Duration
	out      chan []string
	done     chan struct{}
}

// Config holds watcher configuration options.
type Config struct {
	// Paths are the files whose changes trigger a notification. Their parent
	// directories are watched so that editors replacing files atomically
	// still produce events.
	Paths       []string
	DebounceDur time.Duration
}

// DefaultConfig watches paths with a 500ms quiet period.
func DefaultConfig(paths ...string) Config {
	return Config{Paths: paths, DebounceDur: 500 * time.Millisecond}
}

// New resolves cfg.Paths and prepares an fsnotify watcher. Nothing is
// watched until Start.
func New(cfg Config) (*Watcher, error) {
	if len(cfg.Paths) == 0 {
		return nil, fmt.Errorf("watcher: no paths to watch")
	}

	watched := make(map[string]struct{}, len(cfg.Paths))
	var dirs []string
	for _, p := range cfg.Paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("resolving %s: %w", p, err)
		}
		watched[abs] = struct{}{}
		// SQLite writes land in the WAL before the main file.
		if filepath.Ext(abs) == ".db" {
			watched[abs+"-wal"] = struct{}{}
		}
		dirs = append(dirs, filepath.Dir(abs))
	}
	slices.Sort(dirs)

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}
	return &Watcher{
		fs:       fsw,
		dirs:     slices.Compact(dirs),
		watched:  watched,
		debounce: cfg.DebounceDur,
		out:      make(chan []string, 1),
		done:     make(chan struct{}),
	}, nil
}

// Start watches the parent directories. Each value received from the
// returned channel is the sorted set of watched files written since the
// previous one. A batch is dropped when the reader has not taken the last.
func (w *Watcher) Start() (<-chan []string, error) {
	for _, dir := range w.dirs {
		if err := w.fs.Add(dir); err != nil {
			return nil, fmt.Errorf("watching directory %s: %w", dir, err)
		}
	}
	log.Debug(log.CatWatcher, "watching", "dirs", w.dirs, "files", len(w.watched))

	go w.loop()
	return w.out, nil
}

// Stop terminates the watcher and releases resources.
func (w *Watcher) Stop() error {
	close(w.done)
	return w.fs.Close()
}

func (w *Watcher) loop() {
	// Armed only while changes are pending. Since Go 1.23 a stopped timer
	// never delivers a stale tick.
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	pending := make(map[string]struct{})
	for {
		select {
		case <-w.done:
			return

		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			name, relevant := w.match(ev)
			if !relevant {
				continue
			}
			pending[name] = struct{}{}
			timer.Reset(w.debounce)

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			batch := slices.Sorted(maps.Keys(pending))
			clear(pending)
			select {
			case w.out <- batch:
			default:
				log.Debug(log.CatWatcher, "change batch dropped, reader busy", "files", batch)
			}

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			log.ErrorErr(log.CatWatcher, "fsnotify error", err)
		}
	}
}

// match returns the absolute path of a Write or Create on a watched file.
// Editors often save by rename, which shows up as Create on the target.
func (w *Watcher) match(ev fsnotify.Event) (string, bool) {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
		return "", false
	}
	abs, err := filepath.Abs(ev.Name)
	if err != nil {
		return "", false
	}
	_, ok := w.watched[abs]
	return abs, ok
}
