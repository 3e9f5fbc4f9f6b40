package prefs

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher holds the current preferences and reloads them when the file
// changes. The file's directory is watched so editors that replace the file
// on save are still seen.
type Watcher struct {
	mu       sync.RWMutex
	path     string
	current  *Preferences
	onChange func(*Preferences)

	watcher     *fsnotify.Watcher
	debounceDur time.Duration
	pendingAt   time.Time
	stopCh      chan struct{}
	doneCh      chan struct{}
	running     bool
}

// NewWatcher loads path once. onChange, when set, runs after every
// successful reload.
func NewWatcher(path string, onChange func(*Preferences)) (*Watcher, error) {
	p, err := Load(path)
	if err != nil {
		return nil, err
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}
	return &Watcher{
		path:        filepath.Clean(path),
		current:     p,
		onChange:    onChange,
		watcher:     fw,
		debounceDur: 200 * time.Millisecond,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}, nil
}

// Current returns the last successfully loaded preferences.
func (w *Watcher) Current() *Preferences {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// Start begins watching in a goroutine. Calling it twice is a no-op.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return nil
	}

	dir := filepath.Dir(w.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create preferences directory: %w", err)
	}
	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	slog.InfoContext(ctx, "Watching preferences", "path", w.path)

	w.running = true
	go w.run(ctx)
	return nil
}

// Stop ends the watch loop and waits for it to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	running := w.running
	w.running = false
	w.mu.Unlock()

	if running {
		close(w.stopCh)
		<-w.doneCh
	}
	if err := w.watcher.Close(); err != nil {
		slog.Error("Failed to close preferences watcher", "error", err)
	}
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.debounceDur / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.ErrorContext(ctx, "Preferences watcher error", "error", err)
		case now := <-ticker.C:
			if !w.pendingAt.IsZero() && now.Sub(w.pendingAt) >= w.debounceDur {
				w.pendingAt = time.Time{}
				w.reload(ctx)
			}
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != w.path {
		return
	}
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return
	}
	w.pendingAt = time.Now()
}

// reload swaps in the file's new contents. A file that fails to parse keeps
// the previous preferences in force.
func (w *Watcher) reload(ctx context.Context) {
	p, err := Load(w.path)
	if err != nil {
		slog.WarnContext(ctx, "Ignoring invalid preferences", "path", w.path, "error", err)
		return
	}
	w.mu.Lock()
	w.current = p
	w.mu.Unlock()
	slog.InfoContext(ctx, "Preferences reloaded", "path", w.path)
	if w.onChange != nil {
		w.onChange(p)
	}
}
