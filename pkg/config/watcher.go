package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ReloadEvent reports a settings reload triggered by an external edit.
type ReloadEvent struct {
	Path       string
	Automation AutomationSettings
	Error      error
}

// Watcher reloads a manager's sections when its settings file changes on
// disk, so edits made outside the running process reach the automation.
type Watcher struct {
	manager  *Manager
	path     string
	watcher  *fsnotify.Watcher
	events   chan ReloadEvent
	debounce time.Duration
}

// NewWatcher creates a watcher for the file at path backing manager.
func NewWatcher(manager *Manager, path string) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		fsWatcher.Close()
		return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
	}

	return &Watcher{
		manager:  manager,
		path:     abs,
		watcher:  fsWatcher,
		events:   make(chan ReloadEvent, 10),
		debounce: 100 * time.Millisecond,
	}, nil
}

// Events returns the channel that receives reload events.
func (w *Watcher) Events() <-chan ReloadEvent {
	return w.events
}

// Start begins watching. The directory is watched rather than the file
// because saves replace the file by rename.
func (w *Watcher) Start(ctx context.Context) error {
	dir := filepath.Dir(w.path)
	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch directory %s: %w", dir, err)
	}

	go w.run(ctx)
	return nil
}

// Stop closes the underlying watcher. The events channel is closed when the
// run loop exits.
func (w *Watcher) Stop() error {
	return w.watcher.Close()
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.events)

	var pending time.Time
	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				pending = time.Now()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.send(ctx, ReloadEvent{Path: w.path, Error: err})

		case <-ticker.C:
			if pending.IsZero() || time.Since(pending) < w.debounce {
				continue
			}
			pending = time.Time{}
			w.send(ctx, w.reload())
		}
	}
}

func (w *Watcher) reload() ReloadEvent {
	if err := w.manager.LoadAll(); err != nil {
		return ReloadEvent{Path: w.path, Error: fmt.Errorf("failed to reload %s: %w", w.path, err)}
	}

	event := ReloadEvent{Path: w.path}
	if automation := AutomationOf(w.manager); automation != nil {
		event.Automation = automation.Settings()
	}
	return event
}

func (w *Watcher) send(ctx context.Context, event ReloadEvent) {
	select {
	case w.events <- event:
	case <-ctx.Done():
	}
}
