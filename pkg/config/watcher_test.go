package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatcherReloadsOnExternalEdit(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.json")

	manager, err := NewFileManager(configPath)
	if err != nil {
		t.Fatalf("NewFileManager: %v", err)
	}
	if err := manager.SaveAll(); err != nil {
		t.Fatalf("SaveAll: %v", err)
	}

	watcher, err := NewWatcher(manager, configPath)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := watcher.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer watcher.Stop()

	edited := `{"version":"1.0","sections":{"automation":{"progress_threshold":55,"max_retries":2}}}`
	if err := os.WriteFile(configPath, []byte(edited), 0600); err != nil {
		t.Fatalf("write: %v", err)
	}

	select {
	case event := <-watcher.Events():
		if event.Error != nil {
			t.Fatalf("unexpected error: %v", event.Error)
		}
		if event.Automation.ProgressThreshold != 55 || event.Automation.MaxRetries != 2 {
			t.Errorf("unexpected reload: %+v", event.Automation)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for reload event")
	}

	if AutomationOf(manager).Settings().ProgressThreshold != 55 {
		t.Error("manager sections were not reloaded")
	}
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.json")

	manager, err := NewFileManager(configPath)
	if err != nil {
		t.Fatalf("NewFileManager: %v", err)
	}

	watcher, err := NewWatcher(manager, configPath)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := watcher.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer watcher.Stop()

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hi"), 0600); err != nil {
		t.Fatalf("write: %v", err)
	}

	select {
	case event := <-watcher.Events():
		t.Fatalf("unexpected event: %+v", event)
	case <-time.After(400 * time.Millisecond):
	}
}
