package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// Store provides persistence for section data.
type Store interface {
	// Load reads the persisted data, replacing what is held in memory
	Load() error

	// Save writes the data held in memory
	Save() error

	// GetSection returns a copy of one section's data; unknown sections are empty
	GetSection(sectionID string) (map[string]interface{}, error)

	// SetSection replaces one section's data
	SetSection(sectionID string, data map[string]interface{}) error
}

// fileVersion is written into every settings file.
const fileVersion = "1"

// fileLayout is the settings file document.
type fileLayout struct {
	Version  string                            `json:"version"`
	Sections map[string]map[string]interface{} `json:"sections"`
}

// FileStore keeps all sections in one JSON file. Saves go through a temp
// file and a rename, so readers and the settings watcher never see a
// partial file.
type FileStore struct {
	path string

	mu       sync.RWMutex
	sections map[string]map[string]interface{}
	dirty    bool
}

// NewFileStore opens the settings file at path, or ~/.coursepilot/config.json
// when path is empty. A missing file is an empty store.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		path = DefaultPath(homeDir)
	}

	store := &FileStore{
		path:     path,
		sections: make(map[string]map[string]interface{}),
	}
	if err := store.Load(); err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
	}
	return store, nil
}

// DefaultPath returns the settings file location under homeDir.
func DefaultPath(homeDir string) string {
	return filepath.Join(homeDir, ".coursepilot", "config.json")
}

// Load reads the file. A missing or empty file leaves the store empty.
func (s *FileStore) Load() error {
	raw, err := os.ReadFile(s.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var layout fileLayout
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &layout); err != nil {
			return fmt.Errorf("failed to decode config file: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sections = make(map[string]map[string]interface{}, len(layout.Sections))
	for id, data := range layout.Sections {
		s.sections[id] = cloneSection(data)
	}
	s.dirty = false
	return nil
}

// Save writes the file, creating its directory if needed.
func (s *FileStore) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := json.MarshalIndent(fileLayout{Version: fileVersion, Sections: s.sections}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+"-*")
	if err != nil {
		return fmt.Errorf("failed to create temp config file: %w", err)
	}
	tmpPath := tmp.Name()

	_, err = tmp.Write(append(raw, '\n'))
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err == nil {
		err = os.Rename(tmpPath, s.path)
	}
	if err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write config file: %w", err)
	}

	s.dirty = false
	return nil
}

// GetSection returns a copy of the section's data.
func (s *FileStore) GetSection(sectionID string) (map[string]interface{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneSection(s.sections[sectionID]), nil
}

// SetSection stores a copy of data under sectionID.
func (s *FileStore) SetSection(sectionID string, data map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sections[sectionID] = cloneSection(data)
	s.dirty = true
	return nil
}

// Dirty reports whether SetSection was called since the last Load or Save.
func (s *FileStore) Dirty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dirty
}

// Path returns the settings file path.
func (s *FileStore) Path() string {
	return s.path
}

// cloneSection copies the top level of data. Values are JSON scalars or
// string lists, which callers never mutate in place.
func cloneSection(data map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(data))
	for k, v := range data {
		out[k] = v
	}
	return out
}
