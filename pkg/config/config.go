package config

import (
	"sync"
)

var (
	// globalManager is the singleton configuration manager instance
	globalManager *Manager
	globalMu      sync.Mutex
)

// Initialize creates the global configuration manager backed by the JSON
// file at configPath (empty means ~/.coursepilot/config.json) and loads it.
// Call once at startup.
func Initialize(configPath string) error {
	manager, err := NewFileManager(configPath)
	if err != nil {
		return err
	}

	globalMu.Lock()
	defer globalMu.Unlock()
	globalManager = manager
	return nil
}

// NewFileManager builds a manager over a file store with the automation and
// browser sections registered and loaded.
func NewFileManager(configPath string) (*Manager, error) {
	store, err := NewFileStore(configPath)
	if err != nil {
		return nil, err
	}

	manager := NewManager(store)

	if err := manager.RegisterSection(NewAutomationSection()); err != nil {
		return nil, err
	}

	if err := manager.RegisterSection(NewBrowserSection()); err != nil {
		return nil, err
	}

	if err := manager.LoadAll(); err != nil {
		return nil, err
	}

	return manager, nil
}

// Global returns the global configuration manager.
// Panics if Initialize has not been called.
func Global() *Manager {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalManager == nil {
		panic("config not initialized: call config.Initialize first")
	}

	return globalManager
}

// IsInitialized returns true if the global configuration has been initialized.
func IsInitialized() bool {
	globalMu.Lock()
	defer globalMu.Unlock()
	return globalManager != nil
}

// GetAutomation returns the automation section from global config.
// Returns nil if config is not initialized.
func GetAutomation() *AutomationSection {
	if !IsInitialized() {
		return nil
	}
	return AutomationOf(Global())
}

// GetBrowser returns the browser section from global config.
// Returns nil if config is not initialized.
func GetBrowser() *BrowserSection {
	if !IsInitialized() {
		return nil
	}
	return BrowserOf(Global())
}

// AutomationOf returns the automation section registered on m, or nil.
// m may be nil.
func AutomationOf(m *Manager) *AutomationSection {
	if m == nil {
		return nil
	}
	section, ok := m.GetSection(SectionIDAutomation)
	if !ok {
		return nil
	}
	automation, _ := section.(*AutomationSection)
	return automation
}

// BrowserOf returns the browser section registered on m, or nil.
func BrowserOf(m *Manager) *BrowserSection {
	if m == nil {
		return nil
	}
	section, ok := m.GetSection(SectionIDBrowser)
	if !ok {
		return nil
	}
	browser, _ := section.(*BrowserSection)
	return browser
}
