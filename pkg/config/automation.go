package config

import (
	"fmt"
	"sync"
	"time"
)

const (
	// SectionIDAutomation is the identifier for the course automation settings
	SectionIDAutomation = "automation"

	DefaultProgressThreshold = 93
	DefaultMaxRetries        = 10
	DefaultAutoStart         = false
	DefaultCheckInterval     = 2 * time.Second
	DefaultAPIPollInterval   = 100 * time.Millisecond
	DefaultMaxAPIAttempts    = 50
)

// AutomationSection holds the persisted automation settings. The control
// surface owns bounds checking; values are stored as given.
type AutomationSection struct {
	ProgressThreshold int           `json:"progress_threshold"`
	MaxRetries        int           `json:"max_retries"`
	AutoStart         bool          `json:"auto_start"`
	CheckInterval     time.Duration `json:"check_interval"`
	APIPollInterval   time.Duration `json:"api_poll_interval"`
	MaxAPIAttempts    int           `json:"max_api_attempts"`
	mu                sync.RWMutex
}

// AutomationSettings is a point-in-time copy of AutomationSection.
type AutomationSettings struct {
	ProgressThreshold int
	MaxRetries        int
	AutoStart         bool
	CheckInterval     time.Duration
	APIPollInterval   time.Duration
	MaxAPIAttempts    int
}

// NewAutomationSection creates the section with defaults.
func NewAutomationSection() *AutomationSection {
	s := &AutomationSection{}
	s.Reset()
	return s
}

// ID returns the section identifier.
func (s *AutomationSection) ID() string {
	return SectionIDAutomation
}

// Title returns the section title.
func (s *AutomationSection) Title() string {
	return "Course Automation"
}

// Description returns the section description.
func (s *AutomationSection) Description() string {
	return "Progress target, retry limit, auto-start and loop timing for course automation."
}

// Data returns the current configuration data. Durations are stored in
// milliseconds.
func (s *AutomationSection) Data() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return map[string]interface{}{
		"progress_threshold":   s.ProgressThreshold,
		"max_retries":          s.MaxRetries,
		"auto_start":           s.AutoStart,
		"check_interval_ms":    s.CheckInterval.Milliseconds(),
		"api_poll_interval_ms": s.APIPollInterval.Milliseconds(),
		"max_api_attempts":     s.MaxAPIAttempts,
	}
}

// SetData updates the configuration from the provided data.
func (s *AutomationSection) SetData(data map[string]interface{}) error {
	if data == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for key, value := range data {
		switch key {
		case "progress_threshold":
			n, err := intValue(key, value)
			if err != nil {
				return err
			}
			s.ProgressThreshold = n

		case "max_retries":
			n, err := intValue(key, value)
			if err != nil {
				return err
			}
			s.MaxRetries = n

		case "auto_start":
			enabled, ok := value.(bool)
			if !ok {
				return fmt.Errorf("invalid value type for auto_start: expected bool, got %T", value)
			}
			s.AutoStart = enabled

		case "check_interval_ms":
			n, err := intValue(key, value)
			if err != nil {
				return err
			}
			s.CheckInterval = time.Duration(n) * time.Millisecond

		case "api_poll_interval_ms":
			n, err := intValue(key, value)
			if err != nil {
				return err
			}
			s.APIPollInterval = time.Duration(n) * time.Millisecond

		case "max_api_attempts":
			n, err := intValue(key, value)
			if err != nil {
				return err
			}
			s.MaxAPIAttempts = n

		default:
			// Ignore unknown keys for forward compatibility
			continue
		}
	}

	return nil
}

// Validate rejects timing values the loop cannot run with. Threshold and
// retry limits are accepted as given.
func (s *AutomationSection) Validate() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.CheckInterval <= 0 {
		return fmt.Errorf("check_interval_ms must be positive, got %v", s.CheckInterval)
	}
	if s.APIPollInterval <= 0 {
		return fmt.Errorf("api_poll_interval_ms must be positive, got %v", s.APIPollInterval)
	}
	return nil
}

// Reset restores defaults.
func (s *AutomationSection) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ProgressThreshold = DefaultProgressThreshold
	s.MaxRetries = DefaultMaxRetries
	s.AutoStart = DefaultAutoStart
	s.CheckInterval = DefaultCheckInterval
	s.APIPollInterval = DefaultAPIPollInterval
	s.MaxAPIAttempts = DefaultMaxAPIAttempts
}

// Settings returns a copy of the current values.
func (s *AutomationSection) Settings() AutomationSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return AutomationSettings{
		ProgressThreshold: s.ProgressThreshold,
		MaxRetries:        s.MaxRetries,
		AutoStart:         s.AutoStart,
		CheckInterval:     s.CheckInterval,
		APIPollInterval:   s.APIPollInterval,
		MaxAPIAttempts:    s.MaxAPIAttempts,
	}
}

// SetProgressThreshold sets the completion target percent.
func (s *AutomationSection) SetProgressThreshold(value int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ProgressThreshold = value
}

// SetMaxRetries sets the per-lesson retry limit.
func (s *AutomationSection) SetMaxRetries(value int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.MaxRetries = value
}

// SetAutoStart sets whether automation starts on attach.
func (s *AutomationSection) SetAutoStart(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.AutoStart = enabled
}

// intValue accepts the numeric shapes JSON decoding and callers produce.
func intValue(key string, value interface{}) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		// JSON numbers come as float64
		return int(v), nil
	default:
		return 0, fmt.Errorf("invalid value type for %s: expected number, got %T", key, value)
	}
}
