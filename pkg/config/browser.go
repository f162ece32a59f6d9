package config

import (
	"fmt"
	"sync"
)

const (
	// SectionIDBrowser is the identifier for the browser attachment settings
	SectionIDBrowser = "browser"

	defaultBrowserHeadless = false
	defaultBrowserTimeout  = 30000.0
)

// DefaultAttachPatterns match the course player window.
var DefaultAttachPatterns = []string{"https://*jten.mil/*", "https://*jkodirect*/*"}

// BrowserSection configures the browser the automation attaches to.
type BrowserSection struct {
	Headless       bool     `json:"headless"`
	CourseURL      string   `json:"course_url"`
	AttachPatterns []string `json:"attach_patterns"`
	AnchorFrame    string   `json:"anchor_frame"`
	TimeoutMs      float64  `json:"timeout_ms"`
	mu             sync.RWMutex
}

// BrowserSettings is a point-in-time copy of BrowserSection.
type BrowserSettings struct {
	Headless       bool
	CourseURL      string
	AttachPatterns []string
	AnchorFrame    string
	TimeoutMs      float64
}

// NewBrowserSection creates the section with defaults.
func NewBrowserSection() *BrowserSection {
	s := &BrowserSection{}
	s.Reset()
	return s
}

// ID returns the section identifier.
func (s *BrowserSection) ID() string {
	return SectionIDBrowser
}

// Title returns the section title.
func (s *BrowserSection) Title() string {
	return "Browser"
}

// Description returns the section description.
func (s *BrowserSection) Description() string {
	return "Browser mode, course entry URL and the URL patterns that identify the course page."
}

// Data returns the current configuration data.
func (s *BrowserSection) Data() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	patterns := make([]interface{}, len(s.AttachPatterns))
	for i, p := range s.AttachPatterns {
		patterns[i] = p
	}

	return map[string]interface{}{
		"headless":        s.Headless,
		"course_url":      s.CourseURL,
		"attach_patterns": patterns,
		"anchor_frame":    s.AnchorFrame,
		"timeout_ms":      s.TimeoutMs,
	}
}

// SetData updates the configuration from the provided data.
func (s *BrowserSection) SetData(data map[string]interface{}) error {
	if data == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for key, value := range data {
		switch key {
		case "headless":
			enabled, ok := value.(bool)
			if !ok {
				return fmt.Errorf("invalid value type for headless: expected bool, got %T", value)
			}
			s.Headless = enabled

		case "course_url", "anchor_frame":
			str, ok := value.(string)
			if !ok {
				return fmt.Errorf("invalid value type for %s: expected string, got %T", key, value)
			}
			if key == "course_url" {
				s.CourseURL = str
			} else {
				s.AnchorFrame = str
			}

		case "attach_patterns":
			patterns, err := stringList(value)
			if err != nil {
				return fmt.Errorf("invalid attach_patterns: %w", err)
			}
			s.AttachPatterns = patterns

		case "timeout_ms":
			n, err := intValue(key, value)
			if err != nil {
				return err
			}
			s.TimeoutMs = float64(n)

		default:
			continue
		}
	}

	return nil
}

// Validate checks the section.
func (s *BrowserSection) Validate() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.AttachPatterns) == 0 {
		return fmt.Errorf("at least one attach pattern is required")
	}
	if s.TimeoutMs < 0 {
		return fmt.Errorf("timeout_ms must not be negative, got %v", s.TimeoutMs)
	}
	return nil
}

// Reset restores defaults.
func (s *BrowserSection) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Headless = defaultBrowserHeadless
	s.CourseURL = ""
	s.AttachPatterns = append([]string(nil), DefaultAttachPatterns...)
	s.AnchorFrame = ""
	s.TimeoutMs = defaultBrowserTimeout
}

// Settings returns a copy of the browser settings.
func (s *BrowserSection) Settings() BrowserSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return BrowserSettings{
		Headless:       s.Headless,
		CourseURL:      s.CourseURL,
		AttachPatterns: append([]string(nil), s.AttachPatterns...),
		AnchorFrame:    s.AnchorFrame,
		TimeoutMs:      s.TimeoutMs,
	}
}

// SetCourseURL sets the entry URL opened on launch.
func (s *BrowserSection) SetCourseURL(url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.CourseURL = url
}

// SetHeadless sets the browser mode.
func (s *BrowserSection) SetHeadless(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Headless = enabled
}

func stringList(value interface{}) ([]string, error) {
	switch v := value.(type) {
	case []string:
		return append([]string(nil), v...), nil
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			str, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("expected string, got %T", item)
			}
			out = append(out, str)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected list of strings, got %T", value)
	}
}
