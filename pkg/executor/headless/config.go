package headless

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/entrhq/coursepilot/pkg/config"
)

// Profile describes one unattended run, loaded from YAML. Settings left out
// of the profile come from the persisted settings file.
type Profile struct {
	// Course entry URL opened after launch
	CourseURL string `yaml:"course_url" json:"course_url"`

	// Browser overrides
	Browser BrowserProfile `yaml:"browser" json:"browser"`

	// Automation overrides, applied in memory only
	Settings SettingsProfile `yaml:"settings" json:"settings"`

	// NATS transport
	NATS NATSProfile `yaml:"nats" json:"nats"`

	// Timeout bounds the whole run; zero means no limit
	Timeout time.Duration `yaml:"timeout" json:"timeout"`

	// WatchSettings reloads the settings file when it changes on disk
	WatchSettings bool `yaml:"watch_settings" json:"watch_settings"`

	// Artifacts configuration
	Artifacts ArtifactConfig `yaml:"artifacts" json:"artifacts"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// BrowserProfile overrides the browser section.
type BrowserProfile struct {
	Headless       *bool    `yaml:"headless" json:"headless,omitempty"`
	AttachPatterns []string `yaml:"attach_patterns" json:"attach_patterns,omitempty"`
	AnchorFrame    string   `yaml:"anchor_frame" json:"anchor_frame,omitempty"`
	TimeoutMs      float64  `yaml:"timeout_ms" json:"timeout_ms,omitempty"`
}

// SettingsProfile overrides the automation section.
type SettingsProfile struct {
	ProgressThreshold *int           `yaml:"progress_threshold" json:"progress_threshold,omitempty"`
	MaxRetries        *int           `yaml:"max_retries" json:"max_retries,omitempty"`
	CheckInterval     *time.Duration `yaml:"check_interval" json:"check_interval,omitempty"`
}

// NATSProfile enables the NATS relay when URL is set.
type NATSProfile struct {
	URL          string `yaml:"url" json:"url"`
	Prefix       string `yaml:"prefix" json:"prefix"`
	ServeControl bool   `yaml:"serve_control" json:"serve_control"`
}

// LoggingConfig defines logging configuration
type LoggingConfig struct {
	// Verbosity controls logging level: quiet, normal, verbose, debug
	Verbosity string `yaml:"verbosity" json:"verbosity"`

	// Color enables ANSI colors on stdout
	Color *bool `yaml:"color" json:"color,omitempty"`
}

// ArtifactConfig defines artifact generation configuration
type ArtifactConfig struct {
	Enabled   bool   `yaml:"enabled" json:"enabled"`
	OutputDir string `yaml:"output_dir" json:"output_dir"`
}

// DefaultProfile returns a profile that runs headless with persisted settings.
func DefaultProfile() *Profile {
	headless := true
	return &Profile{
		Browser: BrowserProfile{Headless: &headless},
		Artifacts: ArtifactConfig{
			Enabled:   false,
			OutputDir: ".coursepilot/runs",
		},
		Logging: LoggingConfig{Verbosity: "normal"},
	}
}

// LoadProfile reads a YAML profile over the defaults.
func LoadProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}

	profile := DefaultProfile()
	if err := yaml.Unmarshal(data, profile); err != nil {
		return nil, fmt.Errorf("failed to parse profile: %w", err)
	}
	return profile, nil
}

// Validate validates the profile
func (p *Profile) Validate() error {
	if p.Timeout < 0 {
		return fmt.Errorf("timeout cannot be negative")
	}

	if p.Browser.TimeoutMs < 0 {
		return fmt.Errorf("browser timeout_ms cannot be negative")
	}

	if v := p.Settings.ProgressThreshold; v != nil && (*v < 1 || *v > 100) {
		return fmt.Errorf("progress_threshold must be between 1 and 100, got %d", *v)
	}

	if v := p.Settings.MaxRetries; v != nil && (*v < 1 || *v > 50) {
		return fmt.Errorf("max_retries must be between 1 and 50, got %d", *v)
	}

	if v := p.Settings.CheckInterval; v != nil && *v <= 0 {
		return fmt.Errorf("check_interval must be positive")
	}

	if p.NATS.ServeControl && p.NATS.URL == "" {
		return fmt.Errorf("nats.serve_control requires nats.url")
	}

	if p.Artifacts.Enabled && p.Artifacts.OutputDir == "" {
		return fmt.Errorf("artifacts.output_dir is required when artifacts are enabled")
	}

	// Set default verbosity if not specified
	if p.Logging.Verbosity == "" {
		p.Logging.Verbosity = "normal"
	}

	validLevels := map[string]bool{
		"quiet":   true,
		"normal":  true,
		"verbose": true,
		"debug":   true,
	}
	if !validLevels[p.Logging.Verbosity] {
		return fmt.Errorf("invalid logging verbosity: %s (must be 'quiet', 'normal', 'verbose', or 'debug')", p.Logging.Verbosity)
	}

	return nil
}

// Apply overlays the profile onto manager's sections. Nothing is saved.
func (p *Profile) Apply(manager *config.Manager) error {
	if browser := config.BrowserOf(manager); browser != nil {
		data := map[string]interface{}{}
		if p.CourseURL != "" {
			data["course_url"] = p.CourseURL
		}
		if p.Browser.Headless != nil {
			data["headless"] = *p.Browser.Headless
		}
		if len(p.Browser.AttachPatterns) > 0 {
			data["attach_patterns"] = p.Browser.AttachPatterns
		}
		if p.Browser.AnchorFrame != "" {
			data["anchor_frame"] = p.Browser.AnchorFrame
		}
		if p.Browser.TimeoutMs > 0 {
			data["timeout_ms"] = p.Browser.TimeoutMs
		}
		if err := browser.SetData(data); err != nil {
			return fmt.Errorf("failed to apply browser profile: %w", err)
		}
	}

	if automation := config.AutomationOf(manager); automation != nil {
		if v := p.Settings.ProgressThreshold; v != nil {
			automation.SetProgressThreshold(*v)
		}
		if v := p.Settings.MaxRetries; v != nil {
			automation.SetMaxRetries(*v)
		}
		if v := p.Settings.CheckInterval; v != nil {
			if err := automation.SetData(map[string]interface{}{"check_interval_ms": v.Milliseconds()}); err != nil {
				return fmt.Errorf("failed to apply settings profile: %w", err)
			}
		}
	}

	return nil
}

// Verbose reports whether status events should be printed.
func (p *Profile) Verbose() bool {
	return parseLogLevel(p.Logging.Verbosity) >= LogLevelVerbose
}

// Colored reports whether console output uses ANSI colors.
func (p *Profile) Colored() bool {
	return p.Logging.Color == nil || *p.Logging.Color
}
