package headless

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/coursepilot/pkg/config"
)

func intPtr(v int) *int { return &v }

func TestLoadProfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	data := `course_url: https://jkodirect.jten.mil/course
browser:
  headless: false
  anchor_frame: player
settings:
  progress_threshold: 95
  max_retries: 5
  check_interval: 3s
nats:
  url: nats://localhost:4222
  prefix: lab
  serve_control: true
timeout: 2h
artifacts:
  enabled: true
  output_dir: out
logging:
  verbosity: verbose
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0600))

	profile, err := LoadProfile(path)
	require.NoError(t, err)
	require.NoError(t, profile.Validate())

	assert.Equal(t, "https://jkodirect.jten.mil/course", profile.CourseURL)
	require.NotNil(t, profile.Browser.Headless)
	assert.False(t, *profile.Browser.Headless)
	assert.Equal(t, "player", profile.Browser.AnchorFrame)
	assert.Equal(t, 95, *profile.Settings.ProgressThreshold)
	assert.Equal(t, 5, *profile.Settings.MaxRetries)
	assert.Equal(t, 3*time.Second, *profile.Settings.CheckInterval)
	assert.Equal(t, "lab", profile.NATS.Prefix)
	assert.True(t, profile.NATS.ServeControl)
	assert.Equal(t, 2*time.Hour, profile.Timeout)
	assert.Equal(t, "out", profile.Artifacts.OutputDir)
	assert.True(t, profile.Verbose())
	assert.True(t, profile.Colored())
}

func TestLoadProfileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte("course_url: https://example.test/\n"), 0600))

	profile, err := LoadProfile(path)
	require.NoError(t, err)

	require.NotNil(t, profile.Browser.Headless)
	assert.True(t, *profile.Browser.Headless)
	assert.Equal(t, ".coursepilot/runs", profile.Artifacts.OutputDir)
	assert.Nil(t, profile.Settings.ProgressThreshold)
}

func TestLoadProfileErrors(t *testing.T) {
	_, err := LoadProfile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("timeout: [\n"), 0600))
	_, err = LoadProfile(path)
	assert.Error(t, err)
}

func TestProfileValidate(t *testing.T) {
	zero := time.Duration(0)

	tests := []struct {
		name    string
		mutate  func(*Profile)
		wantErr bool
	}{
		{"defaults", func(*Profile) {}, false},
		{"negative timeout", func(p *Profile) { p.Timeout = -time.Second }, true},
		{"threshold too high", func(p *Profile) { p.Settings.ProgressThreshold = intPtr(101) }, true},
		{"threshold too low", func(p *Profile) { p.Settings.ProgressThreshold = intPtr(0) }, true},
		{"threshold bounds", func(p *Profile) { p.Settings.ProgressThreshold = intPtr(100) }, false},
		{"retries too high", func(p *Profile) { p.Settings.MaxRetries = intPtr(51) }, true},
		{"zero interval", func(p *Profile) { p.Settings.CheckInterval = &zero }, true},
		{"control without url", func(p *Profile) { p.NATS.ServeControl = true }, true},
		{"artifacts without dir", func(p *Profile) {
			p.Artifacts.Enabled = true
			p.Artifacts.OutputDir = ""
		}, true},
		{"bad verbosity", func(p *Profile) { p.Logging.Verbosity = "loud" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profile := DefaultProfile()
			tt.mutate(profile)
			err := profile.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateDefaultsVerbosity(t *testing.T) {
	profile := DefaultProfile()
	profile.Logging.Verbosity = ""
	require.NoError(t, profile.Validate())
	assert.Equal(t, "normal", profile.Logging.Verbosity)
	assert.False(t, profile.Verbose())
}

func TestProfileApply(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	manager, err := config.NewFileManager(path)
	require.NoError(t, err)

	interval := 5 * time.Second
	headless := false
	profile := DefaultProfile()
	profile.CourseURL = "https://jkodirect.jten.mil/x"
	profile.Browser.Headless = &headless
	profile.Browser.AttachPatterns = []string{"https://course/*"}
	profile.Browser.TimeoutMs = 1500
	profile.Settings.ProgressThreshold = intPtr(88)
	profile.Settings.MaxRetries = intPtr(3)
	profile.Settings.CheckInterval = &interval

	require.NoError(t, profile.Apply(manager))

	browser := config.BrowserOf(manager).Settings()
	assert.Equal(t, "https://jkodirect.jten.mil/x", browser.CourseURL)
	assert.False(t, browser.Headless)
	assert.Equal(t, []string{"https://course/*"}, browser.AttachPatterns)
	assert.Equal(t, 1500.0, browser.TimeoutMs)

	automation := config.AutomationOf(manager).Settings()
	assert.Equal(t, 88, automation.ProgressThreshold)
	assert.Equal(t, 3, automation.MaxRetries)
	assert.Equal(t, 5*time.Second, automation.CheckInterval)

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "profile overrides are not saved")
}
