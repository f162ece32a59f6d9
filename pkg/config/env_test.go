package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	content := "COURSEPILOT_COURSE_URL=https://lms.example/start\nCOURSEPILOT_HEADLESS=true\n"
	if err := os.WriteFile(envFile, []byte(content), 0600); err != nil {
		t.Fatalf("write: %v", err)
	}

	t.Setenv(EnvCourseURL, "")
	os.Unsetenv(EnvCourseURL)
	t.Setenv(EnvHeadless, "")
	os.Unsetenv(EnvHeadless)

	if err := LoadEnv(envFile); err != nil {
		t.Fatalf("LoadEnv: %v", err)
	}

	browser := NewBrowserSection()
	ApplyEnv(browser)

	s := browser.Settings()
	if s.CourseURL != "https://lms.example/start" {
		t.Errorf("course url = %q", s.CourseURL)
	}
	if !s.Headless {
		t.Error("headless override not applied")
	}
}

func TestLoadEnvMissingFile(t *testing.T) {
	if err := LoadEnv(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Errorf("missing file should be ignored: %v", err)
	}
}

func TestApplyEnvKeepsExistingValues(t *testing.T) {
	t.Setenv(EnvCourseURL, "")
	t.Setenv(EnvHeadless, "")

	browser := NewBrowserSection()
	browser.SetCourseURL("https://kept.example")
	ApplyEnv(browser)

	if browser.Settings().CourseURL != "https://kept.example" {
		t.Error("empty env should not override")
	}
	ApplyEnv(nil)
}
