package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Environment variables read at startup.
const (
	EnvConfigPath = "COURSEPILOT_CONFIG"
	EnvNATSURL    = "COURSEPILOT_NATS_URL"
	EnvCourseURL  = "COURSEPILOT_COURSE_URL"
	EnvHeadless   = "COURSEPILOT_HEADLESS"
)

// LoadEnv loads variables from the given .env files (default ".env") into
// the process environment without overriding variables already set.
// Missing files are not an error.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}

	for _, file := range files {
		if _, err := os.Stat(file); os.IsNotExist(err) {
			continue
		}
		if err := godotenv.Load(file); err != nil {
			return fmt.Errorf("failed to load %s: %w", file, err)
		}
	}
	return nil
}

// ApplyEnv copies environment overrides into the browser section.
func ApplyEnv(browser *BrowserSection) {
	if browser == nil {
		return
	}
	if url := os.Getenv(EnvCourseURL); url != "" {
		browser.SetCourseURL(url)
	}
	switch os.Getenv(EnvHeadless) {
	case "1", "true", "yes":
		browser.SetHeadless(true)
	case "0", "false", "no":
		browser.SetHeadless(false)
	}
}
