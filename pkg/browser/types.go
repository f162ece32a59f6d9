package browser

import (
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/entrhq/coursepilot/pkg/config"
)

const (
	DefaultViewportWidth  = 1280
	DefaultViewportHeight = 900

	// DefaultTimeout is the Playwright operation timeout in milliseconds.
	DefaultTimeout = 30000.0

	// DefaultAttachPoll is how often AttachCoursePage rescans open pages.
	DefaultAttachPoll = 500 * time.Millisecond
)

// Session is a launched browser with its context and first page.
type Session struct {
	// Browser is the Playwright browser instance
	Browser playwright.Browser

	// Context is the browser context all course windows open in
	Context playwright.BrowserContext

	// Page is the page opened at launch
	Page playwright.Page

	// Headless indicates if the browser runs without a window
	Headless bool

	// CreatedAt is when the session was launched
	CreatedAt time.Time

	// CurrentURL is the URL last navigated to
	CurrentURL string
}

// Options configures a launch.
type Options struct {
	// Headless controls whether the browser runs without a visible window
	Headless bool

	// Viewport sets the initial viewport size
	Viewport *Viewport

	// Timeout sets the default timeout for operations (in milliseconds)
	Timeout float64
}

// Viewport represents the browser viewport dimensions.
type Viewport struct {
	Width  int
	Height int
}

// NavigateOptions configures page navigation behavior.
type NavigateOptions struct {
	// WaitUntil specifies when to consider navigation successful
	// Valid values: "load", "domcontentloaded", "networkidle"
	WaitUntil string

	// Timeout in milliseconds (0 means default)
	Timeout float64
}

// OptionsFrom builds launch options from the browser settings section.
func OptionsFrom(s config.BrowserSettings) Options {
	return Options{
		Headless: s.Headless,
		Timeout:  s.TimeoutMs,
	}
}
