package pilot

import (
	"context"
	"fmt"
	"time"

	"github.com/entrhq/coursepilot/pkg/browser"
	"github.com/entrhq/coursepilot/pkg/config"
	"github.com/entrhq/coursepilot/pkg/logging"
)

// BrowserSource yields the course page of a Playwright session.
type BrowserSource struct {
	session *browser.Session
	matcher *browser.URLMatcher
	anchor  string
	poll    time.Duration
	logger  *logging.Logger
}

// NewBrowserSource picks course pages by the attach patterns and anchor
// frame in settings.
func NewBrowserSource(session *browser.Session, settings config.BrowserSettings, logger *logging.Logger) (*BrowserSource, error) {
	matcher, err := browser.NewURLMatcher(settings.AttachPatterns)
	if err != nil {
		return nil, err
	}
	return &BrowserSource{
		session: session,
		matcher: matcher,
		anchor:  settings.AnchorFrame,
		poll:    browser.DefaultAttachPoll,
		logger:  logger,
	}, nil
}

// Attach waits for a matching page whose anchor frame has loaded.
func (s *BrowserSource) Attach(ctx context.Context) (*Target, error) {
	for {
		page, err := s.session.AttachCoursePage(ctx, s.matcher, s.poll)
		if err != nil {
			return nil, err
		}

		origin, err := browser.Origin(page, s.anchor)
		if err == nil {
			events := browser.Watch(page)
			return &Target{
				URL:      page.URL(),
				Origin:   origin,
				Reloaded: events.Reloaded(),
				Closed:   events.Closed(),
			}, nil
		}
		s.logger.Debugf("Course page not ready: %v", err)

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("waiting for anchor frame: %w", ctx.Err())
		case <-time.After(s.poll):
		}
	}
}

// OpenBrowser launches Chromium with settings, opens the course URL if one
// is set, and returns a source over the launched session. shutdown closes
// the browser and stops Playwright.
func OpenBrowser(settings config.BrowserSettings, logger *logging.Logger) (source *BrowserSource, shutdown func() error, err error) {
	manager := browser.NewManager()
	if err := manager.Initialize(); err != nil {
		return nil, nil, err
	}

	session, err := manager.Launch(browser.OptionsFrom(settings))
	if err != nil {
		manager.Shutdown()
		return nil, nil, err
	}

	if settings.CourseURL != "" {
		if err := session.Navigate(settings.CourseURL, browser.NavigateOptions{WaitUntil: "domcontentloaded"}); err != nil {
			manager.Shutdown()
			return nil, nil, err
		}
		logger.Infof("Opened %s", settings.CourseURL)
	}

	source, err = NewBrowserSource(session, settings, logger)
	if err != nil {
		manager.Shutdown()
		return nil, nil, err
	}
	return source, manager.Shutdown, nil
}
