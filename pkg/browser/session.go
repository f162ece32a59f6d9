package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/entrhq/coursepilot/pkg/dom"
)

// ErrNoCoursePage is returned when no open page matches the attach patterns.
var ErrNoCoursePage = errors.New("no course page is open")

// Navigate opens url in the session's first page.
func (s *Session) Navigate(url string, opts NavigateOptions) error {
	gotoOpts := playwright.PageGotoOptions{}

	if opts.WaitUntil != "" {
		waitUntil := playwright.WaitUntilState(opts.WaitUntil)
		gotoOpts.WaitUntil = &waitUntil
	}
	if opts.Timeout > 0 {
		gotoOpts.Timeout = &opts.Timeout
	}

	if _, err := s.Page.Goto(url, gotoOpts); err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}

	s.CurrentURL = s.Page.URL()
	return nil
}

// FindCoursePage returns the most recently opened page whose URL matches.
func (s *Session) FindCoursePage(matcher *URLMatcher) (playwright.Page, error) {
	pages := s.Context.Pages()
	for i := len(pages) - 1; i >= 0; i-- {
		if pages[i].IsClosed() {
			continue
		}
		if matcher.Match(pages[i].URL()) {
			return pages[i], nil
		}
	}
	return nil, ErrNoCoursePage
}

// AttachCoursePage waits until a page matching the patterns is open. The
// user may still be logging in, so this polls until ctx ends.
func (s *Session) AttachCoursePage(ctx context.Context, matcher *URLMatcher, poll time.Duration) (playwright.Page, error) {
	if poll <= 0 {
		poll = DefaultAttachPoll
	}

	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		page, err := s.FindCoursePage(matcher)
		if err == nil {
			return page, nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("waiting for course page: %w", ctx.Err())
		case <-ticker.C:
		}
	}
}

// Close releases the page, context and browser.
func (s *Session) Close() error {
	var errs []error
	if err := s.Context.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := s.Browser.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Origin returns the frame the automation searches from: the frame named
// anchor, or the page's main frame when anchor is empty.
func Origin(page playwright.Page, anchor string) (dom.Context, error) {
	if anchor == "" {
		return NewFrame(page.MainFrame()), nil
	}
	for _, frame := range page.Frames() {
		if frame.Name() == anchor && !frame.IsDetached() {
			return NewFrame(frame), nil
		}
	}
	return nil, fmt.Errorf("no frame named %q on %s", anchor, page.URL())
}

// PageEvents reports main-frame navigations and closure of one page.
type PageEvents struct {
	reloaded  chan struct{}
	closed    chan struct{}
	closeOnce sync.Once
}

// Watch subscribes to page. A navigation of the main frame means the course
// document was replaced, so any state bound to the old frames is stale.
func Watch(page playwright.Page) *PageEvents {
	events := &PageEvents{
		reloaded: make(chan struct{}, 1),
		closed:   make(chan struct{}),
	}

	main := page.MainFrame()
	page.OnFrameNavigated(func(frame playwright.Frame) {
		if frame != main {
			return
		}
		select {
		case events.reloaded <- struct{}{}:
		default:
		}
	})
	page.OnClose(func(playwright.Page) {
		events.closeOnce.Do(func() { close(events.closed) })
	})

	return events
}

// Reloaded receives once per burst of main-frame navigations.
func (e *PageEvents) Reloaded() <-chan struct{} {
	return e.reloaded
}

// Closed is closed when the page closes.
func (e *PageEvents) Closed() <-chan struct{} {
	return e.closed
}
