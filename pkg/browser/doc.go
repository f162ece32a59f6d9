// Package browser drives a Chromium instance through Playwright and exposes
// its frames as dom.Context values for the course automation.
//
// A Manager owns the Playwright driver. Launch opens a browser with one
// context and page; the course player usually opens in a popup, so callers
// use Session.AttachCoursePage to pick the page whose URL matches the
// configured attach patterns, then Origin to get the frame the automation
// searches from.
package browser
