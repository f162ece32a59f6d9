package browser_test

import (
	"context"
	"fmt"
	"html"
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/coursepilot/pkg/browser"
	"github.com/entrhq/coursepilot/pkg/course"
	"github.com/entrhq/coursepilot/pkg/dom"
)

const headerFrame = `<html><body>
<span id="lp">42%</span>
<a id="one" href="#" style="display:none">Start</a>
<a id="two" href="#" onclick="window.resumed = true; return false;">Resume</a>
<a id="four" href="#" style="width:0px; display:inline-block">Next</a>
</body></html>`

const lessonFrame = `<html><body>
<div class="menuTabItem" id="l1"><span class="menuTabItemIconContainer menuTabLessonIcon_completed"></span><a href="#">One</a></div>
<div class="menuTabItem" id="l2"><div class="menuTabItemSelected"><a href="#">Two</a></div>
  <span class="menuTabItemIconContainer menuTabLessonIcon_incomplete"></span></div>
</body></html>`

const coursePage = `<html><body>
<script>
window.JKOAPI = { document: { API_1484_11: {
  calls: [],
  SetValue(k, v) { this.calls.push(k + "=" + v); return "true"; }
} } };
</script>
<iframe name="courseheader" srcdoc="%s"></iframe>
<iframe name="coursegenerate" srcdoc="%s"></iframe>
</body></html>`

func openCoursePage(t *testing.T) playwright.Page {
	t.Helper()

	manager := browser.NewManager()
	require.NoError(t, manager.Initialize())
	t.Cleanup(func() { manager.Shutdown() })

	session, err := manager.Launch(browser.Options{Headless: true})
	require.NoError(t, err)

	content := fmt.Sprintf(coursePage, html.EscapeString(headerFrame), html.EscapeString(lessonFrame))
	require.NoError(t, session.Page.SetContent(content))
	return session.Page
}

func TestFrameAdapter(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	page := openCoursePage(t)
	origin, err := browser.Origin(page, "")
	require.NoError(t, err)

	t.Run("locates frames from the top", func(t *testing.T) {
		header, ok := dom.Locate(origin, "courseheader")
		require.True(t, ok)
		assert.Equal(t, "courseheader", header.Name())

		parent, err := header.Parent()
		require.NoError(t, err)
		assert.Equal(t, "", parent.Name())

		_, ok = dom.Locate(origin, "missing")
		assert.False(t, ok)
	})

	t.Run("reads progress", func(t *testing.T) {
		progress, ok := course.ReadProgress(origin)
		require.True(t, ok)
		assert.Equal(t, 42, progress)
	})

	t.Run("visibility", func(t *testing.T) {
		header, ok := dom.Locate(origin, "courseheader")
		require.True(t, ok)

		for id, want := range map[string]bool{"one": false, "two": true, "four": false} {
			el, err := header.ElementByID(id)
			require.NoError(t, err)
			require.NotNil(t, el, id)
			assert.Equal(t, want, dom.IsVisible(el), id)
		}

		missing, err := header.ElementByID("nope")
		require.NoError(t, err)
		assert.Nil(t, missing)
	})

	t.Run("lesson completion", func(t *testing.T) {
		session := course.NewSession(origin, course.DefaultConfiguration())
		inspector := course.NewInspector(session, nil)

		assert.Equal(t, course.CompletionIncomplete, inspector.CheckLessonCompletion())
		assert.Equal(t, "l2", session.State().LastLessonID)
	})

	t.Run("clicks and completion api", func(t *testing.T) {
		session := course.NewSession(origin, course.DefaultConfiguration())
		actions := course.NewActions(session, nil)

		assert.True(t, actions.StartOrResume())
		header, _ := dom.Locate(origin, "courseheader")
		resumed, err := header.(*browser.Frame).Unwrap().Evaluate("() => window.resumed === true")
		require.NoError(t, err)
		assert.Equal(t, true, resumed)

		assert.True(t, actions.MarkLessonComplete())
		calls, err := page.Evaluate("() => window.JKOAPI.document.API_1484_11.calls")
		require.NoError(t, err)
		assert.Equal(t, []interface{}{"cmi.completion_status=completed"}, calls)
	})
}

func TestAttachCoursePage(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	manager := browser.NewManager()
	require.NoError(t, manager.Initialize())
	defer manager.Shutdown()

	session, err := manager.Launch(browser.Options{Headless: true})
	require.NoError(t, err)

	matcher, err := browser.NewURLMatcher([]string{"data:text/html*"})
	require.NoError(t, err)

	_, err = session.FindCoursePage(matcher)
	assert.ErrorIs(t, err, browser.ErrNoCoursePage)

	require.NoError(t, session.Navigate("data:text/html,<p>course</p>", browser.NavigateOptions{}))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	page, err := session.AttachCoursePage(ctx, matcher, 50*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, session.Page, page)

	events := browser.Watch(page)
	require.NoError(t, session.Navigate("data:text/html,<p>reloaded</p>", browser.NavigateOptions{}))
	select {
	case <-events.Reloaded():
	case <-time.After(5 * time.Second):
		t.Fatal("expected a reload event")
	}
}
