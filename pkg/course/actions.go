package course

import (
	"strings"

	"github.com/entrhq/coursepilot/pkg/dom"
	"github.com/entrhq/coursepilot/pkg/types"
)

// Logf receives the log lines produced by actions and inspections.
type Logf func(logType types.LogType, format string, args ...interface{})

func orDiscard(logf Logf) Logf {
	if logf == nil {
		return func(types.LogType, string, ...interface{}) {}
	}
	return logf
}

// Actions performs the clicks and API calls that move a course along. Each
// action does nothing and returns false when its target is missing, and
// performs at most one click or call otherwise.
type Actions struct {
	session *Session
	logf    Logf
}

// NewActions creates the action set for session.
func NewActions(session *Session, logf Logf) *Actions {
	return &Actions{session: session, logf: orDiscard(logf)}
}

// StartOrResume clicks the header's resume control, or the start control if
// resume is not showing. A click latches HasStarted. Failures are silent.
func (a *Actions) StartOrResume() bool {
	header, ok := dom.Locate(a.session.Origin(), FrameHeader)
	if !ok {
		return false
	}

	controls := []struct {
		id      string
		message string
	}{
		{IDResume, "Clicking Resume button"},
		{IDStart, "Clicking Start button"},
	}

	for _, control := range controls {
		el, err := header.ElementByID(control.id)
		if err != nil {
			return false
		}
		if !dom.IsVisible(el) {
			continue
		}

		a.logf(types.LogSuccess, "%s", control.message)
		if err := el.Click(); err != nil {
			return false
		}
		a.session.markStarted()
		return true
	}
	return false
}

// RetryCurrentLesson clicks the link of the selected lesson.
func (a *Actions) RetryCurrentLesson() bool {
	lessons, ok := dom.Locate(a.session.Origin(), FrameLessons)
	if !ok {
		return false
	}

	links, err := lessons.QuerySelectorAll(selectorSelectedLink)
	if err != nil {
		a.logf(types.LogError, "Error retrying lesson: %v", err)
		return false
	}
	if len(links) == 0 {
		return false
	}

	a.logf(types.LogInfo, "Retrying current lesson...")
	if err := links[0].Click(); err != nil {
		a.logf(types.LogError, "Error retrying lesson: %v", err)
		return false
	}
	return true
}

// AdvanceToNextLesson clicks the header's next control when it is visible.
func (a *Actions) AdvanceToNextLesson() bool {
	header, ok := dom.Locate(a.session.Origin(), FrameHeader)
	if !ok {
		return false
	}

	next, err := header.ElementByID(IDNext)
	if err != nil {
		a.logf(types.LogError, "Error clicking Next: %v", err)
		return false
	}
	if !dom.IsVisible(next) {
		return false
	}

	a.logf(types.LogInfo, "Clicking Next Lesson")
	if err := next.Click(); err != nil {
		a.logf(types.LogError, "Error clicking Next: %v", err)
		return false
	}
	return true
}

// ExitCourse clicks the first close link whose text mentions Exit.
func (a *Actions) ExitCourse() bool {
	header, ok := dom.Locate(a.session.Origin(), FrameHeader)
	if !ok {
		return false
	}

	links, err := header.QuerySelectorAll(selectorExitLink)
	if err != nil {
		a.logf(types.LogError, "Error clicking Exit: %v", err)
		return false
	}

	for _, link := range links {
		text, err := link.Text()
		if err != nil {
			a.logf(types.LogError, "Error clicking Exit: %v", err)
			return false
		}
		if !strings.Contains(text, exitLinkText) {
			continue
		}

		a.logf(types.LogSuccess, "Clicking Exit Course!")
		if err := link.Click(); err != nil {
			a.logf(types.LogError, "Error clicking Exit: %v", err)
			return false
		}
		return true
	}
	return false
}

// FindAPI returns the completion API published on the origin's parent, its
// top, or the origin itself, in that order. Unreadable windows are skipped.
func (a *Actions) FindAPI() dom.CompletionAPI {
	for _, candidate := range dom.Candidates(a.session.Origin(), dom.ParentOf, dom.TopOf, dom.Self) {
		api, err := candidate.CompletionAPI()
		if err != nil || api == nil {
			continue
		}
		return api
	}
	return nil
}

// MarkLessonComplete reports the current lesson as completed through the
// completion API. Call failures are logged.
func (a *Actions) MarkLessonComplete() bool {
	api := a.FindAPI()
	if api == nil {
		return false
	}

	if err := api.SetValue(CompletionElement, CompletionValue); err != nil {
		a.logf(types.LogError, "Error setting completion: %v", err)
		return false
	}
	return true
}
