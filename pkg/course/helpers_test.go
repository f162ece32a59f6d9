package course

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/entrhq/coursepilot/pkg/dom/snapshot"
	"github.com/entrhq/coursepilot/pkg/types"
)

// header describes the course header frame.
type header struct {
	progress string
	start    bool
	resume   bool
	next     bool
	exit     bool
}

func (h header) html() string {
	var b strings.Builder
	b.WriteString("<html><body>")
	if h.progress != "" {
		fmt.Fprintf(&b, `<span id="lp">%s</span>`, h.progress)
	}
	fmt.Fprintf(&b, `<a id="one" href="#"%s>Start</a>`, hiddenUnless(h.start))
	fmt.Fprintf(&b, `<a id="two" href="#"%s>Resume</a>`, hiddenUnless(h.resume))
	fmt.Fprintf(&b, `<a id="four" href="#"%s>Next</a>`, hiddenUnless(h.next))
	b.WriteString(`<a id="close" class="button" href="javascript:close();">Close Window</a>`)
	if h.exit {
		b.WriteString(`<a id="exit" class="button" href="javascript:close();">Exit Course</a>`)
	}
	b.WriteString("</body></html>")
	return b.String()
}

func hiddenUnless(visible bool) string {
	if visible {
		return ""
	}
	return ` style="display: none"`
}

// lessonMenu renders the lesson menu with lessonID selected. state is
// "complete", "incomplete", or "" for an entry without an icon container.
func lessonMenu(lessonID, state string) string {
	icon := ""
	switch state {
	case "complete":
		icon = `<span class="menuTabItemIconContainer menuTabLessonIcon_completed"></span>`
	case "incomplete":
		icon = `<span class="menuTabItemIconContainer menuTabLessonIcon_incomplete"></span>`
	}
	return fmt.Sprintf(`<html><body>
<div class="menuTabItem" id="lesson-0"><span class="menuTabItemIconContainer menuTabLessonIcon_completed"></span><a href="#">Intro</a></div>
<div class="menuTabItem" id="%s"><div class="menuTabItemSelected"><a id="retry" href="#">Current</a></div>%s</div>
</body></html>`, lessonID, icon)
}

type coursePage struct {
	t       *testing.T
	page    *snapshot.Page
	header  *snapshot.Frame
	lessons *snapshot.Frame
}

func newCoursePage(t *testing.T, h header, lessons string) *coursePage {
	t.Helper()

	page, err := snapshot.New(snapshot.FrameSpec{
		Source: "<html><body></body></html>",
		API:    true,
		Frames: []snapshot.FrameSpec{
			{Name: FrameHeader, Source: h.html()},
			{Name: FrameLessons, Source: lessons},
		},
	})
	require.NoError(t, err)

	return &coursePage{
		t:       t,
		page:    page,
		header:  page.Frame(FrameHeader),
		lessons: page.Frame(FrameLessons),
	}
}

func (p *coursePage) setHeader(h header) {
	p.t.Helper()
	require.NoError(p.t, p.header.SetHTML(h.html()))
}

func (p *coursePage) setLessons(source string) {
	p.t.Helper()
	require.NoError(p.t, p.lessons.SetHTML(source))
}

func (p *coursePage) clicks(id string) int {
	return len(p.page.ClicksOn(id))
}

// fakeClock returns immediately, recording each requested wait.
type fakeClock struct {
	mu      sync.Mutex
	sleeps  []time.Duration
	onSleep func(d time.Duration)
}

func (f *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	f.mu.Lock()
	f.sleeps = append(f.sleeps, d)
	hook := f.onSleep
	f.mu.Unlock()

	if hook != nil {
		hook(d)
	}
	return ctx.Err()
}

func (f *fakeClock) recorded() []time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]time.Duration(nil), f.sleeps...)
}

// recordingRelay keeps every event.
type recordingRelay struct {
	mu     sync.Mutex
	events []*types.AutomationEvent
}

func (r *recordingRelay) Emit(event *types.AutomationEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingRelay) logs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []string
	for _, event := range r.events {
		if event.Type == types.EventTypeLog {
			out = append(out, event.Message)
		}
	}
	return out
}

func (r *recordingRelay) logsOf(logType types.LogType) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []string
	for _, event := range r.events {
		if event.Type == types.EventTypeLog && event.LogType == logType {
			out = append(out, event.Message)
		}
	}
	return out
}

func (r *recordingRelay) statuses() []types.Status {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []types.Status
	for _, event := range r.events {
		if event.Type == types.EventTypeStatus {
			out = append(out, *event.Data)
		}
	}
	return out
}

// logCollector is a Logf that records formatted lines.
type logCollector struct {
	lines []string
	types []types.LogType
}

func (l *logCollector) logf(logType types.LogType, format string, args ...interface{}) {
	l.lines = append(l.lines, fmt.Sprintf(format, args...))
	l.types = append(l.types, logType)
}

func testConfig() Configuration {
	cfg := DefaultConfiguration()
	cfg.MaxAPIAttempts = 3
	return cfg
}

// newTestController wires a controller over p with a fake clock and a
// recording relay.
func newTestController(p *coursePage, cfg Configuration) (*Controller, *fakeClock, *recordingRelay) {
	clock := &fakeClock{}
	relay := &recordingRelay{}
	session := NewSession(p.page.Main(), cfg)
	return NewController(session, relay, WithClock(clock)), clock, relay
}

// running puts the controller's session straight into Running and returns
// the generation to tick with.
func running(t *testing.T, c *Controller) uint64 {
	t.Helper()
	gen, ok := c.session.begin()
	require.True(t, ok)
	require.True(t, c.session.enterRunning(gen))
	return gen
}
