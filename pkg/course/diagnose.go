package course

import (
	"strings"

	"github.com/entrhq/coursepilot/pkg/dom"
)

// ControlState is a header control as the actions would find it.
type ControlState struct {
	Name    string
	Found   bool
	Visible bool
	Markup  string
}

// Diagnosis is a read-only survey of a course page.
type Diagnosis struct {
	Progress      int
	ProgressFound bool
	Lesson        Completion
	HeaderFound   bool
	LessonsFound  bool
	API           bool
	Controls      []ControlState
}

// Diagnose reads origin the way the automation does. Nothing is clicked and
// the completion API is only looked up.
func Diagnose(origin dom.Context) Diagnosis {
	session := NewSession(origin, DefaultConfiguration())

	var d Diagnosis
	d.Progress, d.ProgressFound = ReadProgress(origin)
	d.Lesson = NewInspector(session, nil).CheckLessonCompletion()
	d.API = NewActions(session, nil).FindAPI() != nil
	_, d.LessonsFound = dom.Locate(origin, FrameLessons)

	header, ok := dom.Locate(origin, FrameHeader)
	d.HeaderFound = ok
	if !ok {
		return d
	}

	for _, c := range []struct{ name, id string }{
		{"Start", IDStart},
		{"Resume", IDResume},
		{"Next", IDNext},
	} {
		state := ControlState{Name: c.name}
		if el, err := header.ElementByID(c.id); err == nil && el != nil {
			describe(&state, el)
		}
		d.Controls = append(d.Controls, state)
	}

	exit := ControlState{Name: "Exit"}
	if links, err := header.QuerySelectorAll(selectorExitLink); err == nil {
		for _, link := range links {
			if text, err := link.Text(); err == nil && strings.Contains(text, exitLinkText) {
				describe(&exit, link)
				break
			}
		}
	}
	d.Controls = append(d.Controls, exit)
	return d
}

func describe(state *ControlState, el dom.Element) {
	state.Found = true
	state.Visible = dom.IsVisible(el)
	if m, ok := el.(dom.Markup); ok {
		state.Markup, _ = m.OuterHTML()
	}
}
