package course

import (
	"errors"
	"strings"

	"github.com/entrhq/coursepilot/pkg/dom"
	"github.com/entrhq/coursepilot/pkg/types"
)

// Completion is the lesson menu's verdict on the selected lesson.
type Completion int

const (
	// CompletionUnknown means no completion marker could be read.
	CompletionUnknown Completion = iota
	// CompletionIncomplete means the marker is present without the completed class.
	CompletionIncomplete
	// CompletionComplete means the marker carries the completed class.
	CompletionComplete
)

func (c Completion) String() string {
	switch c {
	case CompletionComplete:
		return "complete"
	case CompletionIncomplete:
		return "incomplete"
	default:
		return "unknown"
	}
}

var errNoParent = errors.New("selected lesson has no parent element")

// Inspector reads the lesson menu.
type Inspector struct {
	session *Session
	logf    Logf
}

// NewInspector creates an inspector over session.
func NewInspector(session *Session, logf Logf) *Inspector {
	return &Inspector{session: session, logf: orDiscard(logf)}
}

// CheckLessonCompletion reports whether the selected lesson is complete.
// Seeing a different lesson id than last time records it and resets the
// retry counter. Errors are logged and reported as unknown.
func (i *Inspector) CheckLessonCompletion() Completion {
	lessons, ok := dom.Locate(i.session.Origin(), FrameLessons)
	if !ok {
		return CompletionUnknown
	}

	completion, err := i.inspect(lessons)
	if err != nil {
		i.logf(types.LogError, "Error checking completion: %v", err)
		return CompletionUnknown
	}
	return completion
}

func (i *Inspector) inspect(lessons dom.Context) (Completion, error) {
	selected, err := lessons.QuerySelectorAll(selectorSelected)
	if err != nil {
		return CompletionUnknown, err
	}

	for _, item := range selected {
		entry, err := item.Closest(selectorMenuItem)
		if err != nil {
			return CompletionUnknown, err
		}

		scope := entry
		if entry != nil {
			id, err := entry.ID()
			if err != nil {
				return CompletionUnknown, err
			}
			if i.session.observeLesson(id) {
				i.logf(types.LogInfo, "New lesson: %s", id)
			}
		} else {
			scope, err = item.ParentElement()
			if err != nil {
				return CompletionUnknown, err
			}
			if scope == nil {
				return CompletionUnknown, errNoParent
			}
		}

		icon, err := scope.QuerySelector(selectorIconContainer)
		if err != nil {
			return CompletionUnknown, err
		}
		if icon == nil {
			continue
		}

		class, err := icon.ClassName()
		if err != nil {
			return CompletionUnknown, err
		}
		if strings.Contains(class, ClassLessonCompleted) {
			return CompletionComplete, nil
		}
		return CompletionIncomplete, nil
	}

	return CompletionUnknown, nil
}
