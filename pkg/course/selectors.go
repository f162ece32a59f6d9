package course

// Frame names published by the course player.
const (
	FrameHeader  = "courseheader"
	FrameLessons = "coursegenerate"
	FrameText    = "text"
)

// Element ids in the header frame.
const (
	IDProgress = "lp"
	IDStart    = "one"
	IDResume   = "two"
	IDNext     = "four"
)

// Lesson menu classes in the lessons frame.
const (
	ClassMenuItem          = "menuTabItem"
	ClassMenuItemSelected  = "menuTabItemSelected"
	ClassMenuIconContainer = "menuTabItemIconContainer"
	ClassLessonCompleted   = "menuTabLessonIcon_completed"
)

const (
	selectorMenuItem      = "." + ClassMenuItem
	selectorSelected      = "." + ClassMenuItemSelected
	selectorSelectedLink  = "." + ClassMenuItemSelected + " a"
	selectorIconContainer = "." + ClassMenuIconContainer
	selectorExitLink      = `a.button[href="javascript:close();"]`

	exitLinkText = "Exit"
)

// SCORM 2004 completion call.
const (
	CompletionElement = "cmi.completion_status"
	CompletionValue   = "completed"
)

// progressFrames are searched, in order, for the progress display when it is
// not found directly.
var progressFrames = []string{FrameHeader, FrameLessons, FrameText}
