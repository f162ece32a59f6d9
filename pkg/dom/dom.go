package dom

// Context is a browsing context whose document can be queried.
type Context interface {
	// Name is the name attribute of the frame element hosting this context,
	// or "" for a top-level document.
	Name() string

	// Parent returns the enclosing context, or nil at the top.
	Parent() (Context, error)

	// Top returns the outermost context.
	Top() (Context, error)

	// FramesByName returns the nested contexts of this document whose frame
	// element carries the given name attribute, in document order.
	FramesByName(name string) ([]Context, error)

	// ElementByID returns the element with the given id, or nil.
	ElementByID(id string) (Element, error)

	// QuerySelectorAll returns every element matching selector.
	QuerySelectorAll(selector string) ([]Element, error)

	// CompletionAPI returns the completion-tracking object published on this
	// context's window, or nil when there is none.
	CompletionAPI() (CompletionAPI, error)
}

// Element is a node in a Context's document.
type Element interface {
	ID() (string, error)
	Text() (string, error)
	ClassName() (string, error)
	Attribute(name string) (string, error)

	// InlineStyle reads the element's own style declarations.
	InlineStyle() (Style, error)

	// ComputedStyle reads the style the renderer resolved.
	ComputedStyle() (Style, error)

	// Size is the rendered box size.
	Size() (Size, error)

	// Closest returns the nearest ancestor-or-self matching selector, or nil.
	Closest(selector string) (Element, error)

	// ParentElement returns the parent element, or nil.
	ParentElement() (Element, error)

	// QuerySelector returns the first descendant matching selector, or nil.
	QuerySelector(selector string) (Element, error)

	Click() error
}

// Style carries the two properties that decide visibility.
type Style struct {
	Display    string
	Visibility string
}

// Hidden reports whether the style hides the element.
func (s Style) Hidden() bool {
	return s.Display == "none" || s.Visibility == "hidden"
}

// Size is a rendered box size in CSS pixels.
type Size struct {
	Width  float64
	Height float64
}

// Empty reports whether either dimension is zero.
func (s Size) Empty() bool {
	return s.Width == 0 || s.Height == 0
}

// CompletionAPI is the SCORM 2004 runtime object a course publishes.
type CompletionAPI interface {
	SetValue(element, value string) error
}

// Markup is implemented by elements that can render their own HTML.
type Markup interface {
	OuterHTML() (string, error)
}
