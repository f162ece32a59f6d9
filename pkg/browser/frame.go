package browser

import (
	"errors"
	"fmt"

	"github.com/playwright-community/playwright-go"

	"github.com/entrhq/coursepilot/pkg/dom"
)

// ErrDetached is returned for any query on a frame that left the page.
var ErrDetached = errors.New("frame was detached")

const (
	completionAPIProbe = `() => {
		try {
			const api = window.JKOAPI && window.JKOAPI.document && window.JKOAPI.document.API_1484_11;
			return !!api;
		} catch (e) {
			return false;
		}
	}`

	completionAPISetValue = `([element, value]) =>
		String(window.JKOAPI.document.API_1484_11.SetValue(element, value))`
)

// Frame adapts a Playwright frame to dom.Context.
type Frame struct {
	frame playwright.Frame
}

// NewFrame wraps frame.
func NewFrame(frame playwright.Frame) *Frame {
	return &Frame{frame: frame}
}

// Unwrap returns the underlying Playwright frame.
func (f *Frame) Unwrap() playwright.Frame {
	return f.frame
}

func (f *Frame) Name() string {
	return f.frame.Name()
}

func (f *Frame) Parent() (dom.Context, error) {
	if f.frame.IsDetached() {
		return nil, ErrDetached
	}
	parent := f.frame.ParentFrame()
	if parent == nil {
		return nil, nil
	}
	return NewFrame(parent), nil
}

func (f *Frame) Top() (dom.Context, error) {
	if f.frame.IsDetached() {
		return nil, ErrDetached
	}
	top := f.frame
	for top.ParentFrame() != nil {
		top = top.ParentFrame()
	}
	return NewFrame(top), nil
}

func (f *Frame) FramesByName(name string) ([]dom.Context, error) {
	if f.frame.IsDetached() {
		return nil, ErrDetached
	}
	var found []dom.Context
	for _, child := range f.frame.ChildFrames() {
		if child.Name() == name && !child.IsDetached() {
			found = append(found, NewFrame(child))
		}
	}
	return found, nil
}

func (f *Frame) ElementByID(id string) (dom.Element, error) {
	if f.frame.IsDetached() {
		return nil, ErrDetached
	}
	handle, err := f.frame.QuerySelector(fmt.Sprintf("[id=%q]", id))
	if err != nil {
		return nil, fmt.Errorf("query #%s: %w", id, err)
	}
	return wrapElement(handle), nil
}

func (f *Frame) QuerySelectorAll(selector string) ([]dom.Element, error) {
	if f.frame.IsDetached() {
		return nil, ErrDetached
	}
	handles, err := f.frame.QuerySelectorAll(selector)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", selector, err)
	}
	elements := make([]dom.Element, 0, len(handles))
	for _, handle := range handles {
		elements = append(elements, &Element{handle: handle})
	}
	return elements, nil
}

// CompletionAPI probes the frame's window for the SCORM runtime. A window
// that throws while being probed counts as having none.
func (f *Frame) CompletionAPI() (dom.CompletionAPI, error) {
	if f.frame.IsDetached() {
		return nil, ErrDetached
	}
	result, err := f.frame.Evaluate(completionAPIProbe)
	if err != nil {
		return nil, fmt.Errorf("probe completion api: %w", err)
	}
	if present, _ := result.(bool); !present {
		return nil, nil
	}
	return &completionAPI{frame: f.frame}, nil
}

type completionAPI struct {
	frame playwright.Frame
}

func (a *completionAPI) SetValue(element, value string) error {
	if _, err := a.frame.Evaluate(completionAPISetValue, []interface{}{element, value}); err != nil {
		return fmt.Errorf("SetValue(%s): %w", element, err)
	}
	return nil
}
