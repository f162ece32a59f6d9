package browser

import (
	"fmt"

	"github.com/playwright-community/playwright-go"

	"github.com/entrhq/coursepilot/pkg/dom"
)

const (
	scriptClassName     = `e => e.getAttribute("class") || ""`
	scriptInlineStyle   = `e => ({ display: e.style.display, visibility: e.style.visibility })`
	scriptComputedStyle = `e => {
		const s = e.ownerDocument.defaultView.getComputedStyle(e);
		return { display: s.display, visibility: s.visibility };
	}`
	scriptSize    = `e => ({ width: e.offsetWidth, height: e.offsetHeight })`
	scriptClosest = `(e, selector) => e.closest(selector)`
	scriptParent  = `e => e.parentElement`
	scriptOuter   = `e => e.outerHTML`

	// The DOM click skips Playwright's actionability waits, which would
	// stall on controls the course keeps covered.
	scriptClick = `e => e.click()`
)

// Element adapts a Playwright element handle to dom.Element.
type Element struct {
	handle playwright.ElementHandle
}

func wrapElement(handle playwright.ElementHandle) dom.Element {
	if handle == nil {
		return nil
	}
	return &Element{handle: handle}
}

func (e *Element) ID() (string, error) {
	return e.Attribute("id")
}

func (e *Element) Text() (string, error) {
	text, err := e.handle.TextContent()
	if err != nil {
		return "", fmt.Errorf("read text: %w", err)
	}
	return text, nil
}

func (e *Element) ClassName() (string, error) {
	result, err := e.handle.Evaluate(scriptClassName)
	if err != nil {
		return "", fmt.Errorf("read class: %w", err)
	}
	class, _ := result.(string)
	return class, nil
}

func (e *Element) Attribute(name string) (string, error) {
	value, err := e.handle.GetAttribute(name)
	if err != nil {
		return "", fmt.Errorf("read attribute %s: %w", name, err)
	}
	return value, nil
}

func (e *Element) InlineStyle() (dom.Style, error) {
	return e.style(scriptInlineStyle)
}

func (e *Element) ComputedStyle() (dom.Style, error) {
	return e.style(scriptComputedStyle)
}

func (e *Element) style(script string) (dom.Style, error) {
	result, err := e.handle.Evaluate(script)
	if err != nil {
		return dom.Style{}, fmt.Errorf("read style: %w", err)
	}
	fields, _ := result.(map[string]interface{})
	display, _ := fields["display"].(string)
	visibility, _ := fields["visibility"].(string)
	return dom.Style{Display: display, Visibility: visibility}, nil
}

func (e *Element) Size() (dom.Size, error) {
	result, err := e.handle.Evaluate(scriptSize)
	if err != nil {
		return dom.Size{}, fmt.Errorf("read size: %w", err)
	}
	fields, _ := result.(map[string]interface{})
	return dom.Size{Width: number(fields["width"]), Height: number(fields["height"])}, nil
}

func (e *Element) Closest(selector string) (dom.Element, error) {
	return e.related(scriptClosest, selector)
}

func (e *Element) ParentElement() (dom.Element, error) {
	return e.related(scriptParent, nil)
}

func (e *Element) related(script string, arg interface{}) (dom.Element, error) {
	var (
		handle playwright.JSHandle
		err    error
	)
	if arg == nil {
		handle, err = e.handle.EvaluateHandle(script)
	} else {
		handle, err = e.handle.EvaluateHandle(script, arg)
	}
	if err != nil {
		return nil, fmt.Errorf("resolve element: %w", err)
	}

	element := handle.AsElement()
	if element == nil {
		_ = handle.Dispose()
		return nil, nil
	}
	return &Element{handle: element}, nil
}

func (e *Element) QuerySelector(selector string) (dom.Element, error) {
	handle, err := e.handle.QuerySelector(selector)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", selector, err)
	}
	return wrapElement(handle), nil
}

func (e *Element) Click() error {
	if _, err := e.handle.Evaluate(scriptClick); err != nil {
		return fmt.Errorf("click: %w", err)
	}
	return nil
}

// OuterHTML returns the element's serialized markup.
func (e *Element) OuterHTML() (string, error) {
	v, err := e.handle.Evaluate(scriptOuter)
	if err != nil {
		return "", fmt.Errorf("outer html: %w", err)
	}
	s, _ := v.(string)
	return s, nil
}

// number converts an evaluated JS number, which Playwright returns as int
// when it is integral.
func number(v interface{}) float64 {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case float64:
		return n
	default:
		return 0
	}
}
