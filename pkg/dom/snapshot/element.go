package snapshot

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"

	"github.com/entrhq/coursepilot/pkg/dom"
)

// defaultBox is the size reported for rendered elements without an explicit
// inline width or height.
var defaultBox = dom.Size{Width: 100, Height: 20}

// Element wraps a single goquery node. It implements dom.Element.
type Element struct {
	frame *Frame
	sel   *goquery.Selection
}

var _ dom.Element = (*Element)(nil)

func wrap(frame *Frame, sel *goquery.Selection) dom.Element {
	if sel == nil || sel.Length() == 0 {
		return nil
	}
	return &Element{frame: frame, sel: sel.First()}
}

func wrapAll(frame *Frame, sel *goquery.Selection) []dom.Element {
	out := make([]dom.Element, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		out = append(out, &Element{frame: frame, sel: s})
	})
	return out
}

// ID returns the id attribute.
func (e *Element) ID() (string, error) {
	return e.sel.AttrOr("id", ""), nil
}

// Text returns the text content.
func (e *Element) Text() (string, error) {
	return e.sel.Text(), nil
}

// ClassName returns the class attribute.
func (e *Element) ClassName() (string, error) {
	return e.sel.AttrOr("class", ""), nil
}

// Attribute returns the named attribute, or "".
func (e *Element) Attribute(name string) (string, error) {
	return e.sel.AttrOr(name, ""), nil
}

// InlineStyle parses the style attribute.
func (e *Element) InlineStyle() (dom.Style, error) {
	decl := parseStyle(e.sel.AttrOr("style", ""))
	return dom.Style{Display: decl["display"], Visibility: decl["visibility"]}, nil
}

// ComputedStyle approximates the renderer: the hidden attribute maps to
// display:none and visibility inherits from the nearest ancestor setting it.
func (e *Element) ComputedStyle() (dom.Style, error) {
	style, _ := e.InlineStyle()
	if _, hidden := e.sel.Attr("hidden"); hidden && style.Display == "" {
		style.Display = "none"
	}

	if style.Visibility == "" {
		for node := e.sel.Parent(); node.Length() > 0; node = node.Parent() {
			if v := parseStyle(node.AttrOr("style", ""))["visibility"]; v != "" {
				style.Visibility = v
				break
			}
		}
	}
	return style, nil
}

// Size is zero when the element or an ancestor is not displayed, otherwise
// the inline width and height with defaultBox filling the gaps.
func (e *Element) Size() (dom.Size, error) {
	for node := e.sel; node.Length() > 0; node = node.Parent() {
		if notDisplayed(node) {
			return dom.Size{}, nil
		}
	}

	decl := parseStyle(e.sel.AttrOr("style", ""))
	size := defaultBox
	if w, ok := pixels(decl["width"]); ok {
		size.Width = w
	}
	if h, ok := pixels(decl["height"]); ok {
		size.Height = h
	}
	return size, nil
}

// Closest returns the nearest ancestor-or-self matching selector.
func (e *Element) Closest(selector string) (dom.Element, error) {
	matcher, err := cascadia.Compile(selector)
	if err != nil {
		return nil, fmt.Errorf("invalid selector %q: %w", selector, err)
	}
	return wrap(e.frame, e.sel.ClosestMatcher(matcher)), nil
}

// ParentElement returns the parent element.
func (e *Element) ParentElement() (dom.Element, error) {
	return wrap(e.frame, e.sel.Parent()), nil
}

// QuerySelector returns the first matching descendant.
func (e *Element) QuerySelector(selector string) (dom.Element, error) {
	matcher, err := cascadia.Compile(selector)
	if err != nil {
		return nil, fmt.Errorf("invalid selector %q: %w", selector, err)
	}
	return wrap(e.frame, e.sel.FindMatcher(matcher)), nil
}

// Click records the click on the page.
func (e *Element) Click() error {
	if _, err := e.frame.document(); err != nil {
		return err
	}

	e.frame.page.recordClick(Click{
		Frame: e.frame.name,
		ID:    e.sel.AttrOr("id", ""),
		Class: e.sel.AttrOr("class", ""),
		Text:  strings.TrimSpace(e.sel.Text()),
	})
	return nil
}

// OuterHTML renders the element's markup.
func (e *Element) OuterHTML() (string, error) {
	var buf bytes.Buffer
	for _, node := range e.sel.Nodes {
		if err := html.Render(&buf, node); err != nil {
			return "", fmt.Errorf("failed to render element: %w", err)
		}
	}
	return buf.String(), nil
}

func notDisplayed(sel *goquery.Selection) bool {
	if _, hidden := sel.Attr("hidden"); hidden {
		return true
	}
	return parseStyle(sel.AttrOr("style", ""))["display"] == "none"
}

// parseStyle reads "prop: value; ..." declarations, lowercasing both sides.
func parseStyle(attr string) map[string]string {
	decl := make(map[string]string)
	for _, part := range strings.Split(attr, ";") {
		prop, value, ok := strings.Cut(part, ":")
		if !ok {
			continue
		}
		prop = strings.ToLower(strings.TrimSpace(prop))
		value = strings.ToLower(strings.TrimSpace(value))
		value = strings.TrimSpace(strings.TrimSuffix(value, "!important"))
		if prop != "" {
			decl[prop] = value
		}
	}
	return decl
}

func pixels(value string) (float64, bool) {
	if value == "" {
		return 0, false
	}
	n, err := strconv.ParseFloat(strings.TrimSuffix(value, "px"), 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
