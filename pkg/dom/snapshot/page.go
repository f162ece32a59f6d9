package snapshot

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"

	"github.com/entrhq/coursepilot/pkg/dom"
)

var (
	// ErrBlocked is returned for any document access on a blocked frame.
	ErrBlocked = errors.New("blocked a frame from accessing a cross-origin frame")

	// ErrDetached is returned once a frame has been detached.
	ErrDetached = errors.New("frame was detached")
)

// Click records one element click.
type Click struct {
	Frame string
	ID    string
	Class string
	Text  string
}

// APICall records one completion API SetValue call.
type APICall struct {
	Frame   string
	Element string
	Value   string
}

// Page is a snapshot frame tree with its recorded interactions.
type Page struct {
	mu       sync.Mutex
	url      string
	main     *Frame
	clicks   []Click
	apiCalls []APICall
	onClick  func(Click)
}

// New builds a page from an in-memory frame tree. Frame markup comes from
// Source; HTML paths are not read.
func New(spec FrameSpec) (*Page, error) {
	page := &Page{}
	main, err := page.build(spec, nil)
	if err != nil {
		return nil, err
	}
	page.main = main
	return page, nil
}

func (p *Page) build(spec FrameSpec, parent *Frame) (*Frame, error) {
	doc, err := parseDocument(spec.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to parse frame %q: %w", spec.Name, err)
	}

	frame := &Frame{
		page:    p,
		name:    spec.Name,
		parent:  parent,
		doc:     doc,
		api:     spec.API,
		blocked: spec.Blocked,
	}

	for _, child := range spec.Frames {
		built, err := p.build(child, frame)
		if err != nil {
			return nil, err
		}
		frame.children = append(frame.children, built)
	}
	return frame, nil
}

func parseDocument(source string) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(source))
}

// URL is the page URL recorded in the manifest.
func (p *Page) URL() string {
	return p.url
}

// Main returns the top-level frame.
func (p *Page) Main() *Frame {
	return p.main
}

// Frame returns the first frame named name in depth-first order, or nil.
func (p *Page) Frame(name string) *Frame {
	return p.main.find(name)
}

// Frames returns every frame in depth-first order.
func (p *Page) Frames() []*Frame {
	var out []*Frame
	var walk func(f *Frame)
	walk = func(f *Frame) {
		out = append(out, f)
		for _, child := range f.children {
			walk(child)
		}
	}
	walk(p.main)
	return out
}

// OnClick installs a hook run after every recorded click. Hooks run on the
// clicking goroutine and may change frame documents.
func (p *Page) OnClick(fn func(Click)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onClick = fn
}

// Clicks returns the clicks recorded so far.
func (p *Page) Clicks() []Click {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Click(nil), p.clicks...)
}

// ClicksOn returns the recorded clicks on elements with the given id.
func (p *Page) ClicksOn(id string) []Click {
	var out []Click
	for _, click := range p.Clicks() {
		if click.ID == id {
			out = append(out, click)
		}
	}
	return out
}

// APICalls returns the completion API calls recorded so far.
func (p *Page) APICalls() []APICall {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]APICall(nil), p.apiCalls...)
}

func (p *Page) recordClick(click Click) {
	p.mu.Lock()
	p.clicks = append(p.clicks, click)
	hook := p.onClick
	p.mu.Unlock()

	if hook != nil {
		hook(click)
	}
}

func (p *Page) recordAPICall(call APICall) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.apiCalls = append(p.apiCalls, call)
}

// Frame is one document of a snapshot page. It implements dom.Context.
type Frame struct {
	page     *Page
	name     string
	parent   *Frame
	children []*Frame

	// guarded by page.mu
	doc      *goquery.Document
	api      bool
	apiErr   error
	blocked  bool
	detached bool
}

var _ dom.Context = (*Frame)(nil)

func (f *Frame) find(name string) *Frame {
	if f.name == name {
		return f
	}
	for _, child := range f.children {
		if found := child.find(name); found != nil {
			return found
		}
	}
	return nil
}

// document returns the current document or the access error.
func (f *Frame) document() (*goquery.Document, error) {
	f.page.mu.Lock()
	defer f.page.mu.Unlock()

	if f.detached {
		return nil, ErrDetached
	}
	if f.blocked {
		return nil, ErrBlocked
	}
	return f.doc, nil
}

// Name returns the frame name.
func (f *Frame) Name() string {
	return f.name
}

// Parent returns the parent frame, or nil for the main frame.
func (f *Frame) Parent() (dom.Context, error) {
	if f.parent == nil {
		return nil, nil
	}
	return f.parent, nil
}

// Top returns the main frame.
func (f *Frame) Top() (dom.Context, error) {
	top := f
	for top.parent != nil {
		top = top.parent
	}
	return top, nil
}

// FramesByName returns the child frames named name.
func (f *Frame) FramesByName(name string) ([]dom.Context, error) {
	if _, err := f.document(); err != nil {
		return nil, err
	}

	var out []dom.Context
	for _, child := range f.children {
		if child.name == name {
			out = append(out, child)
		}
	}
	return out, nil
}

// ElementByID returns the first element whose id is id, or nil.
func (f *Frame) ElementByID(id string) (dom.Element, error) {
	doc, err := f.document()
	if err != nil {
		return nil, err
	}

	sel := doc.Find("[id]").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return s.AttrOr("id", "") == id
	}).First()
	return wrap(f, sel), nil
}

// QuerySelectorAll returns every element matching selector.
func (f *Frame) QuerySelectorAll(selector string) ([]dom.Element, error) {
	doc, err := f.document()
	if err != nil {
		return nil, err
	}

	matcher, err := cascadia.Compile(selector)
	if err != nil {
		return nil, fmt.Errorf("invalid selector %q: %w", selector, err)
	}
	return wrapAll(f, doc.FindMatcher(matcher)), nil
}

// CompletionAPI returns a recording API when the frame publishes one.
func (f *Frame) CompletionAPI() (dom.CompletionAPI, error) {
	if _, err := f.document(); err != nil {
		return nil, err
	}

	f.page.mu.Lock()
	defer f.page.mu.Unlock()
	if !f.api {
		return nil, nil
	}
	return &recordingAPI{frame: f}, nil
}

// SetHTML replaces the frame's document.
func (f *Frame) SetHTML(source string) error {
	doc, err := parseDocument(source)
	if err != nil {
		return fmt.Errorf("failed to parse frame %q: %w", f.name, err)
	}

	f.page.mu.Lock()
	defer f.page.mu.Unlock()
	f.doc = doc
	return nil
}

// SetBlocked toggles cross-origin style access failures.
func (f *Frame) SetBlocked(blocked bool) {
	f.page.mu.Lock()
	defer f.page.mu.Unlock()
	f.blocked = blocked
}

// SetAPI publishes or withdraws the completion API. A non-nil err makes
// SetValue fail with it.
func (f *Frame) SetAPI(enabled bool, err error) {
	f.page.mu.Lock()
	defer f.page.mu.Unlock()
	f.api = enabled
	f.apiErr = err
}

// Detach makes every later access fail with ErrDetached.
func (f *Frame) Detach() {
	f.page.mu.Lock()
	defer f.page.mu.Unlock()
	f.detached = true
}

type recordingAPI struct {
	frame *Frame
}

func (a *recordingAPI) SetValue(element, value string) error {
	a.frame.page.mu.Lock()
	err := a.frame.apiErr
	a.frame.page.mu.Unlock()
	if err != nil {
		return err
	}

	a.frame.page.recordAPICall(APICall{Frame: a.frame.name, Element: element, Value: value})
	return nil
}
