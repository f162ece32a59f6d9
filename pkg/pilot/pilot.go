// Package pilot binds the course automation to whatever course document is
// currently open: it attaches a controller to each document a Source yields,
// tears it down when the document reloads or closes, and routes control
// requests and settings reloads to the live controller.
package pilot

import (
	"context"
	"fmt"
	"sync"

	"github.com/entrhq/coursepilot/pkg/config"
	"github.com/entrhq/coursepilot/pkg/control"
	"github.com/entrhq/coursepilot/pkg/course"
	"github.com/entrhq/coursepilot/pkg/dom"
	"github.com/entrhq/coursepilot/pkg/logging"
	"github.com/entrhq/coursepilot/pkg/types"
)

// Target is one attached course document.
type Target struct {
	// URL is informational.
	URL string

	// Origin is the context the automation searches from.
	Origin dom.Context

	// Reloaded fires when the document is replaced.
	Reloaded <-chan struct{}

	// Closed is closed when the document goes away for good.
	Closed <-chan struct{}
}

// Source yields course documents, blocking until one is available.
type Source interface {
	Attach(ctx context.Context) (*Target, error)
}

// Option configures a Pilot.
type Option func(*Pilot)

// WithManager reads automation settings from manager on every attach.
func WithManager(manager *config.Manager) Option {
	return func(p *Pilot) { p.manager = manager }
}

// WithRelay sends controller events to relay.
func WithRelay(relay course.Relay) Option {
	return func(p *Pilot) { p.relay = relay }
}

// WithHandler attaches each controller to handler while it is live.
func WithHandler(handler *control.Handler) Option {
	return func(p *Pilot) { p.handler = handler }
}

// WithLogger sets the component logger.
func WithLogger(logger *logging.Logger) Option {
	return func(p *Pilot) { p.logger = logger }
}

// WithClock replaces the controllers' wall clock.
func WithClock(clock course.Clock) Option {
	return func(p *Pilot) { p.clock = clock }
}

// WithStartOnAttach starts every controller as soon as it attaches,
// regardless of the auto_start setting.
func WithStartOnAttach(enabled bool) Option {
	return func(p *Pilot) { p.startOnAttach = enabled }
}

// Pilot keeps one controller bound to the current course document.
type Pilot struct {
	source        Source
	manager       *config.Manager
	relay         course.Relay
	handler       *control.Handler
	logger        *logging.Logger
	clock         course.Clock
	startOnAttach bool

	mu           sync.Mutex
	current      *course.Controller
	finished     chan struct{}
	finishedOnce sync.Once
}

// New creates a pilot over source.
func New(source Source, opts ...Option) *Pilot {
	p := &Pilot{
		source:   source,
		finished: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Controller returns the live controller, or nil between documents.
func (p *Pilot) Controller() *course.Controller {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// Finished is closed the first time any controller reaches the threshold.
func (p *Pilot) Finished() <-chan struct{} {
	return p.finished
}

// Reload pushes settings loaded from disk into the live controller.
func (p *Pilot) Reload(settings config.AutomationSettings) {
	if controller := p.Controller(); controller != nil {
		controller.Reload(course.ConfigurationFrom(settings))
	}
}

// WatchSettings applies reload events until events closes or ctx ends.
func (p *Pilot) WatchSettings(ctx context.Context, events <-chan config.ReloadEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if event.Error != nil {
				p.logger.Warnf("Settings reload failed: %v", event.Error)
				continue
			}
			p.logger.Infof("Settings reloaded from %s", event.Path)
			p.Reload(event.Automation)
		}
	}
}

// Run attaches to documents until ctx ends. It returns ctx's error, or the
// source's error when attaching fails for another reason.
func (p *Pilot) Run(ctx context.Context) error {
	for {
		target, err := p.source.Attach(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("failed to attach to course page: %w", err)
		}

		p.logger.Infof("Attached to %s", target.URL)
		if err := p.drive(ctx, target); err != nil {
			return err
		}
	}
}

// drive runs one controller against target until the document reloads,
// closes, or ctx ends.
func (p *Pilot) drive(ctx context.Context, target *Target) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	opts := []course.Option{course.WithLogger(p.logger)}
	if p.clock != nil {
		opts = append(opts, course.WithClock(p.clock))
	}

	session := course.NewSession(target.Origin, p.configuration())
	controller := course.NewController(session, p.relay, opts...)

	p.mu.Lock()
	p.current = controller
	p.mu.Unlock()
	if p.handler != nil {
		p.handler.Attach(runCtx, controller)
	}

	defer p.release(controller, cancel)

	controller.Attach(runCtx)
	if p.startOnAttach {
		controller.Start(runCtx)
	}

	finished := controller.Finished()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-target.Reloaded:
			p.emit("Course page reloaded", types.LogInfo)
			return nil

		case <-target.Closed:
			p.emit("Course page closed", types.LogInfo)
			return nil

		case <-finished:
			finished = nil
			p.finishedOnce.Do(func() { close(p.finished) })
		}
	}
}

// release detaches controller and waits for its goroutines.
func (p *Pilot) release(controller *course.Controller, cancel context.CancelFunc) {
	if p.handler != nil {
		p.handler.Detach()
	}

	switch controller.Session().Phase() {
	case types.PhaseDiscovering, types.PhaseRunning:
		controller.Stop()
	}
	cancel()
	controller.Wait()

	p.mu.Lock()
	if p.current == controller {
		p.current = nil
	}
	p.mu.Unlock()
}

func (p *Pilot) configuration() course.Configuration {
	if automation := config.AutomationOf(p.manager); automation != nil {
		return course.ConfigurationFrom(automation.Settings())
	}
	return course.DefaultConfiguration()
}

func (p *Pilot) emit(message string, logType types.LogType) {
	p.logger.Eventf(string(logType), "%s", message)
	if p.relay != nil {
		p.relay.Emit(types.NewLogEvent(message, logType))
	}
}
