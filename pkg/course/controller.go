package course

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/entrhq/coursepilot/pkg/logging"
	"github.com/entrhq/coursepilot/pkg/types"
)

// Fixed waits between a step and the next observation, giving the player
// time to render.
const (
	DiscoverySettleDelay = 2 * time.Second
	StartSettleDelay     = 3 * time.Second
	ExitDelay            = 1 * time.Second
	InspectDelay         = 1 * time.Second
	AdvanceDelay         = 500 * time.Millisecond
	RetryDelay           = 1 * time.Second
	AutoStartDelay       = 2 * time.Second
)

// Relay receives every event the controller produces. Emit must not block.
type Relay interface {
	Emit(event *types.AutomationEvent)
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock replaces the wall clock.
func WithClock(clock Clock) Option {
	return func(c *Controller) { c.clock = clock }
}

// WithLogger mirrors every log event to logger.
func WithLogger(logger *logging.Logger) Option {
	return func(c *Controller) { c.logger = logger }
}

// Controller runs the automation for one Session: discovery of the
// completion API, then a polling loop that starts the course, watches
// progress, retries or advances lessons, and exits at the threshold.
//
// Start, Stop, Snapshot and the setters are safe to call from any goroutine.
// The loop itself runs on a single goroutine per Start.
type Controller struct {
	session   *Session
	actions   *Actions
	inspector *Inspector
	relay     Relay
	clock     Clock
	logger    *logging.Logger

	wg           sync.WaitGroup
	finished     chan struct{}
	finishedOnce sync.Once
}

// NewController creates a controller. relay may be nil.
func NewController(session *Session, relay Relay, opts ...Option) *Controller {
	c := &Controller{
		session:  session,
		relay:    relay,
		clock:    RealClock{},
		finished: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.actions = NewActions(session, c.logf)
	c.inspector = NewInspector(session, c.logf)
	return c
}

// Session returns the controlled session.
func (c *Controller) Session() *Session {
	return c.session
}

// Actions returns the action set used by the loop.
func (c *Controller) Actions() *Actions {
	return c.actions
}

// Inspector returns the lesson inspector used by the loop.
func (c *Controller) Inspector() *Inspector {
	return c.inspector
}

// Finished is closed once the threshold was reached and the exit attempted.
func (c *Controller) Finished() <-chan struct{} {
	return c.finished
}

// Wait blocks until every goroutine started by Attach and Start returned.
func (c *Controller) Wait() {
	c.wg.Wait()
}

// Attach announces the controller and, when AutoStart is set, starts the
// automation after AutoStartDelay.
func (c *Controller) Attach(ctx context.Context) {
	c.logf(types.LogSuccess, "Course automation loaded")

	if !c.session.Config().AutoStart {
		return
	}

	c.logf(types.LogSuccess, "Auto-start enabled - starting automation")
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		if err := c.clock.Sleep(ctx, AutoStartDelay); err != nil {
			return
		}
		c.Start(ctx)
	}()
}

// Start begins discovery unless a run is already discovering or running.
// The run lasts until Stop, the threshold, or ctx is done.
func (c *Controller) Start(ctx context.Context) {
	gen, ok := c.session.begin()
	if !ok {
		return
	}

	c.logf(types.LogSuccess, "Starting automation")

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.run(ctx, gen)
	}()
}

// Stop clears the running flag. The loop notices at its next guard; a step
// already under way completes.
func (c *Controller) Stop() {
	c.logf(types.LogInfo, "Stopping automation")
	c.session.stop()
	c.reportStatus()
}

// Snapshot returns the current status.
func (c *Controller) Snapshot() types.Status {
	return c.session.Status()
}

// SetThreshold changes the completion target.
func (c *Controller) SetThreshold(value int) {
	c.session.updateConfig(func(cfg *Configuration) { cfg.ProgressThreshold = value })
	c.logf(types.LogInfo, "Threshold set to %d%%", value)
}

// SetMaxRetries changes the per-lesson retry limit.
func (c *Controller) SetMaxRetries(value int) {
	c.session.updateConfig(func(cfg *Configuration) { cfg.MaxRetries = value })
	c.logf(types.LogInfo, "Max retries set to %d", value)
}

// Reload applies settings loaded from disk. Threshold and retry changes are
// logged like the explicit setters; timing changes apply silently.
func (c *Controller) Reload(cfg Configuration) {
	current := c.session.Config()

	c.session.updateConfig(func(dst *Configuration) {
		dst.CheckInterval = cfg.CheckInterval
		dst.APIPollInterval = cfg.APIPollInterval
		dst.MaxAPIAttempts = cfg.MaxAPIAttempts
		dst.AutoStart = cfg.AutoStart
	})

	if cfg.ProgressThreshold != current.ProgressThreshold {
		c.SetThreshold(cfg.ProgressThreshold)
	}
	if cfg.MaxRetries != current.MaxRetries {
		c.SetMaxRetries(cfg.MaxRetries)
	}
}

func (c *Controller) run(ctx context.Context, gen uint64) {
	if !c.discover(ctx, gen) {
		return
	}

	for {
		more, err := c.tick(ctx, gen)
		if err != nil || !more {
			return
		}
	}
}

// discover polls for the completion API, then attempts start/resume and
// enters Running whether or not the API showed up. The API is checked at
// least once, whatever MaxAPIAttempts says.
func (c *Controller) discover(ctx context.Context, gen uint64) bool {
	cfg := c.session.Config()

	found := false
	for attempt := 1; ; attempt++ {
		if err := c.clock.Sleep(ctx, cfg.APIPollInterval); err != nil {
			return false
		}
		if !c.session.discovering(gen) {
			return false
		}
		if c.actions.FindAPI() != nil {
			found = true
			break
		}
		if attempt >= cfg.MaxAPIAttempts {
			break
		}
	}

	if found {
		c.logf(types.LogSuccess, "SCORM API found!")
		c.logf(types.LogInfo, "Target: %d%%", c.session.Config().ProgressThreshold)
	} else {
		c.logf(types.LogError, "Starting without API")
	}

	c.actions.StartOrResume()

	if !c.session.enterRunning(gen) {
		return false
	}
	c.reportStatus()

	return c.clock.Sleep(ctx, DiscoverySettleDelay) == nil
}

// tick runs one loop cycle and reports whether another should follow. An
// error means ctx ended during a wait.
func (c *Controller) tick(ctx context.Context, gen uint64) (bool, error) {
	if !c.session.active(gen) {
		return false, nil
	}

	c.reportStatus()

	if !c.session.State().HasStarted && c.actions.StartOrResume() {
		return true, c.clock.Sleep(ctx, StartSettleDelay)
	}

	if progress, ok := ReadProgress(c.session.Origin()); ok && c.session.recordProgress(progress) {
		c.logf(types.LogSuccess, "Progress: %d%%", progress)
		c.reportStatus()
	}

	progress := c.session.State().CurrentProgress
	cfg := c.session.Config()

	if progress >= cfg.ProgressThreshold {
		c.logf(types.LogSuccess, "Target reached: %d%%", progress)
		c.session.stop()
		c.reportStatus()

		if err := c.clock.Sleep(ctx, ExitDelay); err != nil {
			return false, err
		}
		c.actions.ExitCourse()
		c.finishedOnce.Do(func() { close(c.finished) })
		return false, nil
	}

	c.actions.MarkLessonComplete()

	if err := c.clock.Sleep(ctx, InspectDelay); err != nil {
		return false, err
	}

	if err := c.handleCompletion(ctx, c.inspector.CheckLessonCompletion()); err != nil {
		return false, err
	}

	c.reportStatus()
	if err := c.clock.Sleep(ctx, c.session.Config().CheckInterval); err != nil {
		return false, err
	}
	return true, nil
}

func (c *Controller) handleCompletion(ctx context.Context, completion Completion) error {
	switch completion {
	case CompletionComplete:
		c.logf(types.LogSuccess, "Lesson complete - next")
		c.session.resetRetries()
		return c.advance(ctx)

	case CompletionIncomplete:
		retries := c.session.incrementRetries()
		maxRetries := c.session.Config().MaxRetries

		if retries >= maxRetries {
			c.logf(types.LogError, "Max retries - forcing next")
			c.session.resetRetries()
			return c.advance(ctx)
		}

		c.logf(types.LogInfo, "Retry %d/%d", retries, maxRetries)
		if err := c.clock.Sleep(ctx, RetryDelay); err != nil {
			return err
		}
		c.actions.RetryCurrentLesson()
		return nil

	default:
		return c.advance(ctx)
	}
}

func (c *Controller) advance(ctx context.Context) error {
	if err := c.clock.Sleep(ctx, AdvanceDelay); err != nil {
		return err
	}
	c.actions.AdvanceToNextLesson()
	return nil
}

func (c *Controller) reportStatus() {
	if c.relay == nil {
		return
	}
	c.relay.Emit(types.NewStatusEvent(c.session.Status()))
}

func (c *Controller) logf(logType types.LogType, format string, args ...interface{}) {
	message := fmt.Sprintf(format, args...)
	c.logger.Eventf(string(logType), "%s", message)
	if c.relay != nil {
		c.relay.Emit(types.NewLogEvent(message, logType))
	}
}
