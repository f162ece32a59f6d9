package headless

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/entrhq/coursepilot/pkg/config"
	"github.com/entrhq/coursepilot/pkg/control"
	"github.com/entrhq/coursepilot/pkg/course"
	"github.com/entrhq/coursepilot/pkg/logging"
	"github.com/entrhq/coursepilot/pkg/pilot"
	"github.com/entrhq/coursepilot/pkg/relay"
)

// Opener prepares the course source for a run. The returned func releases
// whatever Opener acquired.
type Opener func(ctx context.Context, settings config.BrowserSettings) (pilot.Source, func() error, error)

// BrowserOpener launches a Playwright browser.
func BrowserOpener(logger *logging.Logger) Opener {
	return func(_ context.Context, settings config.BrowserSettings) (pilot.Source, func() error, error) {
		source, shutdown, err := pilot.OpenBrowser(settings, logger)
		if err != nil {
			return nil, nil, err
		}
		return source, shutdown, nil
	}
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithOutput sends console output to w.
func WithOutput(w io.Writer) RunnerOption {
	return func(r *Runner) { r.out = w }
}

// WithOpener replaces the browser opener.
func WithOpener(open Opener) RunnerOption {
	return func(r *Runner) { r.open = open }
}

// WithClock replaces the controllers' wall clock.
func WithClock(clock course.Clock) RunnerOption {
	return func(r *Runner) { r.clock = clock }
}

// WithFileLogger sets the component file logger.
func WithFileLogger(logger *logging.Logger) RunnerOption {
	return func(r *Runner) { r.fileLog = logger }
}

// Runner drives one unattended run: it opens the course, starts the
// automation as soon as the course page attaches, and returns once the
// progress target is reached or the context ends.
type Runner struct {
	profile *Profile
	manager *config.Manager
	out     io.Writer
	logger  *Logger
	fileLog *logging.Logger
	open    Opener
	clock   course.Clock
}

// NewRunner validates profile and overlays it onto manager.
func NewRunner(profile *Profile, manager *config.Manager, opts ...RunnerOption) (*Runner, error) {
	if err := profile.Validate(); err != nil {
		return nil, fmt.Errorf("invalid profile: %w", err)
	}
	if config.AutomationOf(manager) == nil || config.BrowserOf(manager) == nil {
		return nil, fmt.Errorf("settings manager is missing the automation or browser section")
	}
	if err := profile.Apply(manager); err != nil {
		return nil, err
	}

	r := &Runner{
		profile: profile,
		manager: manager,
		out:     os.Stdout,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.open == nil {
		r.open = BrowserOpener(r.fileLog)
	}
	r.logger = NewWriterLogger(r.out, parseLogLevel(profile.Logging.Verbosity), profile.Colored())
	return r, nil
}

// Run executes the run. Reaching the target and an interrupt through ctx
// both return a nil error; the summary tells them apart.
func (r *Runner) Run(ctx context.Context) (*RunSummary, error) {
	browserSettings := config.BrowserOf(r.manager).Settings()
	automation := config.AutomationOf(r.manager).Settings()

	summary := &RunSummary{
		RunID:     uuid.New().String(),
		CourseURL: browserSettings.CourseURL,
		StartTime: time.Now(),
		Threshold: automation.ProgressThreshold,
	}

	r.logger.Header("coursepilot run")
	r.logger.Infof("Target: %d%%, max retries: %d", automation.ProgressThreshold, automation.MaxRetries)

	r.logger.Step("Opening course")
	source, release, err := r.open(ctx, browserSettings)
	if err != nil {
		return r.finish(summary, StatusFailed, fmt.Errorf("failed to open course: %w", err))
	}
	defer func() {
		if err := release(); err != nil {
			r.fileLog.Warnf("Browser shutdown: %v", err)
		}
	}()
	r.logger.Successf("Browser ready")

	recorder := &summaryRecorder{summary: summary}
	relays := []relay.Relay{
		relay.NewConsoleWriter(r.out, r.profile.Verbose(), r.profile.Colored()),
		recorder,
	}
	handler := control.NewHandler(r.manager, r.fileLog)

	if r.profile.NATS.URL != "" {
		r.logger.Step("Connecting to NATS")
		nr, err := relay.DialNATS(relay.NATSConfig{
			URL:    r.profile.NATS.URL,
			Prefix: r.profile.NATS.Prefix,
			Name:   "coursepilot-run",
		}, r.fileLog)
		if err != nil {
			return r.finish(summary, StatusFailed, err)
		}
		defer nr.Close()
		relays = append(relays, nr)

		if r.profile.NATS.ServeControl {
			if err := nr.ServeControl(ctx, handler); err != nil {
				return r.finish(summary, StatusFailed, err)
			}
			r.logger.Successf("Serving control on %s", relay.ControlSubject(r.profile.NATS.Prefix))
		}
		r.logger.Successf("Publishing events on %s", relay.EventsSubject(r.profile.NATS.Prefix))
	}

	var (
		runCtx context.Context
		cancel context.CancelFunc
	)
	if r.profile.Timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, r.profile.Timeout)
	} else {
		runCtx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	opts := []pilot.Option{
		pilot.WithManager(r.manager),
		pilot.WithRelay(relay.NewMulti(relays...)),
		pilot.WithHandler(handler),
		pilot.WithLogger(r.fileLog),
		pilot.WithStartOnAttach(true),
	}
	if r.clock != nil {
		opts = append(opts, pilot.WithClock(r.clock))
	}
	p := pilot.New(source, opts...)

	if r.profile.WatchSettings {
		r.watchSettings(runCtx, p)
	}

	r.logger.Step("Waiting for course page")
	done := make(chan error, 1)
	go func() { done <- p.Run(runCtx) }()

	select {
	case <-p.Finished():
		cancel()
		<-done
		return r.finish(summary, StatusFinished, nil)

	case err := <-done:
		switch {
		case ctx.Err() != nil:
			return r.finish(summary, StatusInterrupted, nil)
		case errors.Is(err, context.DeadlineExceeded):
			return r.finish(summary, StatusFailed, fmt.Errorf("run timed out after %s", r.profile.Timeout))
		default:
			return r.finish(summary, StatusFailed, err)
		}
	}
}

func (r *Runner) watchSettings(ctx context.Context, p *pilot.Pilot) {
	path, err := p.WatchStore(ctx)
	if err != nil {
		r.logger.Warningf("settings will not reload: %v", err)
		return
	}
	r.logger.Debugf("Watching %s", path)
}

func (r *Runner) finish(summary *RunSummary, status string, err error) (*RunSummary, error) {
	summary.Status = status
	if err != nil {
		summary.Error = err.Error()
	}
	summary.EndTime = time.Now()
	summary.Duration = summary.EndTime.Sub(summary.StartTime)

	r.logger.Summary(summary)

	if r.profile.Artifacts.Enabled {
		dir, writeErr := NewArtifactWriter(r.profile.Artifacts.OutputDir).WriteAll(summary)
		if writeErr != nil {
			r.logger.Warningf("Failed to write artifacts: %v", writeErr)
		} else {
			r.logger.Infof("Artifacts written to %s", dir)
		}
	}

	return summary, err
}
