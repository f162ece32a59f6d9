package course

import (
	"sync"
	"time"

	"github.com/entrhq/coursepilot/pkg/config"
	"github.com/entrhq/coursepilot/pkg/dom"
	"github.com/entrhq/coursepilot/pkg/types"
)

// Configuration tunes an automation run. Values are used as given.
type Configuration struct {
	ProgressThreshold int
	CheckInterval     time.Duration
	APIPollInterval   time.Duration
	MaxAPIAttempts    int
	MaxRetries        int
	AutoStart         bool
}

// DefaultConfiguration returns the stock settings.
func DefaultConfiguration() Configuration {
	return ConfigurationFrom(config.NewAutomationSection().Settings())
}

// ConfigurationFrom converts persisted settings.
func ConfigurationFrom(s config.AutomationSettings) Configuration {
	return Configuration{
		ProgressThreshold: s.ProgressThreshold,
		CheckInterval:     s.CheckInterval,
		APIPollInterval:   s.APIPollInterval,
		MaxAPIAttempts:    s.MaxAPIAttempts,
		MaxRetries:        s.MaxRetries,
		AutoStart:         s.AutoStart,
	}
}

// RunState is what the automation has observed and done so far. It lives as
// long as the Session; stopping and starting again keeps it.
type RunState struct {
	Running              bool
	CurrentProgress      int
	HasStarted           bool
	CurrentLessonRetries int
	LastLessonID         string
}

// Session is one attachment to a course page. Its mutex guards short reads
// and writes only; it is never held across a DOM call or a sleep.
type Session struct {
	origin dom.Context

	mu         sync.Mutex
	config     Configuration
	state      RunState
	phase      types.Phase
	generation uint64
}

// NewSession creates a session rooted at origin, the context the automation
// searches outward from.
func NewSession(origin dom.Context, cfg Configuration) *Session {
	return &Session{
		origin: origin,
		config: cfg,
		phase:  types.PhaseIdle,
	}
}

// Origin returns the context searches start from.
func (s *Session) Origin() dom.Context {
	return s.origin
}

// Config returns a copy of the configuration.
func (s *Session) Config() Configuration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.config
}

// State returns a copy of the run state.
func (s *Session) State() RunState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Phase returns the controller phase.
func (s *Session) Phase() types.Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Status returns the outward status snapshot.
func (s *Session) Status() types.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return types.Status{
		Running:    s.state.Running,
		Progress:   s.state.CurrentProgress,
		Threshold:  s.config.ProgressThreshold,
		HasStarted: s.state.HasStarted,
		Retries:    s.state.CurrentLessonRetries,
		Phase:      s.phase,
	}
}

func (s *Session) updateConfig(fn func(*Configuration)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.config)
}

func (s *Session) markStarted() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.HasStarted = true
}

// observeLesson records the selected lesson id. It reports whether the id
// is new, in which case the retry counter was reset.
func (s *Session) observeLesson(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id == "" || id == s.state.LastLessonID {
		return false
	}
	s.state.LastLessonID = id
	s.state.CurrentLessonRetries = 0
	return true
}

// recordProgress stores a reading and reports whether it changed.
func (s *Session) recordProgress(progress int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if progress == s.state.CurrentProgress {
		return false
	}
	s.state.CurrentProgress = progress
	return true
}

func (s *Session) incrementRetries() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.CurrentLessonRetries++
	return s.state.CurrentLessonRetries
}

func (s *Session) resetRetries() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.CurrentLessonRetries = 0
}

// begin enters Discovering under a new generation. It fails while a run is
// already discovering or running.
func (s *Session) begin() (uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Running || s.phase == types.PhaseDiscovering {
		return 0, false
	}
	s.generation++
	s.phase = types.PhaseDiscovering
	return s.generation, true
}

// discovering reports whether generation gen is still discovering.
func (s *Session) discovering(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation == gen && s.phase == types.PhaseDiscovering
}

// enterRunning moves generation gen from Discovering to Running.
func (s *Session) enterRunning(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.generation != gen || s.phase != types.PhaseDiscovering {
		return false
	}
	s.phase = types.PhaseRunning
	s.state.Running = true
	return true
}

// active is the loop guard: generation gen is current and running.
func (s *Session) active(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation == gen && s.state.Running
}

// stop clears the running flag. An idle session stays idle.
func (s *Session) stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.Running = false
	if s.phase != types.PhaseIdle {
		s.phase = types.PhaseStopped
	}
}
