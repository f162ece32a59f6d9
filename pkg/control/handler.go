// Package control dispatches control-surface requests to the automation
// attached to the current course page and persists the settings they change.
package control

import (
	"context"
	"errors"
	"sync"

	"github.com/entrhq/coursepilot/pkg/config"
	"github.com/entrhq/coursepilot/pkg/logging"
	"github.com/entrhq/coursepilot/pkg/types"
)

// ErrNotAttached is reported while no course page is attached.
var ErrNotAttached = errors.New("not attached to a course page")

// Automation is the controller surface the handler drives.
type Automation interface {
	Start(ctx context.Context)
	Stop()
	Snapshot() types.Status
	SetThreshold(value int)
	SetMaxRetries(value int)
}

// Handler answers control messages. Requests that change settings are
// persisted even while detached, so the next attachment picks them up.
type Handler struct {
	manager *config.Manager
	logger  *logging.Logger

	mu         sync.RWMutex
	automation Automation
	runCtx     context.Context
}

// NewHandler creates a handler. manager may be nil, in which case nothing
// is persisted.
func NewHandler(manager *config.Manager, logger *logging.Logger) *Handler {
	return &Handler{manager: manager, logger: logger}
}

// Attach routes requests to automation, replacing any previous one. Runs
// started through the handler end when ctx does, so ctx should be scoped to
// the attachment.
func (h *Handler) Attach(ctx context.Context, automation Automation) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.automation = automation
	h.runCtx = ctx
}

// Detach stops routing requests.
func (h *Handler) Detach() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.automation = nil
	h.runCtx = nil
}

// Attached reports whether an automation is attached.
func (h *Handler) Attached() bool {
	automation, _ := h.current()
	return automation != nil
}

func (h *Handler) current() (Automation, context.Context) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.automation, h.runCtx
}

// Handle dispatches msg.
func (h *Handler) Handle(msg *types.ControlMessage) *types.ControlResponse {
	if msg == nil {
		return failure(errors.New("empty control message"))
	}
	if err := msg.Validate(); err != nil {
		return failure(err)
	}

	automation, runCtx := h.current()

	switch msg.Action {
	case types.ActionSetThreshold:
		value := *msg.Value
		h.persist(func(s *config.AutomationSection) { s.SetProgressThreshold(value) })
		if automation == nil {
			return &types.ControlResponse{Success: true}
		}
		automation.SetThreshold(value)
		return &types.ControlResponse{Success: true}

	case types.ActionSetMaxRetries:
		value := *msg.Value
		h.persist(func(s *config.AutomationSection) { s.SetMaxRetries(value) })
		if automation == nil {
			return &types.ControlResponse{Success: true}
		}
		automation.SetMaxRetries(value)
		return &types.ControlResponse{Success: true}
	}

	if automation == nil {
		return failure(ErrNotAttached)
	}

	switch msg.Action {
	case types.ActionStart:
		automation.Start(runCtx)
		return &types.ControlResponse{Success: true}

	case types.ActionStop:
		automation.Stop()
		return &types.ControlResponse{Success: true}

	default: // types.ActionGetStatus
		status := automation.Snapshot()
		return &types.ControlResponse{Success: true, Status: &status}
	}
}

// persist applies fn to the automation settings and saves them. Failures are
// logged; the request still succeeds.
func (h *Handler) persist(fn func(*config.AutomationSection)) {
	if h.manager == nil {
		return
	}
	section := config.AutomationOf(h.manager)
	if section == nil {
		return
	}

	fn(section)
	if err := h.manager.SaveAll(); err != nil {
		h.logger.Errorf("failed to persist settings: %v", err)
	}
}

func failure(err error) *types.ControlResponse {
	return &types.ControlResponse{Success: false, Error: err.Error()}
}
