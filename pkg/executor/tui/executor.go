// Package tui provides the interactive terminal control surface for a
// coursepilot run: status line, progress against the threshold, a rolling
// log pane and inputs for the threshold and retry limit.
//
// The code is split into:
// - executor.go: program lifecycle and event forwarding
// - model.go: state, log ring and layout
// - update.go: key handling and control requests
// - view.go: rendering
// - styles.go: color palette and styles
package tui

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/entrhq/coursepilot/pkg/relay"
)

// Executor runs the control surface until the user quits or ctx is done.
type Executor struct {
	controls Controls
	events   *relay.Broadcaster
	settings Settings
	program  *tea.Program
}

// NewExecutor creates a control surface that sends requests to controls and
// shows the events published on events. settings seeds the inputs.
func NewExecutor(controls Controls, events *relay.Broadcaster, settings Settings) *Executor {
	return &Executor{
		controls: controls,
		events:   events,
		settings: settings,
	}
}

// Run starts the program and blocks until it exits.
func (e *Executor) Run(ctx context.Context) error {
	m := newModel(e.controls, e.settings)

	e.program = tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)

	events, unsubscribe := e.events.Subscribe(relay.DefaultBuffer)
	defer unsubscribe()

	go func() {
		// Forward automation events to the program
		for event := range events {
			e.program.Send(eventMsg{event: event})
		}
	}()

	if _, err := e.program.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("failed to run TUI program: %w", err)
	}
	return nil
}
