package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/entrhq/coursepilot/pkg/types"
)

// Init reads the status once and schedules the refresh.
func (m *model) Init() tea.Cmd {
	return tea.Batch(refreshStatus(m.controls), tick())
}

// Update handles all state updates for the control surface.
func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tickMsg:
		return m, tea.Batch(refreshStatus(m.controls), tick())

	case statusMsg:
		m.polled = true
		m.attached = msg.attached
		if msg.attached {
			m.status = msg.status
		} else {
			m.status.Running = false
		}
		return m, nil

	case eventMsg:
		return m.handleEvent(msg.event)

	case responseMsg:
		return m.handleResponse(msg)

	case copiedMsg:
		if msg.err != nil {
			m.notice = fmt.Sprintf("Copy failed: %v", msg.err)
		} else {
			m.notice = fmt.Sprintf("Copied %d log lines", msg.lines)
		}
		return m, nil
	}

	return m, nil
}

func (m *model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q", "esc":
		return m, tea.Quit
	case "s":
		return m, send(m.controls, types.NewStartMessage())
	case "x":
		return m, send(m.controls, types.NewStopMessage())
	case "y":
		return m, copyLog(m.copy, m.logText(), len(m.logs))
	case "tab", "shift+tab":
		m.setFocus((m.focus + 1) % len(m.inputs))
		return m, nil
	case "enter":
		return m.applyInput()
	case "up", "down", "pgup", "pgdown":
		var cmd tea.Cmd
		m.logView, cmd = m.logView.Update(msg)
		return m, cmd
	}

	if !editsNumber(msg) {
		return m, nil
	}
	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

// editsNumber reports whether msg should reach a numeric input. Letters stay
// free for the shortcuts.
func editsNumber(msg tea.KeyMsg) bool {
	switch msg.Type {
	case tea.KeyBackspace, tea.KeyDelete, tea.KeyLeft, tea.KeyRight, tea.KeyHome, tea.KeyEnd:
		return true
	case tea.KeyRunes:
		for _, r := range msg.Runes {
			if r < '0' || r > '9' {
				return false
			}
		}
		return len(msg.Runes) > 0
	}
	return false
}

// applyInput sends the focused input's value when it is in range.
func (m *model) applyInput() (tea.Model, tea.Cmd) {
	switch m.focus {
	case fieldThreshold:
		value, err := m.inputValue(fieldThreshold, 1, 100)
		if err != nil {
			m.addLog(m.now(), "Threshold "+err.Error(), types.LogError)
			return m, nil
		}
		return m, send(m.controls, types.NewSetThresholdMessage(value))
	default:
		value, err := m.inputValue(fieldRetries, 1, 50)
		if err != nil {
			m.addLog(m.now(), "Max retries "+err.Error(), types.LogError)
			return m, nil
		}
		return m, send(m.controls, types.NewSetMaxRetriesMessage(value))
	}
}

func (m *model) handleEvent(event *types.AutomationEvent) (tea.Model, tea.Cmd) {
	if event == nil {
		return m, nil
	}
	switch event.Type {
	case types.EventTypeLog:
		at := event.Time
		if at.IsZero() {
			at = m.now()
		}
		m.addLog(at, event.Message, event.LogType)
	case types.EventTypeStatus:
		if event.Data != nil {
			m.polled = true
			m.attached = true
			m.status = *event.Data
		}
	}
	return m, nil
}

func (m *model) handleResponse(msg responseMsg) (tea.Model, tea.Cmd) {
	if !msg.response.Success {
		m.addLog(m.now(), "Error: "+msg.response.Error, types.LogError)
		return m, refreshStatus(m.controls)
	}

	switch msg.request.Action {
	case types.ActionStart:
		m.addLog(m.now(), "Automation started", types.LogSuccess)
	case types.ActionStop:
		m.addLog(m.now(), "Automation stopped", types.LogInfo)
	case types.ActionSetThreshold:
		value := *msg.request.Value
		m.status.Threshold = value
		// An attached controller logs the change itself.
		if !m.attached {
			m.addLog(m.now(), fmt.Sprintf("Threshold %d%% saved for the next course page", value), types.LogInfo)
		}
	case types.ActionSetMaxRetries:
		if !m.attached {
			m.addLog(m.now(), fmt.Sprintf("Max retries %d saved for the next course page", *msg.request.Value), types.LogInfo)
		}
		return m, nil
	}
	return m, refreshStatus(m.controls)
}

func send(controls Controls, request *types.ControlMessage) tea.Cmd {
	return func() tea.Msg {
		return responseMsg{request: request, response: controls.Handle(request)}
	}
}

func refreshStatus(controls Controls) tea.Cmd {
	return func() tea.Msg {
		resp := controls.Handle(types.NewGetStatusMessage())
		if !resp.Success || resp.Status == nil {
			return statusMsg{}
		}
		return statusMsg{status: *resp.Status, attached: true}
	}
}

func tick() tea.Cmd {
	return tea.Tick(statusRefreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func copyLog(write func(string) error, text string, lines int) tea.Cmd {
	return func() tea.Msg {
		return copiedMsg{lines: lines, err: write(text)}
	}
}
