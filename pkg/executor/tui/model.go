package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"

	"github.com/entrhq/coursepilot/pkg/types"
)

const (
	// maxLogEntries bounds the log pane; older lines are dropped first.
	maxLogEntries = 50

	// statusRefreshInterval is how often the status line is re-read.
	statusRefreshInterval = 2 * time.Second

	fieldThreshold = 0
	fieldRetries   = 1
)

// Controls answers control requests. *control.Handler satisfies it.
type Controls interface {
	Handle(msg *types.ControlMessage) *types.ControlResponse
}

// Settings seeds the threshold and retry inputs.
type Settings struct {
	ProgressThreshold int
	MaxRetries        int
}

// logEntry is one line of the log pane.
type logEntry struct {
	time    time.Time
	message string
	logType types.LogType
}

func (e logEntry) plain() string {
	return e.time.Format("15:04:05") + " - " + e.message
}

// model represents the state of the control surface.
type model struct {
	// Bubble Tea components
	progress progress.Model
	logView  viewport.Model
	inputs   []textinput.Model
	focus    int

	controls Controls
	copy     func(string) error
	now      func() time.Time

	// Last status read; attached is false when the read failed.
	status   types.Status
	attached bool
	polled   bool

	logs   []logEntry
	notice string

	width  int
	height int
	ready  bool
}

// statusMsg carries the result of a getStatus request.
type statusMsg struct {
	status   types.Status
	attached bool
}

// eventMsg wraps an automation event forwarded from the broadcaster.
type eventMsg struct {
	event *types.AutomationEvent
}

// responseMsg pairs a control request with its answer.
type responseMsg struct {
	request  *types.ControlMessage
	response *types.ControlResponse
}

// tickMsg drives the periodic status refresh.
type tickMsg time.Time

// copiedMsg reports the outcome of copying the log pane.
type copiedMsg struct {
	lines int
	err   error
}

func newModel(controls Controls, settings Settings) *model {
	threshold := newNumberInput("1-100", 3)
	threshold.SetValue(strconv.Itoa(settings.ProgressThreshold))
	threshold.Focus()

	retries := newNumberInput("1-50", 2)
	retries.SetValue(strconv.Itoa(settings.MaxRetries))

	return &model{
		progress: progress.New(
			progress.WithGradient(string(coralPink), string(mintGreen)),
			progress.WithoutPercentage(),
		),
		logView:  viewport.New(0, 0),
		inputs:   []textinput.Model{threshold, retries},
		focus:    fieldThreshold,
		controls: controls,
		copy:     clipboard.WriteAll,
		now:      time.Now,
		status: types.Status{
			Threshold: settings.ProgressThreshold,
		},
	}
}

func newNumberInput(placeholder string, limit int) textinput.Model {
	input := textinput.New()
	input.Prompt = ""
	input.Placeholder = placeholder
	input.CharLimit = limit
	input.Width = 4
	return input
}

// addLog appends a line to the ring and keeps the pane scrolled to the end.
func (m *model) addLog(at time.Time, message string, logType types.LogType) {
	m.logs = append(m.logs, logEntry{time: at, message: message, logType: logType})
	if len(m.logs) > maxLogEntries {
		m.logs = m.logs[len(m.logs)-maxLogEntries:]
	}
	m.refreshLogView()
}

func (m *model) refreshLogView() {
	lines := make([]string, 0, len(m.logs))
	for _, entry := range m.logs {
		lines = append(lines, renderLogEntry(entry))
	}
	m.logView.SetContent(strings.Join(lines, "\n"))
	m.logView.GotoBottom()
}

// logText returns the log pane without styling.
func (m *model) logText() string {
	lines := make([]string, 0, len(m.logs))
	for _, entry := range m.logs {
		lines = append(lines, entry.plain())
	}
	return strings.Join(lines, "\n")
}

// inputValue parses the input at field and checks it against [lo, hi].
func (m *model) inputValue(field, lo, hi int) (int, error) {
	raw := strings.TrimSpace(m.inputs[field].Value())
	value, err := strconv.Atoi(raw)
	if err != nil || value < lo || value > hi {
		return 0, fmt.Errorf("value must be between %d and %d", lo, hi)
	}
	return value, nil
}

func (m *model) setFocus(field int) {
	m.focus = field
	for i := range m.inputs {
		if i == field {
			m.inputs[i].Focus()
		} else {
			m.inputs[i].Blur()
		}
	}
}

// resize lays the components out for a width x height terminal.
func (m *model) resize(width, height int) {
	m.width = width
	m.height = height

	m.progress.Width = max(10, min(width-6, 60))

	// header, status, progress, inputs (3 rows), tips, notice and borders
	logHeight := max(3, height-14)
	m.logView.Width = max(10, width-4)
	m.logView.Height = logHeight
	m.refreshLogView()
	m.ready = true
}
