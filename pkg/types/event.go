package types

import (
	"time"

	"github.com/google/uuid"
)

// EventType defines the kind of event the automation pushes to control surfaces.
type EventType string

const (
	EventTypeLog    EventType = "log"    // EventTypeLog carries a human-readable log line.
	EventTypeStatus EventType = "status" // EventTypeStatus carries a run status snapshot.
)

// LogType is the severity attached to a log event.
type LogType string

const (
	LogInfo    LogType = "info"
	LogSuccess LogType = "success"
	LogError   LogType = "error"
)

// Phase is the automation controller state.
type Phase string

const (
	PhaseIdle        Phase = "idle"
	PhaseDiscovering Phase = "discovering"
	PhaseRunning     Phase = "running"
	PhaseStopped     Phase = "stopped"
)

// Status is a snapshot of the run state merged with the progress threshold.
type Status struct {
	Running    bool  `json:"running"`
	Progress   int   `json:"progress"`
	Threshold  int   `json:"threshold"`
	HasStarted bool  `json:"hasStarted"`
	Retries    int   `json:"retries"`
	Phase      Phase `json:"phase,omitempty"`
}

// AutomationEvent is a single outbound event. Exactly one of the log fields
// or Data is populated, depending on Type.
type AutomationEvent struct {
	// ID uniquely identifies the event across transports.
	ID string `json:"id"`

	// Type indicates the kind of event.
	Type EventType `json:"type"`

	// Time is when the event was produced.
	Time time.Time `json:"time"`

	// Message is the log text (log events).
	Message string `json:"message,omitempty"`

	// LogType is the log severity (log events).
	LogType LogType `json:"logType,omitempty"`

	// Data is the status snapshot (status events).
	Data *Status `json:"data,omitempty"`
}

// NewLogEvent creates a log event.
func NewLogEvent(message string, logType LogType) *AutomationEvent {
	return &AutomationEvent{
		ID:      uuid.NewString(),
		Type:    EventTypeLog,
		Time:    time.Now(),
		Message: message,
		LogType: logType,
	}
}

// NewStatusEvent creates a status event from a snapshot.
func NewStatusEvent(status Status) *AutomationEvent {
	return &AutomationEvent{
		ID:   uuid.NewString(),
		Type: EventTypeStatus,
		Time: time.Now(),
		Data: &status,
	}
}

// Icon returns the console marker for a log type.
func (t LogType) Icon() string {
	switch t {
	case LogError:
		return "❌"
	case LogSuccess:
		return "✅"
	default:
		return "🔄"
	}
}
