package types

import "fmt"

// ControlAction names an inbound control request.
type ControlAction string

const (
	ActionStart         ControlAction = "start"         // ActionStart begins automation unless already running.
	ActionStop          ControlAction = "stop"          // ActionStop requests a cooperative stop.
	ActionGetStatus     ControlAction = "getStatus"     // ActionGetStatus returns the current status snapshot.
	ActionSetThreshold  ControlAction = "setThreshold"  // ActionSetThreshold updates and persists the progress target.
	ActionSetMaxRetries ControlAction = "setMaxRetries" // ActionSetMaxRetries updates and persists the retry limit.
)

// ControlMessage is a request from a control surface.
type ControlMessage struct {
	// Action selects the operation.
	Action ControlAction `json:"action"`

	// Value is the integer argument for the set* actions. Nil means the
	// sender left it out, which is distinct from zero.
	Value *int `json:"value,omitempty"`
}

// ControlResponse acknowledges a ControlMessage.
type ControlResponse struct {
	Success bool    `json:"success"`
	Status  *Status `json:"status,omitempty"`
	Error   string  `json:"error,omitempty"`
}

// NewStartMessage creates a start request.
func NewStartMessage() *ControlMessage {
	return &ControlMessage{Action: ActionStart}
}

// NewStopMessage creates a stop request.
func NewStopMessage() *ControlMessage {
	return &ControlMessage{Action: ActionStop}
}

// NewGetStatusMessage creates a status request.
func NewGetStatusMessage() *ControlMessage {
	return &ControlMessage{Action: ActionGetStatus}
}

// NewSetThresholdMessage creates a threshold update request.
func NewSetThresholdMessage(value int) *ControlMessage {
	return &ControlMessage{Action: ActionSetThreshold, Value: &value}
}

// NewSetMaxRetriesMessage creates a retry limit update request.
func NewSetMaxRetriesMessage(value int) *ControlMessage {
	return &ControlMessage{Action: ActionSetMaxRetries, Value: &value}
}

// Validate checks that the action is known and that setters carry a value.
func (m *ControlMessage) Validate() error {
	switch m.Action {
	case ActionStart, ActionStop, ActionGetStatus:
		return nil
	case ActionSetThreshold, ActionSetMaxRetries:
		if m.Value == nil {
			return fmt.Errorf("%s requires a value", m.Action)
		}
		return nil
	default:
		return fmt.Errorf("unknown control action: %q", m.Action)
	}
}
