// Package relay carries automation events out to control surfaces. Every
// Relay is best effort: Emit never blocks the automation and events without
// a listener are dropped.
package relay

import "github.com/entrhq/coursepilot/pkg/types"

// Relay receives automation events.
type Relay interface {
	Emit(event *types.AutomationEvent)
}

// Func adapts a function to Relay.
type Func func(event *types.AutomationEvent)

// Emit calls f.
func (f Func) Emit(event *types.AutomationEvent) {
	f(event)
}

// Multi fans events out to several relays in order.
type Multi []Relay

// NewMulti builds a Multi, skipping nil relays.
func NewMulti(relays ...Relay) Multi {
	out := make(Multi, 0, len(relays))
	for _, r := range relays {
		if r != nil {
			out = append(out, r)
		}
	}
	return out
}

// Emit forwards event to every relay.
func (m Multi) Emit(event *types.AutomationEvent) {
	for _, r := range m {
		r.Emit(event)
	}
}
