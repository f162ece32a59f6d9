package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/entrhq/coursepilot/pkg/logging"
	"github.com/entrhq/coursepilot/pkg/types"
)

// DefaultNATSPrefix is the subject prefix when none is configured.
const DefaultNATSPrefix = "coursepilot"

// NATSConfig configures the NATS relay.
type NATSConfig struct {
	URL    string
	Prefix string
	Name   string
}

// ControlHandler answers control requests.
type ControlHandler interface {
	Handle(msg *types.ControlMessage) *types.ControlResponse
}

// EventsSubject is where events are published.
func EventsSubject(prefix string) string {
	return prefixOrDefault(prefix) + ".events"
}

// ControlSubject is where control requests are served.
func ControlSubject(prefix string) string {
	return prefixOrDefault(prefix) + ".control"
}

func prefixOrDefault(prefix string) string {
	if prefix == "" {
		return DefaultNATSPrefix
	}
	return prefix
}

// NATSRelay publishes events as JSON on <prefix>.events and serves control
// requests on <prefix>.control.
type NATSRelay struct {
	nc     *nats.Conn
	prefix string
	logger *logging.Logger
}

// DialNATS connects to the server in cfg.
func DialNATS(cfg NATSConfig, logger *logging.Logger) (*NATSRelay, error) {
	url := cfg.URL
	if url == "" {
		url = nats.DefaultURL
	}
	name := cfg.Name
	if name == "" {
		name = "coursepilot"
	}

	nc, err := nats.Connect(url,
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", url, err)
	}

	return &NATSRelay{nc: nc, prefix: prefixOrDefault(cfg.Prefix), logger: logger}, nil
}

// Emit publishes event. Publish is buffered by the client, so this does not
// wait on the network.
func (r *NATSRelay) Emit(event *types.AutomationEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		r.logger.Warnf("failed to encode event: %v", err)
		return
	}
	if err := r.nc.Publish(EventsSubject(r.prefix), data); err != nil {
		r.logger.Warnf("failed to publish event: %v", err)
	}
}

// ServeControl answers control requests with handler until ctx is done.
func (r *NATSRelay) ServeControl(ctx context.Context, handler ControlHandler) error {
	sub, err := r.nc.Subscribe(ControlSubject(r.prefix), func(msg *nats.Msg) {
		if err := msg.Respond(HandleControl(handler, msg.Data)); err != nil {
			r.logger.Warnf("failed to respond to control request: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", ControlSubject(r.prefix), err)
	}

	go func() {
		<-ctx.Done()
		_ = sub.Drain()
	}()
	return nil
}

// Subscribe delivers decoded events published under the relay's prefix
// until ctx is done.
func (r *NATSRelay) Subscribe(ctx context.Context, handler func(*types.AutomationEvent)) error {
	sub, err := r.nc.Subscribe(EventsSubject(r.prefix), func(msg *nats.Msg) {
		var event types.AutomationEvent
		if err := json.Unmarshal(msg.Data, &event); err == nil {
			handler(&event)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", EventsSubject(r.prefix), err)
	}

	go func() {
		<-ctx.Done()
		_ = sub.Drain()
	}()
	return nil
}

// Request sends a control message and waits for the reply.
func (r *NATSRelay) Request(ctx context.Context, msg *types.ControlMessage) (*types.ControlResponse, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode control message: %w", err)
	}

	reply, err := r.nc.RequestWithContext(ctx, ControlSubject(r.prefix), data)
	if err != nil {
		return nil, fmt.Errorf("control request failed: %w", err)
	}

	var resp types.ControlResponse
	if err := json.Unmarshal(reply.Data, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode control response: %w", err)
	}
	return &resp, nil
}

// Close flushes pending events and closes the connection.
func (r *NATSRelay) Close() error {
	if err := r.nc.Drain(); err != nil {
		r.nc.Close()
		return fmt.Errorf("failed to drain NATS connection: %w", err)
	}
	return nil
}

// HandleControl decodes a control request, dispatches it, and encodes the
// response. Malformed requests get an unsuccessful response.
func HandleControl(handler ControlHandler, data []byte) []byte {
	var resp *types.ControlResponse

	var msg types.ControlMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		resp = &types.ControlResponse{Error: fmt.Sprintf("invalid control message: %v", err)}
	} else if err := msg.Validate(); err != nil {
		resp = &types.ControlResponse{Error: err.Error()}
	} else {
		resp = handler.Handle(&msg)
	}

	out, err := json.Marshal(resp)
	if err != nil {
		out = []byte(`{"success":false}`)
	}
	return out
}
