package relay

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/coursepilot/pkg/logging"
	"github.com/entrhq/coursepilot/pkg/types"
)

// TestNATSRoundTrip needs a NATS server; set COURSEPILOT_TEST_NATS_URL to run it.
func TestNATSRoundTrip(t *testing.T) {
	url := os.Getenv("COURSEPILOT_TEST_NATS_URL")
	if testing.Short() || url == "" {
		t.Skip("COURSEPILOT_TEST_NATS_URL not set")
	}

	prefix := "coursepilot-test-" + logging.GetSessionID()[:8]
	server, err := DialNATS(NATSConfig{URL: url, Prefix: prefix}, logging.Discard())
	require.NoError(t, err)
	defer server.Close()

	client, err := DialNATS(NATSConfig{URL: url, Prefix: prefix, Name: "coursepilot-test-client"}, logging.Discard())
	require.NoError(t, err)
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	handler := &stubHandler{}
	require.NoError(t, server.ServeControl(ctx, handler))

	events := make(chan *types.AutomationEvent, 1)
	require.NoError(t, client.Subscribe(ctx, func(e *types.AutomationEvent) { events <- e }))

	resp, err := client.Request(ctx, types.NewSetThresholdMessage(70))
	require.NoError(t, err)
	assert.True(t, resp.Success)
	require.NotNil(t, resp.Status)
	assert.Equal(t, 70, resp.Status.Threshold)

	server.Emit(types.NewLogEvent("Progress: 10%", types.LogSuccess))
	select {
	case e := <-events:
		assert.Equal(t, "Progress: 10%", e.Message)
		assert.Equal(t, types.LogSuccess, e.LogType)
	case <-ctx.Done():
		t.Fatal("event not received")
	}
}

func TestDialNATSFailure(t *testing.T) {
	_, err := DialNATS(NATSConfig{URL: "nats://127.0.0.1:1"}, logging.Discard())
	assert.Error(t, err)
}
