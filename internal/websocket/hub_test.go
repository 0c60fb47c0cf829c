package websocket

import (
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testHub(t *testing.T) *Hub {
	t.Helper()
	h := NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
	h.Start()
	t.Cleanup(h.Stop)
	return h
}

// registerBare attaches a client without a real network connection so
// the hub loop can be exercised directly.
func registerBare(t *testing.T, h *Hub) *Client {
	t.Helper()
	c := &Client{
		hub:         h,
		send:        make(chan []byte, 256),
		id:          "test-client",
		remoteAddr:  "127.0.0.1:0",
		connectedAt: time.Now(),
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	h.Register(c)
	return c
}

func receive(t *testing.T, c *Client) map[string]any {
	t.Helper()
	select {
	case raw := <-c.send:
		var msg map[string]any
		require.NoError(t, json.Unmarshal(raw, &msg))
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
		return nil
	}
}

func TestHub_RegisterSendsConnectionMessage(t *testing.T) {
	h := testHub(t)
	c := registerBare(t, h)

	msg := receive(t, c)
	assert.Equal(t, TypeConnection, msg["type"])

	assert.Eventually(t, func() bool { return h.ClientCount() == 1 },
		time.Second, 10*time.Millisecond)
}

func TestHub_BroadcastProgress(t *testing.T) {
	h := testHub(t)
	c := registerBare(t, h)
	receive(t, c) // connection message

	h.BroadcastProgress("sess-1", "project", 50, "projecting columns")

	msg := receive(t, c)
	assert.Equal(t, TypeProgress, msg["type"])
	data := msg["data"].(map[string]any)
	assert.Equal(t, "sess-1", data["session_id"])
	assert.Equal(t, "project", data["stage"])
	assert.Equal(t, float64(50), data["percent"])
}

func TestHub_BroadcastError(t *testing.T) {
	h := testHub(t)
	c := registerBare(t, h)
	receive(t, c)

	h.BroadcastError("sess-1", "INVALID_INPUT_FILE", "file unreadable")

	msg := receive(t, c)
	assert.Equal(t, TypeError, msg["type"])
	data := msg["data"].(map[string]any)
	assert.Equal(t, "INVALID_INPUT_FILE", data["code"])
}

func TestHub_StopDisconnectsClients(t *testing.T) {
	h := NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
	h.Start()
	c := registerBare(t, h)
	receive(t, c)

	h.Stop()

	assert.Equal(t, 0, h.ClientCount())
	// Channel must be closed after Stop.
	_, open := <-c.send
	assert.False(t, open)
}
