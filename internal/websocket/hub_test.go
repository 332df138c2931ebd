package websocket

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// dialTestClient stands up a hub-backed endpoint and connects one client to it
func dialTestClient(t *testing.T, hub *Hub) *websocket.Conn {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		ServeWS(hub, conn, "test-trace")
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) map[string]interface{} {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)

	var event map[string]interface{}
	require.NoError(t, json.Unmarshal(payload, &event))
	return event
}

func TestHub_ConnectionAck(t *testing.T) {
	hub := NewHub(nil)
	hub.Start()
	defer hub.Shutdown()

	conn := dialTestClient(t, hub)

	ack := readEvent(t, conn)
	assert.Equal(t, TypeConnection, ack["type"])

	data, ok := ack["data"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "connected", data["status"])
	assert.NotEmpty(t, data["client_id"])
	assert.Equal(t, "test-trace", ack["trace_id"])
}

func TestHub_BroadcastReachesAllClients(t *testing.T) {
	hub := NewHub(nil)
	hub.Start()
	defer hub.Shutdown()

	first := dialTestClient(t, hub)
	second := dialTestClient(t, hub)

	// Consume the connection acks before broadcasting.
	readEvent(t, first)
	readEvent(t, second)

	require.Eventually(t, func() bool { return hub.ClientCount() == 2 },
		2*time.Second, 10*time.Millisecond)

	hub.BroadcastEvent(TypeBatchCreated, map[string]interface{}{
		"batch_name": "weekend",
		"quantity":   25,
	})

	for _, conn := range []*websocket.Conn{first, second} {
		event := readEvent(t, conn)
		assert.Equal(t, TypeBatchCreated, event["type"])

		data, ok := event["data"].(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, "weekend", data["batch_name"])
		assert.NotEmpty(t, event["timestamp"])
	}
}

func TestHub_ClientCountTracksDisconnects(t *testing.T) {
	hub := NewHub(nil)
	hub.Start()
	defer hub.Shutdown()

	conn := dialTestClient(t, hub)
	readEvent(t, conn)

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 },
		2*time.Second, 10*time.Millisecond)

	conn.Close()

	require.Eventually(t, func() bool { return hub.ClientCount() == 0 },
		2*time.Second, 10*time.Millisecond)
}

func TestHub_ShutdownIsIdempotent(t *testing.T) {
	hub := NewHub(nil)
	hub.Start()
	hub.Shutdown()
	hub.Shutdown()
}

func TestHub_BroadcastWithoutClientsDoesNotBlock(t *testing.T) {
	hub := NewHub(nil)
	hub.Start()
	defer hub.Shutdown()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			hub.BroadcastEvent(TypeVoucherUsage, map[string]int{"seq": i})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("broadcast blocked with no clients connected")
	}
}
