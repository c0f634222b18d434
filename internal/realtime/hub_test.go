package realtime

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, hub *Hub) *httptest.Server {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.Serve(w, r, "u1", r.URL.Query().Get("session_id"))
	}))
	t.Cleanup(server.Close)
	return server
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	require.Eventually(t, cond, 2*time.Second, 10*time.Millisecond)
}

func TestHub_NotifySuperseded(t *testing.T) {
	hub := NewHub()
	server := newTestServer(t, hub)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(server)+"?session_id=sess_1", nil)
	require.NoError(t, err)
	defer conn.Close()

	var hello Event
	require.NoError(t, conn.ReadJSON(&hello))
	assert.Equal(t, EventConnected, hello.Type)
	assert.Equal(t, "sess_1", hello.SessionID)

	waitFor(t, func() bool { return hub.Count() == 1 })
	assert.Equal(t, []SessionRef{{UserID: "u1", SessionID: "sess_1"}}, hub.Sessions())

	assert.Zero(t, hub.NotifySuperseded("sess_other", "x"))
	assert.Equal(t, 1, hub.NotifySuperseded("sess_1", "a newer session is active"))

	var event Event
	require.NoError(t, conn.ReadJSON(&event))
	assert.Equal(t, EventSuperseded, event.Type)
	assert.Equal(t, "a newer session is active", event.Reason)
}

func TestHub_UnregistersOnDisconnect(t *testing.T) {
	hub := NewHub()
	server := newTestServer(t, hub)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(server)+"?session_id=sess_1", nil)
	require.NoError(t, err)
	waitFor(t, func() bool { return hub.Count() == 1 })

	conn.Close()
	waitFor(t, func() bool { return hub.Count() == 0 })
	assert.Empty(t, hub.Sessions())
}

func TestHub_Close(t *testing.T) {
	hub := NewHub()
	server := newTestServer(t, hub)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(server)+"?session_id=sess_1", nil)
	require.NoError(t, err)
	defer conn.Close()
	waitFor(t, func() bool { return hub.Count() == 1 })

	hub.Close()
	waitFor(t, func() bool { return hub.Count() == 0 })
}

func TestSubscriber_Run(t *testing.T) {
	hub := NewHub()
	server := newTestServer(t, hub)

	sub := NewSubscriber(wsURL(server), "token", "sess_9")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	got := make(chan Event, 4)
	done := make(chan error, 1)
	go func() {
		done <- sub.Run(ctx, func(e Event) bool {
			got <- e
			return e.Type != EventSuperseded
		})
	}()

	first := <-got
	assert.Equal(t, EventConnected, first.Type)

	hub.NotifySuperseded("sess_9", "revoked")
	second := <-got
	assert.Equal(t, EventSuperseded, second.Type)
	assert.NoError(t, <-done)
}
