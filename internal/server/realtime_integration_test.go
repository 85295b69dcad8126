package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"testing"
	"time"

	"codecrew/internal/testutil"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestRealtime_EndToEnd dials the event stream over a real listener and
// expects the problem_created event published through Redis.
func TestRealtime_EndToEnd(t *testing.T) {
	ts := newTestServer(t)
	user := testutil.CreateUser(t, ts.db, "listener")
	tok := ts.token(t, user)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	require.NoError(t, ts.srv.hub.StartWiring(ctx, ts.srv.notifier))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = ts.app.Listener(ln) }()
	t.Cleanup(func() { _ = ts.app.ShutdownWithTimeout(time.Second) })

	resp := ts.do(t, http.MethodPost, "/api/ws/ticket", nil, tok)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	ticket := decode[map[string]any](t, resp)["ticket"].(string)

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+ln.Addr().String()+"/api/ws?ticket="+ticket, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return ts.srv.hub.Count() == 1 }, 2*time.Second, 10*time.Millisecond)

	resp = ts.do(t, http.MethodPost, "/api/problems", map[string]any{
		"title":               "Channel deadlock on close",
		"descriptionMarkdown": "Sender blocks forever.",
		"severity":            "MEDIUM",
		"difficulty":          "BEGINNER",
	}, tok)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)

	var event struct {
		Type    string         `json:"type"`
		Payload map[string]any `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(raw, &event))
	assert.Equal(t, "problem_created", event.Type)
	assert.NotEmpty(t, event.Payload)
}

func TestRealtime_RejectsReusedTicket(t *testing.T) {
	ts := newTestServer(t)
	user := testutil.CreateUser(t, ts.db, "reuser")

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = ts.app.Listener(ln) }()
	t.Cleanup(func() { _ = ts.app.ShutdownWithTimeout(time.Second) })

	resp := ts.do(t, http.MethodPost, "/api/ws/ticket", nil, ts.token(t, user))
	ticket := decode[map[string]any](t, resp)["ticket"].(string)
	url := "ws://" + ln.Addr().String() + "/api/ws?ticket=" + ticket

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	_ = conn.Close()

	_, hs, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, hs)
	assert.Equal(t, http.StatusUnauthorized, hs.StatusCode)
}
