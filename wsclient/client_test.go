package wsclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// pushServer is a minimal stand-in for the hub endpoint: it hands each
// accepted connection to the test and funnels client messages into a channel.
type pushServer struct {
	srv   *httptest.Server
	conns chan *websocket.Conn
	msgs  chan clientMessage
}

func newPushServer(t *testing.T) *pushServer {
	t.Helper()

	ps := &pushServer{
		conns: make(chan *websocket.Conn, 4),
		msgs:  make(chan clientMessage, 16),
	}

	ps.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		ps.conns <- conn

		go func() {
			for {
				var msg clientMessage
				if err := conn.ReadJSON(&msg); err != nil {
					return
				}
				ps.msgs <- msg
			}
		}()
	}))
	t.Cleanup(ps.srv.Close)
	return ps
}

func (ps *pushServer) url() string {
	return "ws" + strings.TrimPrefix(ps.srv.URL, "http")
}

func (ps *pushServer) accept(t *testing.T) *websocket.Conn {
	t.Helper()

	select {
	case conn := <-ps.conns:
		return conn
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for connection")
		return nil
	}
}

func (ps *pushServer) nextMessage(t *testing.T) clientMessage {
	t.Helper()

	select {
	case msg := <-ps.msgs:
		return msg
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for client message")
		return clientMessage{}
	}
}

func push(t *testing.T, conn *websocket.Conn, event string, payload interface{}) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(map[string]interface{}{
		"event":   event,
		"payload": payload,
	}))
}

func connect(t *testing.T, ps *pushServer, opts ...Option) (*Client, *websocket.Conn) {
	t.Helper()

	client := New(ps.url(), opts...)
	require.NoError(t, client.Connect(context.Background()))
	t.Cleanup(func() { client.Close() })
	return client, ps.accept(t)
}

func awaitPayload(t *testing.T, ch <-chan json.RawMessage) json.RawMessage {
	t.Helper()

	select {
	case p := <-ch:
		return p
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for handler delivery")
		return nil
	}
}

func TestSubscribeFanOut(t *testing.T) {
	ps := newPushServer(t)
	client, serverConn := connect(t, ps)

	first := make(chan json.RawMessage, 1)
	second := make(chan json.RawMessage, 1)

	// Mixed casing and padding on subscribe still matches the wire event
	client.Subscribe(" ReceiveNewJob ", func(p json.RawMessage) { first <- p })
	client.Subscribe("receivenewjob", func(p json.RawMessage) { second <- p })

	push(t, serverConn, "receivenewjob", map[string]string{"title": "Designer"})

	var job map[string]string
	require.NoError(t, json.Unmarshal(awaitPayload(t, first), &job))
	assert.Equal(t, "Designer", job["title"])
	awaitPayload(t, second)

	// Exactly one delivery per handler
	assert.Empty(t, first)
	assert.Empty(t, second)
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	ps := newPushServer(t)
	client, serverConn := connect(t, ps)

	kept := make(chan json.RawMessage, 1)
	var droppedCount int32

	client.Subscribe("receivestatusupdate", func(p json.RawMessage) { kept <- p })
	unsubscribe := client.Subscribe("receivestatusupdate", func(json.RawMessage) {
		atomic.AddInt32(&droppedCount, 1)
	})

	unsubscribe()
	unsubscribe() // calling twice is harmless

	push(t, serverConn, "receivestatusupdate", map[string]string{"newStatus": "REVIEWED"})

	awaitPayload(t, kept)
	assert.Zero(t, atomic.LoadInt32(&droppedCount))
}

func TestHandlerPanicDoesNotStopSiblings(t *testing.T) {
	ps := newPushServer(t)
	client, serverConn := connect(t, ps)

	delivered := make(chan json.RawMessage, 2)

	client.Subscribe("receivenewjob", func(json.RawMessage) { panic("boom") })
	client.Subscribe("receivenewjob", func(p json.RawMessage) { delivered <- p })

	push(t, serverConn, "receivenewjob", nil)
	awaitPayload(t, delivered)

	// The connection survives the panic too
	push(t, serverConn, "receivenewjob", nil)
	awaitPayload(t, delivered)
}

func TestEventsAreIndependent(t *testing.T) {
	ps := newPushServer(t)
	client, serverConn := connect(t, ps)

	jobs := make(chan json.RawMessage, 1)
	statuses := make(chan json.RawMessage, 1)

	client.Subscribe("receivenewjob", func(p json.RawMessage) { jobs <- p })
	client.Subscribe("receivestatusupdate", func(p json.RawMessage) { statuses <- p })

	push(t, serverConn, "receivestatusupdate", nil)

	awaitPayload(t, statuses)
	assert.Empty(t, jobs)
}

func TestJoinAndLeaveUserGroup(t *testing.T) {
	ps := newPushServer(t)
	client, _ := connect(t, ps)

	require.NoError(t, client.JoinUserGroup("user1"))
	msg := ps.nextMessage(t)
	assert.Equal(t, "join", msg.Action)
	assert.Equal(t, "user1", msg.UserID)

	require.NoError(t, client.LeaveUserGroup("user1"))
	msg = ps.nextMessage(t)
	assert.Equal(t, "leave", msg.Action)
	assert.Equal(t, "user1", msg.UserID)
}

func TestCloseDuringReconnectLeavesNoLiveConnection(t *testing.T) {
	ps := newPushServer(t)
	client, firstConn := connect(t, ps)

	// Drop the transport to start a reconnect attempt, then close the client
	// while the dial may be in flight
	firstConn.Close()
	require.NoError(t, client.Close())

	// Whichever way the race went, any connection the server still sees must
	// already be shut down
	select {
	case conn := <-ps.conns:
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		_, _, err := conn.ReadMessage()
		assert.Error(t, err, "connection dialed during Close must be torn down")
	case <-time.After(1500 * time.Millisecond):
		// No reconnect landed at all
	}
}

func TestReconnectReplaysGroupsAndKeepsSubscriptions(t *testing.T) {
	ps := newPushServer(t)

	reconnected := make(chan struct{}, 1)
	client, firstConn := connect(t, ps, WithOnReconnect(func() {
		reconnected <- struct{}{}
	}))

	delivered := make(chan json.RawMessage, 1)
	client.Subscribe("receivestatusupdate", func(p json.RawMessage) { delivered <- p })

	require.NoError(t, client.JoinUserGroup("user1"))
	ps.nextMessage(t)

	// Drop the connection server-side; the client should dial again
	firstConn.Close()
	secondConn := ps.accept(t)

	// Group membership is replayed on the new connection
	msg := ps.nextMessage(t)
	assert.Equal(t, "join", msg.Action)
	assert.Equal(t, "user1", msg.UserID)

	select {
	case <-reconnected:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reconnect hook")
	}

	// Subscriptions survive without being re-registered
	push(t, secondConn, "receivestatusupdate", map[string]string{"newStatus": "ACCEPTED"})
	awaitPayload(t, delivered)
}
