package websocket

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobnest/jobnest_backend/middleware"
)

type wireFrame struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

func newTestServer(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()

	hub := NewHub(nil)
	go hub.Run()

	e := echo.New()
	e.GET("/ws", func(c echo.Context) error {
		return HandleWebSocket(c, hub)
	})

	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) wireFrame {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var frame wireFrame
	require.NoError(t, conn.ReadJSON(&frame))
	return frame
}

// expectSilence asserts that no frame arrives within the window
func expectSilence(t *testing.T, conn *websocket.Conn) {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	var frame wireFrame
	err := conn.ReadJSON(&frame)
	require.Error(t, err, "unexpected frame: %+v", frame)
}

func (h *Hub) groupSize(name string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.groups[normalizeGroup(name)])
}

func waitForGroupSize(t *testing.T, hub *Hub, name string, want int) {
	t.Helper()

	require.Eventually(t, func() bool {
		return hub.groupSize(name) == want
	}, 2*time.Second, 10*time.Millisecond)
}

func TestNormalizeGroup(t *testing.T) {
	assert.Equal(t, "user1", normalizeGroup("  User1 "))
	assert.Equal(t, "abc123", normalizeGroup("ABC123"))
	assert.Equal(t, "", normalizeGroup("   "))
}

func TestWelcomeEvent(t *testing.T) {
	_, srv := newTestServer(t)
	conn := dial(t, srv, "")

	frame := readFrame(t, conn)
	assert.Equal(t, EventConnected, frame.Event)

	var welcome map[string]interface{}
	require.NoError(t, json.Unmarshal(frame.Payload, &welcome))
	assert.NotEmpty(t, welcome["connectionId"])
	assert.Equal(t, true, welcome["requiresAuth"])
}

func TestAuthenticatedWelcomeAndAutoGroup(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	hub, srv := newTestServer(t)

	token, _, err := middleware.GenerateJWT("64A1B2C3D4E5F6A7B8C9D0E1", "emp@example.com", "employer")
	require.NoError(t, err)

	conn := dial(t, srv, "?token="+token)

	frame := readFrame(t, conn)
	assert.Equal(t, EventConnected, frame.Event)

	var welcome map[string]interface{}
	require.NoError(t, json.Unmarshal(frame.Payload, &welcome))
	assert.NotContains(t, welcome, "requiresAuth")

	// The connection lands in its own group without an explicit join,
	// regardless of the casing the token carried.
	waitForGroupSize(t, hub, "64a1b2c3d4e5f6a7b8c9d0e1", 1)

	hub.SendToGroup("64A1B2C3D4E5F6A7B8C9D0E1", EventStatusUpdate, map[string]string{"newStatus": "REVIEWED"})

	frame = readFrame(t, conn)
	assert.Equal(t, EventStatusUpdate, frame.Event)
}

func TestGroupDelivery(t *testing.T) {
	hub, srv := newTestServer(t)

	member := dial(t, srv, "")
	bystander := dial(t, srv, "")
	readFrame(t, member)
	readFrame(t, bystander)

	require.NoError(t, member.WriteJSON(ClientMessage{Action: "join", UserID: "User1"}))
	waitForGroupSize(t, hub, "user1", 1)

	hub.SendToGroup("user1", EventApplicationNotification, map[string]string{"jobTitle": "Backend Engineer"})

	frame := readFrame(t, member)
	assert.Equal(t, EventApplicationNotification, frame.Event)

	var payload map[string]string
	require.NoError(t, json.Unmarshal(frame.Payload, &payload))
	assert.Equal(t, "Backend Engineer", payload["jobTitle"])

	expectSilence(t, bystander)
}

func TestJoinIsIdempotent(t *testing.T) {
	hub, srv := newTestServer(t)

	conn := dial(t, srv, "")
	readFrame(t, conn)

	require.NoError(t, conn.WriteJSON(ClientMessage{Action: "join", UserID: "user1"}))
	require.NoError(t, conn.WriteJSON(ClientMessage{Action: "join", UserID: "USER1"}))
	waitForGroupSize(t, hub, "user1", 1)

	hub.SendToGroup("user1", EventStatusUpdate, nil)

	frame := readFrame(t, conn)
	assert.Equal(t, EventStatusUpdate, frame.Event)

	// Joined twice, delivered once
	expectSilence(t, conn)
}

func TestLeaveGroup(t *testing.T) {
	hub, srv := newTestServer(t)

	conn := dial(t, srv, "")
	readFrame(t, conn)

	require.NoError(t, conn.WriteJSON(ClientMessage{Action: "join", UserID: "user1"}))
	waitForGroupSize(t, hub, "user1", 1)

	require.NoError(t, conn.WriteJSON(ClientMessage{Action: "leave", UserID: "user1"}))
	waitForGroupSize(t, hub, "user1", 0)

	hub.SendToGroup("user1", EventStatusUpdate, nil)
	expectSilence(t, conn)
}

func TestBroadcastAll(t *testing.T) {
	hub, srv := newTestServer(t)

	first := dial(t, srv, "")
	second := dial(t, srv, "")
	readFrame(t, first)
	readFrame(t, second)

	hub.BroadcastAll(EventNewJob, map[string]string{"title": "Designer"})

	for _, conn := range []*websocket.Conn{first, second} {
		frame := readFrame(t, conn)
		assert.Equal(t, EventNewJob, frame.Event)
	}
}

func TestSendToGroupReturnsWithoutWaitingOnDeadMember(t *testing.T) {
	hub, srv := newTestServer(t)

	dead := dial(t, srv, "")
	live := dial(t, srv, "")
	readFrame(t, dead)
	readFrame(t, live)

	require.NoError(t, dead.WriteJSON(ClientMessage{Action: "join", UserID: "user1"}))
	require.NoError(t, live.WriteJSON(ClientMessage{Action: "join", UserID: "user1"}))
	waitForGroupSize(t, hub, "user1", 2)

	// Kill one member's transport underneath the hub
	require.NoError(t, dead.Close())

	start := time.Now()
	hub.SendToGroup("user1", EventApplicationNotification, map[string]string{"jobTitle": "Designer"})
	assert.Less(t, time.Since(start), time.Second, "send must not block on a dead connection")

	// The healthy member still gets the event
	frame := readFrame(t, live)
	assert.Equal(t, EventApplicationNotification, frame.Event)
}

func TestDisconnectLeavesGroups(t *testing.T) {
	hub, srv := newTestServer(t)

	conn := dial(t, srv, "")
	readFrame(t, conn)

	require.NoError(t, conn.WriteJSON(ClientMessage{Action: "join", UserID: "user1"}))
	waitForGroupSize(t, hub, "user1", 1)

	conn.Close()
	waitForGroupSize(t, hub, "user1", 0)
}
