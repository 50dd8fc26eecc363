package websocket

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Event names pushed server -> client
const (
	EventConnected               = "connected"
	EventNewJob                  = "receivenewjob"
	EventApplicationNotification = "receiveapplicationnotification"
	EventStatusUpdate            = "receivestatusupdate"
)

// backplaneChannel is the Redis pub/sub channel used to relay push events
// between instances.
const backplaneChannel = "jobnest:push"

// writeWait bounds every write; a peer that cannot drain within it loses the
// connection.
const writeWait = 10 * time.Second

// Envelope is the wire format of every pushed event
type Envelope struct {
	Event   string      `json:"event"`
	Payload interface{} `json:"payload,omitempty"`
}

// ClientMessage is what a connected client sends to manage group membership
type ClientMessage struct {
	Action string `json:"action"` // join or leave
	UserID string `json:"userId"`
}

// Client represents a connected WebSocket client
type Client struct {
	ID            string // connection id
	UserID        string
	Conn          *websocket.Conn
	Authenticated bool

	writeMu sync.Mutex
	groups  map[string]bool
}

// NewClient wraps an upgraded connection
func NewClient(conn *websocket.Conn, userID string) *Client {
	return &Client{
		ID:            uuid.NewString(),
		UserID:        userID,
		Conn:          conn,
		Authenticated: userID != "",
		groups:        make(map[string]bool),
	}
}

func (c *Client) send(env Envelope) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.Conn.WriteJSON(env)
}

// Hub maintains the set of active clients and their group memberships.
// Delivery is fire-and-forget: a write error never propagates to the caller.
type Hub struct {
	instanceID string
	clients    map[*Client]bool
	groups     map[string]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
	redis      *redis.Client
}

// NewHub creates a new Hub instance. redisClient may be nil; the hub then
// delivers only to clients connected to this instance.
func NewHub(redisClient *redis.Client) *Hub {
	return &Hub{
		instanceID: uuid.NewString(),
		clients:    make(map[*Client]bool),
		groups:     make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		redis:      redisClient,
	}
}

// Run starts the hub's event loop
func (h *Hub) Run() {
	if h.redis != nil {
		go h.listenBackplane()
	}

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				for name := range client.groups {
					h.removeFromGroup(name, client)
				}
			}
			h.mu.Unlock()
			client.Conn.Close()
		}
	}
}

// Register adds a client to the hub
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister removes a client and closes its connection
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// normalizeGroup lowercases and trims a user id so producers and consumers
// need not agree on casing.
func normalizeGroup(userID string) string {
	return strings.ToLower(strings.TrimSpace(userID))
}

// JoinGroup adds the client to a user group. Joining a group the client is
// already in is a no-op.
func (h *Hub) JoinGroup(client *Client, userID string) {
	name := normalizeGroup(userID)
	if name == "" {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if client.groups[name] {
		return
	}
	client.groups[name] = true

	if h.groups[name] == nil {
		h.groups[name] = make(map[*Client]bool)
	}
	h.groups[name][client] = true
}

// LeaveGroup removes the client from a user group. Leaving a group the client
// is not in is a no-op.
func (h *Hub) LeaveGroup(client *Client, userID string) {
	name := normalizeGroup(userID)
	if name == "" {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if !client.groups[name] {
		return
	}
	delete(client.groups, name)
	h.removeFromGroup(name, client)
}

// removeFromGroup expects h.mu to be held
func (h *Hub) removeFromGroup(name string, client *Client) {
	if members, ok := h.groups[name]; ok {
		delete(members, client)
		if len(members) == 0 {
			delete(h.groups, name)
		}
	}
}

// BroadcastAll sends a named event to every connected client
func (h *Hub) BroadcastAll(event string, payload interface{}) {
	env := Envelope{Event: normalizeGroup(event), Payload: payload}

	h.mu.RLock()
	targets := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		targets = append(targets, client)
	}
	h.mu.RUnlock()

	h.deliver(targets, env)
	h.publishBackplane("all", "", env)
}

// SendToGroup sends a named event to every connection in the user's group
func (h *Hub) SendToGroup(userID, event string, payload interface{}) {
	name := normalizeGroup(userID)
	env := Envelope{Event: normalizeGroup(event), Payload: payload}

	h.mu.RLock()
	targets := make([]*Client, 0, len(h.groups[name]))
	for client := range h.groups[name] {
		targets = append(targets, client)
	}
	h.mu.RUnlock()

	h.deliver(targets, env)
	h.publishBackplane("group", name, env)
}

// deliver fans out to each target on its own goroutine so a stalled peer never
// blocks the caller or the other targets. A connection that cannot be written
// within writeWait is closed; its read loop then unregisters it.
func (h *Hub) deliver(targets []*Client, env Envelope) {
	for _, client := range targets {
		go func(client *Client) {
			if err := client.send(env); err != nil {
				log.Printf("Error sending %s to connection %s: %v", env.Event, client.ID, err)
				client.Conn.Close()
			}
		}(client)
	}
}

// backplaneMessage is the relay format between instances
type backplaneMessage struct {
	Origin  string          `json:"origin"`
	Scope   string          `json:"scope"` // all or group
	Group   string          `json:"group,omitempty"`
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func (h *Hub) publishBackplane(scope, group string, env Envelope) {
	if h.redis == nil {
		return
	}

	payload, err := json.Marshal(env.Payload)
	if err != nil {
		log.Printf("Error encoding backplane payload for %s: %v", env.Event, err)
		return
	}

	msg, err := json.Marshal(backplaneMessage{
		Origin:  h.instanceID,
		Scope:   scope,
		Group:   group,
		Event:   env.Event,
		Payload: payload,
	})
	if err != nil {
		log.Printf("Error encoding backplane message for %s: %v", env.Event, err)
		return
	}

	if err := h.redis.Publish(context.Background(), backplaneChannel, msg).Err(); err != nil {
		log.Printf("Error publishing %s to backplane: %v", env.Event, err)
	}
}

// listenBackplane relays events published by sibling instances to clients
// connected here. Messages originating from this instance are skipped since
// they were already delivered locally.
func (h *Hub) listenBackplane() {
	pubsub := h.redis.Subscribe(context.Background(), backplaneChannel)
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		var relay backplaneMessage
		if err := json.Unmarshal([]byte(msg.Payload), &relay); err != nil {
			log.Printf("Error decoding backplane message: %v", err)
			continue
		}
		if relay.Origin == h.instanceID {
			continue
		}

		env := Envelope{Event: relay.Event, Payload: relay.Payload}

		h.mu.RLock()
		var targets []*Client
		if relay.Scope == "all" {
			for client := range h.clients {
				targets = append(targets, client)
			}
		} else {
			for client := range h.groups[relay.Group] {
				targets = append(targets, client)
			}
		}
		h.mu.RUnlock()

		h.deliver(targets, env)
	}
}
