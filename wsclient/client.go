package wsclient

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"
)

// Handler consumes one event payload. Handlers run on the read loop goroutine;
// a panicking handler is recovered and never disturbs its siblings.
type Handler func(payload json.RawMessage)

// envelope mirrors the server's wire frame
type envelope struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

type clientMessage struct {
	Action string `json:"action"`
	UserID string `json:"userId"`
}

// Client is a push connection that multiplexes many subscribers over one
// websocket. Subscriptions and group memberships survive reconnects: after the
// connection is re-established, group joins are replayed automatically.
type Client struct {
	url   string
	token string

	onReconnect func()

	mu       sync.Mutex
	conn     *websocket.Conn
	handlers map[string]map[int]Handler
	nextID   int
	groups   map[string]bool
	closed   bool
}

// Option configures a Client
type Option func(*Client)

// WithToken authenticates the connection with a JWT passed as a query parameter
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithOnReconnect registers a hook invoked after every successful reconnect,
// once group memberships have been replayed.
func WithOnReconnect(fn func()) Option {
	return func(c *Client) { c.onReconnect = fn }
}

// New creates a client for the given websocket URL. Call Connect to dial.
func New(url string, opts ...Option) *Client {
	c := &Client{
		url:      url,
		handlers: make(map[string]map[int]Handler),
		groups:   make(map[string]bool),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) dialURL() string {
	if c.token == "" {
		return c.url
	}
	sep := "?"
	if strings.Contains(c.url, "?") {
		sep = "&"
	}
	return c.url + sep + "token=" + c.token
}

// Connect dials the server and starts the read loop. The read loop keeps the
// connection alive across failures until Close is called.
func (c *Client) Connect(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.dialURL(), nil)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	go c.readLoop(conn)
	return nil
}

// Close tears the connection down permanently
func (c *Client) Close() error {
	c.mu.Lock()
	c.closed = true
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	if conn != nil {
		return conn.Close()
	}
	return nil
}

// normalizeEvent makes event names case and whitespace insensitive
func normalizeEvent(event string) string {
	return strings.ToLower(strings.TrimSpace(event))
}

// Subscribe registers a handler for an event and returns its unsubscribe
// function. Many handlers may share one event; each delivery reaches every
// registered handler exactly once.
func (c *Client) Subscribe(event string, handler Handler) func() {
	event = normalizeEvent(event)

	c.mu.Lock()
	if c.handlers[event] == nil {
		c.handlers[event] = make(map[int]Handler)
	}
	id := c.nextID
	c.nextID++
	c.handlers[event][id] = handler
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			delete(c.handlers[event], id)
			if len(c.handlers[event]) == 0 {
				delete(c.handlers, event)
			}
		})
	}
}

// JoinUserGroup subscribes the connection to a user's personal group. The
// membership is remembered and re-issued after reconnects.
func (c *Client) JoinUserGroup(userID string) error {
	c.mu.Lock()
	c.groups[userID] = true
	conn := c.conn
	c.mu.Unlock()

	if conn == nil {
		return nil
	}
	return conn.WriteJSON(clientMessage{Action: "join", UserID: userID})
}

// LeaveUserGroup unsubscribes the connection from a user's personal group
func (c *Client) LeaveUserGroup(userID string) error {
	c.mu.Lock()
	delete(c.groups, userID)
	conn := c.conn
	c.mu.Unlock()

	if conn == nil {
		return nil
	}
	return conn.WriteJSON(clientMessage{Action: "leave", UserID: userID})
}

func (c *Client) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			c.mu.Lock()
			closed := c.closed
			c.mu.Unlock()
			if closed {
				return
			}
			log.Printf("Push connection lost: %v", err)
			c.reconnect()
			return
		}

		var env envelope
		if err := json.Unmarshal(data, &env); err != nil {
			log.Printf("Discarding malformed push frame: %v", err)
			continue
		}

		c.dispatch(normalizeEvent(env.Event), env.Payload)
	}
}

// dispatch fans one event out to its handlers. The handler map is snapshotted
// under the lock so handlers may subscribe or unsubscribe from within a
// callback without deadlocking.
func (c *Client) dispatch(event string, payload json.RawMessage) {
	c.mu.Lock()
	snapshot := make([]Handler, 0, len(c.handlers[event]))
	for _, h := range c.handlers[event] {
		snapshot = append(snapshot, h)
	}
	c.mu.Unlock()

	for _, handler := range snapshot {
		c.invoke(handler, payload)
	}
}

func (c *Client) invoke(handler Handler, payload json.RawMessage) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Push handler panicked: %v", r)
		}
	}()
	handler(payload)
}

// reconnect re-dials with exponential backoff until it succeeds or the client
// is closed, then replays group memberships.
func (c *Client) reconnect() {
	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = 0 // keep trying
	policy.MaxInterval = 30 * time.Second

	operation := func() error {
		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			return backoff.Permanent(errors.New("client closed"))
		}
		c.mu.Unlock()

		conn, _, err := websocket.DefaultDialer.Dial(c.dialURL(), nil)
		if err != nil {
			return err
		}

		c.mu.Lock()
		// Close may have run while the dial was in flight; discard the fresh
		// connection instead of resurrecting a closed client.
		if c.closed {
			c.mu.Unlock()
			conn.Close()
			return backoff.Permanent(errors.New("client closed"))
		}
		c.conn = conn
		groups := make([]string, 0, len(c.groups))
		for g := range c.groups {
			groups = append(groups, g)
		}
		c.mu.Unlock()

		for _, g := range groups {
			if err := conn.WriteJSON(clientMessage{Action: "join", UserID: g}); err != nil {
				log.Printf("Error rejoining group %s: %v", g, err)
			}
		}

		go c.readLoop(conn)
		return nil
	}

	if err := backoff.Retry(operation, policy); err != nil {
		return
	}

	log.Println("Push connection re-established")
	if c.onReconnect != nil {
		c.onReconnect()
	}
}
