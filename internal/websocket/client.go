package websocket

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/princekumarofficial/course-admin-service/internal/types"
)

const (
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	maxCommandSize = 512
	sendBuffer     = 64
)

// ErrClientTooSlow is returned when the client's send buffer is full
var ErrClientTooSlow = errors.New("client send buffer full")

// Actions a dashboard can send to narrow or widen its event stream
const (
	ActionWatch   = "watch"
	ActionUnwatch = "unwatch"
)

// Command is a message read from a dashboard, e.g.
// {"action":"watch","session_id":"..."}.
type Command struct {
	Action    string `json:"action"`
	SessionID string `json:"session_id"`
}

// Client is one connected admin dashboard. It receives every upload event
// until it watches a session, and from then on only events of the sessions it
// watches.
type Client struct {
	conn    *websocket.Conn
	hub     *Hub
	adminID string
	send    chan []byte

	mu       sync.Mutex
	watching map[string]struct{}
	closed   bool
}

func NewClient(conn *websocket.Conn, adminID string, hub *Hub) *Client {
	return &Client{
		conn:     conn,
		hub:      hub,
		adminID:  adminID,
		send:     make(chan []byte, sendBuffer),
		watching: make(map[string]struct{}),
	}
}

// Start runs the command reader and the event writer until the connection
// drops or the hub closes the client.
func (c *Client) Start() {
	go c.writeEvents()
	go c.readCommands()
}

// Deliver queues event unless the dashboard is watching other sessions
func (c *Client) Deliver(event *types.Event) error {
	if !c.wants(event) {
		return nil
	}
	return c.queue(event)
}

func (c *Client) queue(event *types.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	select {
	case c.send <- data:
		return nil
	default:
		return ErrClientTooSlow
	}
}

// close ends the event writer. Later deliveries are dropped.
func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (c *Client) wants(event *types.Event) bool {
	upload, ok := event.Data.(*types.UploadEvent)
	if !ok {
		return true
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.watching) == 0 {
		return true
	}
	_, ok = c.watching[upload.SessionID]
	return ok
}

// apply updates the watch list and returns it sorted
func (c *Client) apply(cmd Command) (types.WatchList, error) {
	if cmd.SessionID == "" {
		return types.WatchList{}, errors.New("session_id is required")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	switch cmd.Action {
	case ActionWatch:
		c.watching[cmd.SessionID] = struct{}{}
	case ActionUnwatch:
		delete(c.watching, cmd.SessionID)
	default:
		return types.WatchList{}, fmt.Errorf("unknown action %q", cmd.Action)
	}

	list := types.WatchList{Sessions: make([]string, 0, len(c.watching))}
	for id := range c.watching {
		list.Sessions = append(list.Sessions, id)
	}
	sort.Strings(list.Sessions)
	return list, nil
}

// handle applies one raw command and acknowledges it with the new watch list.
// Malformed commands are logged and otherwise ignored.
func (c *Client) handle(raw []byte) {
	var cmd Command
	if err := json.Unmarshal(raw, &cmd); err != nil {
		slog.Warn("Ignoring malformed dashboard command", slog.String("admin_id", c.adminID), slog.String("error", err.Error()))
		return
	}

	list, err := c.apply(cmd)
	if err != nil {
		slog.Warn("Ignoring dashboard command", slog.String("admin_id", c.adminID), slog.String("error", err.Error()))
		return
	}

	if err := c.queue(types.NewEvent(types.EventWatchUpdated, list)); err != nil {
		slog.Warn("Failed to acknowledge dashboard command", slog.String("admin_id", c.adminID), slog.String("error", err.Error()))
	}
}

func (c *Client) readCommands() {
	defer func() {
		c.hub.UnregisterClient(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxCommandSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Error("WebSocket error", slog.String("admin_id", c.adminID), slog.String("error", err.Error()))
			}
			return
		}
		c.handle(raw)
	}
}

// writeEvents sends one JSON event per frame and keeps the connection alive
// with pings. It is the only writer on the connection.
func (c *Client) writeEvents() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// closed by the hub
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
