package websocket

import (
	"encoding/json"
	"time"

	"inkwell/internal/logger"
	"inkwell/internal/model"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Clients only send small control frames
	maxMessageSize = 4 * 1024
)

// Client is a middleman between the websocket connection and the hub
type Client struct {
	ID string

	hub      *Hub
	conn     *websocket.Conn
	send     chan []byte
	registry *model.Registry

	// owned by the hub goroutine
	rooms  map[string]bool
	closed bool
}

// controlMessage is what a client may send: a ping, or a request to join or leave
// the room of another item.
type controlMessage struct {
	Type    string `json:"type"`
	Variant string `json:"variant"`
	ID      uint   `json:"id"`
}

func NewClient(hub *Hub, conn *websocket.Conn, registry *model.Registry) *Client {
	return &Client{
		ID:       uuid.New().String(),
		hub:      hub,
		conn:     conn,
		send:     make(chan []byte, 256),
		registry: registry,
		rooms:    make(map[string]bool),
	}
}

// Join asks the hub to add the client to room.
func (c *Client) Join(room string) {
	request(c.hub, c.hub.subscribe, subscription{client: c, room: room})
}

// readPump handles control messages until the connection fails.
func (c *Client) readPump() {
	defer func() {
		request(c.hub, c.hub.disconnect, c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn().Err(err).Str("client", c.ID).Msg("websocket read error")
			}
			return
		}

		var msg controlMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			continue
		}
		c.handle(msg)
	}
}

func (c *Client) handle(msg controlMessage) {
	switch msg.Type {
	case "ping":
		c.reply(map[string]interface{}{"type": "pong", "timestamp": time.Now().Unix()})
	case "subscribe", "unsubscribe":
		v, ok := c.registry.Lookup(msg.Variant)
		if !ok || msg.ID == 0 {
			c.reply(map[string]interface{}{"type": "error", "message": "Object not found"})
			return
		}
		room := model.RoomKey(v.Tag, msg.ID)
		if msg.Type == "subscribe" {
			c.Join(room)
		} else {
			request(c.hub, c.hub.unsubscribe, subscription{client: c, room: room})
		}
		c.reply(map[string]interface{}{"type": msg.Type + "d", "room": room})
	}
}

// reply queues a direct answer through the hub so send is never written after close.
func (c *Client) reply(message map[string]interface{}) {
	data, err := json.Marshal(message)
	if err != nil {
		return
	}
	c.hub.mu.RLock()
	defer c.hub.mu.RUnlock()
	if c.closed {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

// writePump pumps messages from the hub to the websocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
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

// Start starts the client's read and write pumps
func (c *Client) Start() {
	go c.writePump()
	c.readPump()
}
