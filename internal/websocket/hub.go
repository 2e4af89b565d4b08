package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"inkwell/internal/logger"
)

// Hub keeps the room membership of every connected client and fans messages out to
// rooms. Membership is only changed by the Run goroutine.
type Hub struct {
	// Clients by room key
	rooms map[string]map[*Client]bool

	broadcast   chan *envelope
	subscribe   chan subscription
	unsubscribe chan subscription
	disconnect  chan *Client
	done        chan struct{}

	mu sync.RWMutex
}

type envelope struct {
	room string
	data []byte
}

type subscription struct {
	client *Client
	room   string
}

func NewHub() *Hub {
	return &Hub{
		rooms:       make(map[string]map[*Client]bool),
		broadcast:   make(chan *envelope, 256),
		subscribe:   make(chan subscription),
		unsubscribe: make(chan subscription),
		disconnect:  make(chan *Client),
		done:        make(chan struct{}),
	}
}

// Run processes membership changes and broadcasts until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.closeAll()
			logger.Info().Msg("websocket hub stopped")
			return

		case sub := <-h.subscribe:
			h.mu.Lock()
			if sub.client.closed {
				h.mu.Unlock()
				continue
			}
			if h.rooms[sub.room] == nil {
				h.rooms[sub.room] = make(map[*Client]bool)
			}
			h.rooms[sub.room][sub.client] = true
			sub.client.rooms[sub.room] = true
			h.mu.Unlock()
			logger.Debug().Str("room", sub.room).Str("client", sub.client.ID).Msg("client joined room")

		case sub := <-h.unsubscribe:
			h.mu.Lock()
			h.leave(sub.client, sub.room)
			h.mu.Unlock()

		case client := <-h.disconnect:
			h.mu.Lock()
			h.drop(client)
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.Lock()
			for client := range h.rooms[msg.room] {
				select {
				case client.send <- msg.data:
				default:
					// slow consumer
					h.drop(client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// BroadcastToRoom sends message as JSON to every client in room. It never blocks: a
// full queue drops the message.
func (h *Hub) BroadcastToRoom(room string, message interface{}) {
	data, err := json.Marshal(message)
	if err != nil {
		logger.Error().Err(err).Str("room", room).Msg("failed to encode room message")
		return
	}

	select {
	case h.broadcast <- &envelope{room: room, data: data}:
	default:
		logger.Warn().Str("room", room).Msg("broadcast channel full, dropping message")
	}
}

// request hands a membership change to Run, giving up once the hub has stopped.
func request[T any](h *Hub, ch chan T, value T) {
	select {
	case ch <- value:
	case <-h.done:
	}
}

// RoomSize returns the number of clients in room.
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// leave and drop must be called with mu held.
func (h *Hub) leave(client *Client, room string) {
	delete(client.rooms, room)
	if clients, ok := h.rooms[room]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.rooms, room)
		}
	}
}

func (h *Hub) drop(client *Client) {
	if client.closed {
		return
	}
	for room := range client.rooms {
		h.leave(client, room)
	}
	client.closed = true
	close(client.send)
	logger.Debug().Str("client", client.ID).Msg("client disconnected")
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, clients := range h.rooms {
		for client := range clients {
			h.drop(client)
		}
	}
}
