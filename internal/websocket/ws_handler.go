package websocket

import (
	"net/http"
	"strconv"

	"inkwell/internal/logger"
	"inkwell/internal/model"

	"github.com/gorilla/websocket"
)

// NewUpgrader accepts browser connections from allowedOrigin, or from anywhere when
// allowedOrigin is empty or "*".
func NewUpgrader(allowedOrigin string) *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return allowedOrigin == "" || allowedOrigin == "*" || origin == "" || origin == allowedOrigin
		},
	}
}

// ServeWS upgrades the request and joins the room named by ?variant=&id=. Without
// those parameters the client joins nothing and subscribes through messages.
func ServeWS(hub *Hub, registry *model.Registry, upgrader *websocket.Upgrader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		room := ""
		if tag := r.URL.Query().Get("variant"); tag != "" {
			v, ok := registry.Lookup(tag)
			id, err := strconv.ParseUint(r.URL.Query().Get("id"), 10, 64)
			if !ok || err != nil || id == 0 {
				http.Error(w, "Object not found", http.StatusNotFound)
				return
			}
			room = model.RoomKey(v.Tag, uint(id))
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Warn().Err(err).Msg("websocket upgrade failed")
			return
		}

		client := NewClient(hub, conn, registry)
		if room != "" {
			client.Join(room)
		}
		go client.Start()
	}
}
