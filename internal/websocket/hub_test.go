package websocket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"inkwell/internal/model"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	srv := httptest.NewServer(ServeWS(hub, model.DefaultRegistry(), NewUpgrader("*")))
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
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

func TestRoomBroadcastReachesOnlyMembers(t *testing.T) {
	hub, srv := startHub(t)
	room := model.RoomKey(model.VariantNews, 7)

	member := dial(t, srv, "?variant=News&id=7")
	outsider := dial(t, srv, "?variant=news&id=8")

	require.Eventually(t, func() bool { return hub.RoomSize(room) == 1 }, time.Second, 10*time.Millisecond)

	hub.BroadcastToRoom(room, map[string]interface{}{"type": "reactions", "id": 7})

	member.SetReadDeadline(time.Now().Add(time.Second))
	var got map[string]interface{}
	require.NoError(t, member.ReadJSON(&got))
	assert.Equal(t, "reactions", got["type"])

	outsider.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	_, _, err := outsider.ReadMessage()
	assert.Error(t, err)
}

func TestSubscribeThroughMessages(t *testing.T) {
	hub, srv := startHub(t)
	conn := dial(t, srv, "")
	room := model.RoomKey(model.VariantOpinion, 3)

	require.NoError(t, conn.WriteJSON(map[string]interface{}{"type": "subscribe", "variant": "opinions", "id": 3}))

	conn.SetReadDeadline(time.Now().Add(time.Second))
	var ack map[string]interface{}
	require.NoError(t, conn.ReadJSON(&ack))
	assert.Equal(t, "subscribed", ack["type"])
	assert.Equal(t, room, ack["room"])
	require.Eventually(t, func() bool { return hub.RoomSize(room) == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, conn.WriteJSON(map[string]interface{}{"type": "unsubscribe", "variant": "opinion", "id": 3}))
	require.Eventually(t, func() bool { return hub.RoomSize(room) == 0 }, time.Second, 10*time.Millisecond)

	require.NoError(t, conn.WriteJSON(map[string]interface{}{"type": "subscribe", "variant": "podcast", "id": 1}))
	var reply map[string]interface{}
	for {
		require.NoError(t, conn.ReadJSON(&reply))
		if reply["type"] != "unsubscribed" {
			break
		}
	}
	assert.Equal(t, "error", reply["type"])
}

func TestDisconnectLeavesRoom(t *testing.T) {
	hub, srv := startHub(t)
	room := model.RoomKey(model.VariantPaper, 1)

	conn := dial(t, srv, "?variant=paper&id=1")
	require.Eventually(t, func() bool { return hub.RoomSize(room) == 1 }, time.Second, 10*time.Millisecond)

	conn.Close()
	require.Eventually(t, func() bool { return hub.RoomSize(room) == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestUnknownRoomRejected(t *testing.T) {
	_, srv := startHub(t)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?variant=podcast&id=1"

	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
