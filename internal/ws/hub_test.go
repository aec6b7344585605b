package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) (*Hub, context.CancelFunc) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(ctx)
	go hub.Run()
	t.Cleanup(cancel)
	return hub, cancel
}

func dial(t *testing.T, hub *Hub, userID uuid.UUID) *websocket.Conn {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		NewClient(conn, hub, userID).Run(context.Background())
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestHub_BroadcastToUser(t *testing.T) {
	hub, _ := startHub(t)
	userID := uuid.New()
	conn := dial(t, hub, userID)

	require.Eventually(t, func() bool { return hub.Connected(userID) == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, hub.BroadcastToUser(userID, "request.accepted", map[string]string{"id": "42"}))
	// чужой пользователь ничего не получает
	require.NoError(t, hub.BroadcastToUser(uuid.New(), "request.accepted", nil))

	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)

	var got struct {
		Type string            `json:"type"`
		Data map[string]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, "request.accepted", got.Type)
	assert.Equal(t, "42", got.Data["id"])
}

func TestHub_UnregistersOnDisconnect(t *testing.T) {
	hub, _ := startHub(t)
	userID := uuid.New()
	conn := dial(t, hub, userID)

	require.Eventually(t, func() bool { return hub.Connected(userID) == 1 }, time.Second, 5*time.Millisecond)
	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return hub.Connected(userID) == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHub_BroadcastAfterStop(t *testing.T) {
	hub, cancel := startHub(t)
	cancel()

	// буфер может принять несколько сообщений, но в итоге хаб сообщает об остановке
	var err error
	for i := 0; i < 64 && err == nil; i++ {
		err = hub.BroadcastToUser(uuid.New(), "ping", nil)
	}
	assert.ErrorIs(t, err, ErrHubStopped)
}
