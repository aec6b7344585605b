package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/ignatzorin/household-backend/internal/goroutine"
	"github.com/ignatzorin/household-backend/internal/logger"
)

// ErrHubStopped возвращается, когда хаб уже остановлен.
var ErrHubStopped = errors.New("ws: хаб остановлен")

// Hub управляет всеми WebSocket клиентами.
type Hub struct {
	mu         sync.RWMutex
	clients    map[uuid.UUID]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan message
	ctx        context.Context
}

type message struct {
	userID  uuid.UUID
	payload []byte
}

// Event - сообщение для клиента: "type" содержит имя события, "data" полезную нагрузку.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// NewHub создаёт новый хаб. Хаб работает, пока не отменён ctx.
func NewHub(ctx context.Context) *Hub {
	return &Hub{
		clients:    make(map[uuid.UUID]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan message, 32),
		ctx:        ctx,
	}
}

// Run запускает главный цикл хаба.
func (h *Hub) Run() {
	for {
		select {
		case <-h.ctx.Done():
			h.closeAll()
			return
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case msg := <-h.broadcast:
			h.send(msg.userID, msg.payload)
		}
	}
}

// Register добавляет клиента.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.ctx.Done():
	}
}

// Unregister удаляет клиента.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.ctx.Done():
	}
}

// BroadcastToUser отправляет событие всем подключениям пользователя.
// Пользователь без подключений событие не получит, история не хранится.
func (h *Hub) BroadcastToUser(userID uuid.UUID, event string, data any) error {
	raw, err := json.Marshal(Event{Type: event, Data: data})
	if err != nil {
		return fmt.Errorf("ws: не удалось сериализовать сообщение: %w", err)
	}

	select {
	case h.broadcast <- message{userID: userID, payload: raw}:
		return nil
	case <-h.ctx.Done():
		return ErrHubStopped
	}
}

// Connected возвращает число активных подключений пользователя.
func (h *Hub) Connected(userID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.userID]; !ok {
		h.clients[client.userID] = make(map[*Client]struct{})
	}
	h.clients[client.userID][client] = struct{}{}
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, ok := h.clients[client.userID]; ok {
		if _, ok := clients[client]; ok {
			delete(clients, client)
			client.closeSend()
		}
		if len(clients) == 0 {
			delete(h.clients, client.userID)
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for userID, clients := range h.clients {
		for client := range clients {
			client.closeSend()
		}
		delete(h.clients, userID)
	}
}

func (h *Hub) send(userID uuid.UUID, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients[userID] {
		select {
		case client.send <- payload:
		default:
			// медленный клиент отключается
			logger.Component("ws").WithField("user_id", userID).Warn("ws: буфер клиента переполнен, соединение закрыто")
			c := client
			goroutine.SafeGo(c.Close)
		}
	}
}
