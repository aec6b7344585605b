package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/ignatzorin/household-backend/internal/logger"
	"github.com/ignatzorin/household-backend/internal/ws"
)

// WSHandler отвечает за установку WebSocket соединений.
type WSHandler struct {
	hub      *ws.Hub
	upgrader websocket.Upgrader
}

// NewWSHandler создаёт хэндлер. Origin проверяется по тому же списку, что и CORS.
func NewWSHandler(hub *ws.Hub, allowedOrigins []string) *WSHandler {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[origin] = struct{}{}
	}

	return &WSHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				_, ok := allowed[origin]
				return ok
			},
		},
	}
}

// Handle обслуживает GET /api/ws?token=... Токен проверяет QueryTokenMiddleware.
func (h *WSHandler) Handle(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade сам пишет ответ с ошибкой
		logger.Log.WithField("user_id", actor.ID).Warnf("ws handler: upgrade не удался: %v", err)
		return
	}

	ws.NewClient(conn, h.hub, actor.ID).Run(c.Request.Context())
}
