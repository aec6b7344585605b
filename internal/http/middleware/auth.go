package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/household-backend/internal/domain/valueobject"
	"github.com/ignatzorin/household-backend/internal/http/response"
	"github.com/ignatzorin/household-backend/internal/service"
)

// Context ключи для gin.Context.
const (
	ContextUserIDKey = "userID"
	ContextRoleKey   = "role"
)

// AccessTokenParser разбирает access токен.
type AccessTokenParser interface {
	ParseAccess(token string) (uuid.UUID, valueobject.Role, error)
}

// AuthMiddleware проверяет JWT access токен из заголовка Authorization.
func AuthMiddleware(tokens AccessTokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
			response.Unauthorized(c, "требуется авторизация")
			return
		}

		if !authenticate(c, tokens, strings.TrimPrefix(auth, "Bearer ")) {
			return
		}
		c.Next()
	}
}

// QueryTokenMiddleware берёт токен из параметра token. Браузерный WebSocket не умеет слать заголовки.
func QueryTokenMiddleware(tokens AccessTokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.Query("token")
		if raw == "" {
			response.Unauthorized(c, "требуется авторизация")
			return
		}
		if !authenticate(c, tokens, raw) {
			return
		}
		c.Next()
	}
}

func authenticate(c *gin.Context, tokens AccessTokenParser, raw string) bool {
	userID, role, err := tokens.ParseAccess(raw)
	if err != nil || userID == uuid.Nil {
		response.Unauthorized(c, "токен невалиден")
		return false
	}

	c.Set(ContextUserIDKey, userID)
	c.Set(ContextRoleKey, role)
	return true
}

// ActorFromContext возвращает пользователя, установленного AuthMiddleware.
func ActorFromContext(c *gin.Context) (service.Actor, bool) {
	rawID, ok := c.Get(ContextUserIDKey)
	if !ok {
		return service.Actor{}, false
	}
	userID, ok := rawID.(uuid.UUID)
	if !ok {
		return service.Actor{}, false
	}
	rawRole, _ := c.Get(ContextRoleKey)
	role, ok := rawRole.(valueobject.Role)
	if !ok {
		return service.Actor{}, false
	}
	return service.NewActor(userID, role), true
}
