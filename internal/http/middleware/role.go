package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/household-backend/internal/domain/valueobject"
	"github.com/ignatzorin/household-backend/internal/http/response"
)

// RequireRole пропускает только пользователей с одной из ролей. Ставится после AuthMiddleware.
func RequireRole(roles ...valueobject.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := ActorFromContext(c)
		if !ok {
			response.Unauthorized(c, "требуется авторизация")
			return
		}
		for _, role := range roles {
			if actor.Role == role {
				c.Next()
				return
			}
		}
		response.Forbidden(c, "недостаточно прав")
	}
}
