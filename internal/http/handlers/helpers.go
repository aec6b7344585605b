package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/household-backend/internal/http/middleware"
	"github.com/ignatzorin/household-backend/internal/http/response"
	"github.com/ignatzorin/household-backend/internal/service"
)

// currentActor извлекает пользователя из контекста. При отсутствии пишет 401.
func currentActor(c *gin.Context) (service.Actor, bool) {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		response.Unauthorized(c, "требуется авторизация")
		return service.Actor{}, false
	}
	return actor, true
}

// uuidParam разбирает UUID из параметра пути. При ошибке пишет 400.
func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.BadRequest(c, "параметр "+name+" должен быть валидным UUID")
		return uuid.Nil, false
	}
	return id, true
}

// bindJSON разбирает тело запроса. При ошибке пишет 400.
func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		response.BadRequest(c, "неверный формат запроса: "+err.Error())
		return false
	}
	return true
}
