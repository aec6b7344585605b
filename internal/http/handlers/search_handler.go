package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/household-backend/internal/dto"
	"github.com/ignatzorin/household-backend/internal/http/response"
	"github.com/ignatzorin/household-backend/internal/service"
)

type SearchHandler struct {
	search *service.SearchService
}

func NewSearchHandler(search *service.SearchService) *SearchHandler {
	return &SearchHandler{search: search}
}

// Search обрабатывает GET /{role}/search?entity=&field=&q=.
func (h *SearchHandler) Search(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var q dto.SearchQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, "параметр entity обязателен")
		return
	}

	result, err := h.search.Find(c.Request.Context(), actor, q.Entity, q.Field, q.Q)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}
