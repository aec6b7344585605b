package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/household-backend/internal/dto"
	"github.com/ignatzorin/household-backend/internal/http/response"
	"github.com/ignatzorin/household-backend/internal/service"
)

// CatalogHandler обслуживает каталог услуг.
type CatalogHandler struct {
	catalog *service.CatalogService
}

// NewCatalogHandler создаёт хэндлер.
func NewCatalogHandler(catalog *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// List обрабатывает GET /services. С ?available=true только услуги с проверенными специалистами.
func (h *CatalogHandler) List(c *gin.Context) {
	ctx := c.Request.Context()
	list, err := h.catalog.List(ctx)
	if c.Query("available") == "true" {
		list, err = h.catalog.ListAvailable(ctx)
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, list)
}

// Get обрабатывает GET /services/:id.
func (h *CatalogHandler) Get(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	svc, err := h.catalog.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, svc)
}

// Create обрабатывает POST /admin/services.
func (h *CatalogHandler) Create(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var req dto.ServiceRequestBody
	if !bindJSON(c, &req) {
		return
	}

	svc, err := h.catalog.Create(c.Request.Context(), actor, serviceInput(req))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, svc)
}

// Update обрабатывает PUT /admin/services/:id.
func (h *CatalogHandler) Update(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req dto.ServiceRequestBody
	if !bindJSON(c, &req) {
		return
	}

	svc, err := h.catalog.Update(c.Request.Context(), actor, id, serviceInput(req))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, svc)
}

// Delete обрабатывает DELETE /admin/services/:id.
func (h *CatalogHandler) Delete(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	result, err := h.catalog.Delete(c.Request.Context(), actor, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

func serviceInput(req dto.ServiceRequestBody) service.ServiceInput {
	in := service.ServiceInput{
		Name:              req.Name,
		Description:       req.Description,
		EstimatedDuration: req.EstimatedDuration,
		Location:          req.Location,
	}
	if req.BasePrice != nil {
		in.BasePrice = *req.BasePrice
	}
	return in
}
