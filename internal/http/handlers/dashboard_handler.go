package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/household-backend/internal/http/response"
	"github.com/ignatzorin/household-backend/internal/service"
)

// DashboardHandler отдаёт панели и сводки по ролям.
type DashboardHandler struct {
	dashboards *service.DashboardService
	summaries  *service.SummaryService
}

func NewDashboardHandler(dashboards *service.DashboardService, summaries *service.SummaryService) *DashboardHandler {
	return &DashboardHandler{dashboards: dashboards, summaries: summaries}
}

// Admin обрабатывает GET /admin/dashboard.
func (h *DashboardHandler) Admin(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	dash, err := h.dashboards.Admin(c.Request.Context(), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dash)
}

// Customer обрабатывает GET /customer/dashboard.
func (h *DashboardHandler) Customer(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	dash, err := h.dashboards.Customer(c.Request.Context(), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dash)
}

// Professional обрабатывает GET /professional/dashboard.
func (h *DashboardHandler) Professional(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	dash, err := h.dashboards.Professional(c.Request.Context(), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dash)
}

// ProfessionalProfile обрабатывает GET /customer/professionals/:id.
func (h *DashboardHandler) ProfessionalProfile(c *gin.Context) {
	actor, id, ok := actorAndID(c)
	if !ok {
		return
	}
	profile, err := h.dashboards.ProfessionalProfile(c.Request.Context(), actor, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, profile)
}

// AdminSummary обрабатывает GET /admin/summary.
func (h *DashboardHandler) AdminSummary(c *gin.Context) {
	summary, err := h.summaries.AdminSummary(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, summary)
}

// CustomerSummary обрабатывает GET /customer/summary.
func (h *DashboardHandler) CustomerSummary(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	summary, err := h.summaries.CustomerSummary(c.Request.Context(), actor.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, summary)
}

// ProfessionalSummary обрабатывает GET /professional/summary.
func (h *DashboardHandler) ProfessionalSummary(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	summary, err := h.summaries.ProfessionalSummary(c.Request.Context(), actor.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, summary)
}
