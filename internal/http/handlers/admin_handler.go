package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/household-backend/internal/dto"
	"github.com/ignatzorin/household-backend/internal/http/response"
	"github.com/ignatzorin/household-backend/internal/logger"
	"github.com/ignatzorin/household-backend/internal/service"
	"github.com/ignatzorin/household-backend/internal/storage"
)

// AdminHandler - модерация специалистов и пользователей.
type AdminHandler struct {
	admin *service.AdminService
}

func NewAdminHandler(admin *service.AdminService) *AdminHandler {
	return &AdminHandler{admin: admin}
}

// GetProfessional обрабатывает GET /admin/professionals/:id.
func (h *AdminHandler) GetProfessional(c *gin.Context) {
	actor, id, ok := actorAndID(c)
	if !ok {
		return
	}
	professional, err := h.admin.GetProfessional(c.Request.Context(), actor, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, professional)
}

// Approve обрабатывает POST /admin/professionals/:id/approve.
func (h *AdminHandler) Approve(c *gin.Context) {
	actor, id, ok := actorAndID(c)
	if !ok {
		return
	}
	if err := h.admin.ApproveProfessional(c.Request.Context(), actor, id); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.MessageResponse{Message: "специалист подтверждён"})
}

// Reject обрабатывает POST /admin/professionals/:id/reject.
func (h *AdminHandler) Reject(c *gin.Context) {
	actor, id, ok := actorAndID(c)
	if !ok {
		return
	}
	if err := h.admin.RejectProfessional(c.Request.Context(), actor, id); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.MessageResponse{Message: "специалист отклонён и удалён"})
}

// Block обрабатывает POST /admin/users/:id/block.
func (h *AdminHandler) Block(c *gin.Context) {
	actor, id, ok := actorAndID(c)
	if !ok {
		return
	}
	if err := h.admin.BlockUser(c.Request.Context(), actor, id); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.MessageResponse{Message: "пользователь заблокирован"})
}

// Unblock обрабатывает POST /admin/users/:id/unblock.
func (h *AdminHandler) Unblock(c *gin.Context) {
	actor, id, ok := actorAndID(c)
	if !ok {
		return
	}
	if err := h.admin.UnblockUser(c.Request.Context(), actor, id); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.MessageResponse{Message: "пользователь разблокирован"})
}

// Document обрабатывает GET /admin/professionals/:id/document.
func (h *AdminHandler) Document(c *gin.Context) {
	actor, id, ok := actorAndID(c)
	if !ok {
		return
	}
	doc, err := h.admin.ProfessionalDocument(c.Request.Context(), actor, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	writeDocument(c, doc)
}

// OwnDocument обрабатывает GET /professional/document.
func (h *AdminHandler) OwnDocument(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	doc, err := h.admin.ProfessionalDocument(c.Request.Context(), actor, actor.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	writeDocument(c, doc)
}

// writeDocument отдаёт PDF потоком или ссылкой, если хранилище выдало URL.
func writeDocument(c *gin.Context, doc *storage.Document) {
	if doc.Body == nil {
		if c.Query("redirect") == "true" {
			c.Redirect(http.StatusFound, doc.URL)
			return
		}
		response.Success(c, dto.DocumentLinkResponse{URL: doc.URL})
		return
	}
	defer doc.Body.Close()

	c.Header("Content-Type", "application/pdf")
	c.Header("Content-Disposition", "inline")
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, doc.Body); err != nil {
		logger.Log.WithField("path", c.Request.URL.Path).Warnf("admin handler: обрыв при отдаче документа: %v", err)
	}
}
