package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/household-backend/internal/dto"
	"github.com/ignatzorin/household-backend/internal/http/response"
	"github.com/ignatzorin/household-backend/internal/models"
	"github.com/ignatzorin/household-backend/internal/service"
)

// Authenticator - операции регистрации и входа.
type Authenticator interface {
	RegisterCustomer(ctx context.Context, in service.RegisterInput) (*models.User, error)
	RegisterProfessional(ctx context.Context, in service.RegisterProfessionalInput) (*models.User, error)
	Login(ctx context.Context, username, password string) (*service.AuthResult, error)
	Refresh(ctx context.Context, refreshToken string) (*service.AuthResult, error)
	Me(ctx context.Context, userID uuid.UUID) (*models.User, error)
}

// AuthHandler предоставляет HTTP слой для регистрации и логина.
type AuthHandler struct {
	auth        Authenticator
	maxUploadMB int64
}

// NewAuthHandler создаёт хэндлер.
func NewAuthHandler(auth Authenticator, maxUploadMB int64) *AuthHandler {
	return &AuthHandler{auth: auth, maxUploadMB: maxUploadMB}
}

// RegisterCustomer обрабатывает POST /auth/register/customer.
func (h *AuthHandler) RegisterCustomer(c *gin.Context) {
	var req dto.RegisterCustomerRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.auth.RegisterCustomer(c.Request.Context(), service.RegisterInput{
		Username:    req.Username,
		Password:    req.Password,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
		Address:     req.Address,
		Pincode:     req.Pincode,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, user)
}

// RegisterProfessional обрабатывает multipart POST /auth/register/professional.
func (h *AuthHandler) RegisterProfessional(c *gin.Context) {
	if h.maxUploadMB > 0 {
		// запас на остальные поля формы
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, (h.maxUploadMB+1)<<20)
	}

	var form dto.RegisterProfessionalForm
	if err := c.ShouldBind(&form); err != nil {
		response.BadRequest(c, "неверный формат формы: "+err.Error())
		return
	}
	serviceID, err := uuid.Parse(form.ServiceID)
	if err != nil {
		response.BadRequest(c, "service_id должен быть валидным UUID")
		return
	}

	header, err := c.FormFile("document")
	if err != nil {
		response.BadRequest(c, "документ обязателен")
		return
	}
	file, err := header.Open()
	if err != nil {
		response.BadRequest(c, "не удалось прочитать документ")
		return
	}
	defer file.Close()

	user, err := h.auth.RegisterProfessional(c.Request.Context(), service.RegisterProfessionalInput{
		RegisterInput: service.RegisterInput{
			Username:    form.Username,
			Password:    form.Password,
			Email:       form.Email,
			PhoneNumber: form.PhoneNumber,
			Address:     form.Address,
			Pincode:     form.Pincode,
		},
		ServiceID:    serviceID,
		Experience:   form.Experience,
		DocumentName: header.Filename,
		Document:     file,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, user)
}

// Login обрабатывает POST /auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// Refresh обрабатывает POST /auth/refresh.
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req dto.RefreshRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.auth.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// Me обрабатывает GET /me.
func (h *AuthHandler) Me(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	user, err := h.auth.Me(c.Request.Context(), actor.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, user)
}
