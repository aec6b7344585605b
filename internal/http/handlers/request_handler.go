package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/household-backend/internal/domain/valueobject"
	"github.com/ignatzorin/household-backend/internal/dto"
	"github.com/ignatzorin/household-backend/internal/http/response"
	"github.com/ignatzorin/household-backend/internal/models"
	"github.com/ignatzorin/household-backend/internal/service"
)

// RequestLifecycle - операции жизненного цикла заявок и откликов.
type RequestLifecycle interface {
	CreatePrivateRequest(ctx context.Context, actor service.Actor, in service.CreatePrivateRequestInput) (*models.ServiceRequest, error)
	CreateOpenRequest(ctx context.Context, actor service.Actor, serviceID uuid.UUID, description *string) (*models.ServiceRequest, error)
	SubmitBid(ctx context.Context, actor service.Actor, openRequestID uuid.UUID, description *string) (*models.ServiceRequest, error)
	AcceptRequest(ctx context.Context, actor service.Actor, requestID uuid.UUID) (*models.ServiceRequest, error)
	RejectRequest(ctx context.Context, actor service.Actor, requestID uuid.UUID) (*models.ServiceRequest, error)
	AcceptBid(ctx context.Context, actor service.Actor, bidID uuid.UUID) (*models.ServiceRequest, error)
	RejectBid(ctx context.Context, actor service.Actor, bidID uuid.UUID) error
	CloseRequest(ctx context.Context, actor service.Actor, requestID uuid.UUID, in service.CloseRequestInput) (*models.ServiceRequest, error)
	DeleteRequest(ctx context.Context, actor service.Actor, requestID uuid.UUID) error
	EditRequest(ctx context.Context, actor service.Actor, requestID uuid.UUID, description *string) (*models.ServiceRequest, error)
	GetRequest(ctx context.Context, actor service.Actor, requestID uuid.UUID) (*models.ServiceRequest, error)
	ListRequests(ctx context.Context, filter models.RequestFilter) ([]models.RequestDetails, error)
	OpenRequestsForProfessional(ctx context.Context, actor service.Actor) (*service.OpenRequestsView, error)
	BidsForCustomer(ctx context.Context, actor service.Actor) ([]models.RequestDetails, error)
}

// RequestHandler обслуживает заявки заказчиков и отклики специалистов.
type RequestHandler struct {
	requests RequestLifecycle
}

// NewRequestHandler создаёт хэндлер.
func NewRequestHandler(requests RequestLifecycle) *RequestHandler {
	return &RequestHandler{requests: requests}
}

// CreatePrivate обрабатывает POST /customer/requests.
func (h *RequestHandler) CreatePrivate(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var req dto.CreatePrivateRequest
	if !bindJSON(c, &req) {
		return
	}

	created, err := h.requests.CreatePrivateRequest(c.Request.Context(), actor, service.CreatePrivateRequestInput{
		ServiceID:      req.ServiceID,
		ProfessionalID: req.ProfessionalID,
		Description:    req.Description,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, created)
}

// CreateOpen обрабатывает POST /customer/requests/open.
func (h *RequestHandler) CreateOpen(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var req dto.CreateOpenRequest
	if !bindJSON(c, &req) {
		return
	}

	created, err := h.requests.CreateOpenRequest(c.Request.Context(), actor, req.ServiceID, req.Description)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, created)
}

// Edit обрабатывает PUT /customer/requests/:id.
func (h *RequestHandler) Edit(c *gin.Context) {
	actor, id, ok := actorAndID(c)
	if !ok {
		return
	}
	var req dto.EditRequestBody
	if !bindJSON(c, &req) {
		return
	}

	updated, err := h.requests.EditRequest(c.Request.Context(), actor, id, req.Description)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, updated)
}

// Delete обрабатывает DELETE /customer/requests/:id.
func (h *RequestHandler) Delete(c *gin.Context) {
	actor, id, ok := actorAndID(c)
	if !ok {
		return
	}
	if err := h.requests.DeleteRequest(c.Request.Context(), actor, id); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.MessageResponse{Message: "заявка удалена"})
}

// Close обрабатывает POST /customer/requests/:id/close.
func (h *RequestHandler) Close(c *gin.Context) {
	actor, id, ok := actorAndID(c)
	if !ok {
		return
	}
	var req dto.CloseRequestBody
	if !bindJSON(c, &req) {
		return
	}

	closed, err := h.requests.CloseRequest(c.Request.Context(), actor, id, service.CloseRequestInput{
		Rating:   *req.Rating,
		Feedback: req.Feedback,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.NewRequestResponse(closed, "closed"))
}

// Get обрабатывает GET /requests/:id.
func (h *RequestHandler) Get(c *gin.Context) {
	actor, id, ok := actorAndID(c)
	if !ok {
		return
	}
	req, err := h.requests.GetRequest(c.Request.Context(), actor, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, req)
}

// List обрабатывает GET /customer/requests и GET /admin/requests.
// Заказчик видит только свои заявки.
func (h *RequestHandler) List(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var q dto.RequestListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, "неверные параметры запроса")
		return
	}

	filter := models.RequestFilter{}
	if q.Status != "" {
		status, err := valueobject.NewRequestStatus(q.Status)
		if err != nil {
			response.Error(c, err)
			return
		}
		filter.Status = &status
	}
	if q.Type != "" {
		requestType, err := valueobject.NewRequestType(q.Type)
		if err != nil {
			response.Error(c, err)
			return
		}
		filter.RequestType = &requestType
	}

	switch {
	case actor.IsAdmin():
	case actor.IsCustomer():
		filter.CustomerID = &actor.ID
	case actor.IsProfessional():
		filter.ProfessionalID = &actor.ID
	}

	list, err := h.requests.ListRequests(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, list)
}

// Bids обрабатывает GET /customer/bids.
func (h *RequestHandler) Bids(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	bids, err := h.requests.BidsForCustomer(c.Request.Context(), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, bids)
}

// AcceptBid обрабатывает POST /customer/bids/:id/accept.
func (h *RequestHandler) AcceptBid(c *gin.Context) {
	actor, id, ok := actorAndID(c)
	if !ok {
		return
	}
	accepted, err := h.requests.AcceptBid(c.Request.Context(), actor, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.NewRequestResponse(accepted, "accepted"))
}

// RejectBid обрабатывает POST /customer/bids/:id/reject.
func (h *RequestHandler) RejectBid(c *gin.Context) {
	actor, id, ok := actorAndID(c)
	if !ok {
		return
	}
	if err := h.requests.RejectBid(c.Request.Context(), actor, id); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.MessageResponse{Message: "отклик отклонён"})
}

// OpenRequests обрабатывает GET /professional/open-requests.
func (h *RequestHandler) OpenRequests(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	view, err := h.requests.OpenRequestsForProfessional(c.Request.Context(), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, view)
}

// SubmitBid обрабатывает POST /professional/open-requests/:id/bid.
func (h *RequestHandler) SubmitBid(c *gin.Context) {
	actor, id, ok := actorAndID(c)
	if !ok {
		return
	}
	var req dto.SubmitBidRequest
	// тело необязательно
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}

	bid, err := h.requests.SubmitBid(c.Request.Context(), actor, id, req.Description)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, bid)
}

// Accept обрабатывает POST /professional/requests/:id/accept.
func (h *RequestHandler) Accept(c *gin.Context) {
	actor, id, ok := actorAndID(c)
	if !ok {
		return
	}
	accepted, err := h.requests.AcceptRequest(c.Request.Context(), actor, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.NewRequestResponse(accepted, "accepted"))
}

// Reject обрабатывает POST /professional/requests/:id/reject.
func (h *RequestHandler) Reject(c *gin.Context) {
	actor, id, ok := actorAndID(c)
	if !ok {
		return
	}
	rejected, err := h.requests.RejectRequest(c.Request.Context(), actor, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.NewRequestResponse(rejected, "rejected"))
}

func actorAndID(c *gin.Context) (service.Actor, uuid.UUID, bool) {
	actor, ok := currentActor(c)
	if !ok {
		return service.Actor{}, uuid.Nil, false
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return service.Actor{}, uuid.Nil, false
	}
	return actor, id, true
}
