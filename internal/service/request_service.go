package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/household-backend/internal/domain/valueobject"
	"github.com/ignatzorin/household-backend/internal/goroutine"
	"github.com/ignatzorin/household-backend/internal/logger"
	"github.com/ignatzorin/household-backend/internal/models"
	"github.com/ignatzorin/household-backend/internal/pkg/apperror"
	"github.com/ignatzorin/household-backend/internal/validation"
)

// RequestRepository описывает хранилище заявок, необходимое движку жизненного цикла.
type RequestRepository interface {
	Create(ctx context.Context, req *models.ServiceRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.ServiceRequest, error)
	UpdateStatus(ctx context.Context, req *models.ServiceRequest, to valueobject.RequestStatus) error
	UpdateDescription(ctx context.Context, req *models.ServiceRequest, description *string) error
	AcceptBid(ctx context.Context, req *models.ServiceRequest) (int64, error)
	Close(ctx context.Context, req *models.ServiceRequest, rating float64, feedback *string, closedOn time.Time) (*valueobject.RatingAggregate, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DeletePendingBid(ctx context.Context, req *models.ServiceRequest) error
	ExistsPendingBid(ctx context.Context, serviceID, customerID, professionalID uuid.UUID) (bool, error)
	ExistsAccepted(ctx context.Context, serviceID, customerID, professionalID uuid.UUID) (bool, error)
	List(ctx context.Context, filter models.RequestFilter) ([]models.RequestDetails, error)
}

// UserReader читает пользователей.
type UserReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	ListProfessionalsByService(ctx context.Context, serviceID uuid.UUID) ([]models.User, error)
}

// ServiceReader читает каталог услуг.
type ServiceReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Service, error)
}

// Notifier доставляет события пользователю. Реализуется WebSocket хабом.
type Notifier interface {
	BroadcastToUser(userID uuid.UUID, event string, data any) error
}

// RequestService - движок жизненного цикла заявок и откликов.
type RequestService struct {
	requests RequestRepository
	users    UserReader
	services ServiceReader
	notifier Notifier
	cache    *CacheService
	now      func() time.Time
	dispatch func(func())
}

// NewRequestService создаёт сервис заявок.
func NewRequestService(requests RequestRepository, users UserReader, services ServiceReader) *RequestService {
	return &RequestService{
		requests: requests,
		users:    users,
		services: services,
		now:      time.Now,
		dispatch: goroutine.SafeGo,
	}
}

// SetNotifier подключает доставку событий.
func (s *RequestService) SetNotifier(n Notifier) {
	s.notifier = n
}

// SetCache подключает кэш сводок, который сбрасывается при изменении заявок.
func (s *RequestService) SetCache(c *CacheService) {
	s.cache = c
}

// CreatePrivateRequestInput - адресная заявка конкретному специалисту.
type CreatePrivateRequestInput struct {
	ServiceID      uuid.UUID
	ProfessionalID uuid.UUID
	Description    *string
}

// CreatePrivateRequest создаёт адресную заявку специалисту.
func (s *RequestService) CreatePrivateRequest(ctx context.Context, actor Actor, in CreatePrivateRequestInput) (*models.ServiceRequest, error) {
	if err := actor.require(valueobject.RoleCustomer); err != nil {
		return nil, err
	}
	if err := validation.ValidateRequestDescription(in.Description); err != nil {
		return nil, apperror.Validation(err)
	}

	if _, err := s.services.GetByID(ctx, in.ServiceID); err != nil {
		return nil, err
	}

	professional, err := s.users.GetByID(ctx, in.ProfessionalID)
	if err != nil {
		return nil, err
	}
	if !professional.IsActiveProfessional() || *professional.ServiceID != in.ServiceID {
		return nil, apperror.New(apperror.ErrCodeNotFound, "специалист не оказывает эту услугу")
	}

	req := &models.ServiceRequest{
		ServiceID:      in.ServiceID,
		CustomerID:     actor.ID,
		ProfessionalID: &professional.ID,
		RequestType:    valueobject.RequestTypePrivate,
		Status:         valueobject.RequestStatusPending,
		Description:    in.Description,
	}
	if err := s.requests.Create(ctx, req); err != nil {
		return nil, err
	}

	s.notify(professional.ID, models.EventRequestCreated, req)
	s.invalidate(actor.ID, professional.ID)
	return req, nil
}

// CreateOpenRequest создаёт открытую заявку без специалиста.
func (s *RequestService) CreateOpenRequest(ctx context.Context, actor Actor, serviceID uuid.UUID, description *string) (*models.ServiceRequest, error) {
	if err := actor.require(valueobject.RoleCustomer); err != nil {
		return nil, err
	}
	if err := validation.ValidateRequestDescription(description); err != nil {
		return nil, apperror.Validation(err)
	}

	if _, err := s.services.GetByID(ctx, serviceID); err != nil {
		return nil, err
	}

	req := &models.ServiceRequest{
		ServiceID:   serviceID,
		CustomerID:  actor.ID,
		RequestType: valueobject.RequestTypePublic,
		Status:      valueobject.RequestStatusPending,
		Description: description,
	}
	if err := s.requests.Create(ctx, req); err != nil {
		return nil, err
	}

	s.notifyServiceProfessionals(ctx, serviceID, req)
	s.invalidate(actor.ID)
	return req, nil
}

// SubmitBid создаёт отклик специалиста на открытую заявку.
func (s *RequestService) SubmitBid(ctx context.Context, actor Actor, openRequestID uuid.UUID, description *string) (*models.ServiceRequest, error) {
	if err := actor.require(valueobject.RoleProfessional); err != nil {
		return nil, err
	}
	if err := validation.ValidateRequestDescription(description); err != nil {
		return nil, apperror.Validation(err)
	}

	professional, err := s.activeProfessional(ctx, actor.ID)
	if err != nil {
		return nil, err
	}

	open, err := s.requests.GetByID(ctx, openRequestID)
	if err != nil {
		return nil, err
	}
	if !open.IsOpenCall() {
		return nil, apperror.New(apperror.ErrCodeInvalidState, "заявка не принимает отклики")
	}
	if open.ServiceID != *professional.ServiceID {
		return nil, apperror.New(apperror.ErrCodeForbidden, "заявка относится к другой услуге")
	}

	exists, err := s.requests.ExistsPendingBid(ctx, open.ServiceID, open.CustomerID, actor.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperror.ErrDuplicateBid
	}

	bid := &models.ServiceRequest{
		ServiceID:      open.ServiceID,
		CustomerID:     open.CustomerID,
		ProfessionalID: &professional.ID,
		RequestType:    valueobject.RequestTypePublic,
		Status:         valueobject.RequestStatusPending,
		Description:    description,
	}
	if err := s.requests.Create(ctx, bid); err != nil {
		return nil, err
	}

	s.notify(open.CustomerID, models.EventBidSubmitted, bid)
	s.invalidate(open.CustomerID, actor.ID)
	return bid, nil
}

// AcceptRequest - специалист принимает адресную заявку.
func (s *RequestService) AcceptRequest(ctx context.Context, actor Actor, requestID uuid.UUID) (*models.ServiceRequest, error) {
	return s.answerPrivate(ctx, actor, requestID, valueobject.RequestStatusAccepted, models.EventRequestAccepted)
}

// RejectRequest - специалист отклоняет адресную заявку. Строка сохраняется.
func (s *RequestService) RejectRequest(ctx context.Context, actor Actor, requestID uuid.UUID) (*models.ServiceRequest, error) {
	return s.answerPrivate(ctx, actor, requestID, valueobject.RequestStatusRejected, models.EventRequestRejected)
}

func (s *RequestService) answerPrivate(ctx context.Context, actor Actor, requestID uuid.UUID, to valueobject.RequestStatus, event string) (*models.ServiceRequest, error) {
	if err := actor.require(valueobject.RoleProfessional); err != nil {
		return nil, err
	}

	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !req.AssignedTo(actor.ID) {
		return nil, apperror.ErrForbidden
	}
	if req.RequestType != valueobject.RequestTypePrivate {
		return nil, apperror.New(apperror.ErrCodeInvalidState, "отклики на открытые заявки принимает заказчик")
	}
	if req.Status != valueobject.RequestStatusPending || !req.Status.CanTransitionTo(to) {
		return nil, apperror.New(apperror.ErrCodeInvalidState, "заявка уже обработана")
	}
	if to == valueobject.RequestStatusAccepted {
		if err := s.ensureNotAccepted(ctx, req.ServiceID, req.CustomerID, actor.ID); err != nil {
			return nil, err
		}
	}

	if err := s.requests.UpdateStatus(ctx, req, to); err != nil {
		return nil, err
	}

	s.notify(req.CustomerID, event, req)
	s.invalidate(req.CustomerID, actor.ID)
	return req, nil
}

// AcceptBid - заказчик выбирает отклик. Остальные ожидающие публичные строки услуги удаляются.
func (s *RequestService) AcceptBid(ctx context.Context, actor Actor, bidID uuid.UUID) (*models.ServiceRequest, error) {
	req, err := s.ownedPendingBid(ctx, actor, bidID)
	if err != nil {
		return nil, err
	}
	if err := s.ensureNotAccepted(ctx, req.ServiceID, req.CustomerID, *req.ProfessionalID); err != nil {
		return nil, err
	}

	// Удаляемые строки нужны только для уведомлений после коммита.
	competitors, err := s.requests.List(ctx, models.RequestFilter{
		ServiceID:   &req.ServiceID,
		Status:      statusPtr(valueobject.RequestStatusPending),
		RequestType: typePtr(valueobject.RequestTypePublic),
	})
	if err != nil {
		return nil, err
	}

	deleted, err := s.requests.AcceptBid(ctx, req)
	if err != nil {
		return nil, err
	}

	logger.Log.WithFields(logrus.Fields{
		"request_id": req.ID,
		"service_id": req.ServiceID,
		"deleted":    deleted,
	}).Info("request service: отклик принят")

	s.notify(*req.ProfessionalID, models.EventBidAccepted, req)
	affected := []uuid.UUID{req.CustomerID, *req.ProfessionalID}
	for i := range competitors {
		c := competitors[i]
		if c.ID == req.ID {
			continue
		}
		affected = append(affected, c.CustomerID)
		switch {
		case c.ProfessionalID != nil:
			s.notify(*c.ProfessionalID, models.EventBidRejected, &c.ServiceRequest)
			affected = append(affected, *c.ProfessionalID)
		case c.CustomerID != req.CustomerID:
			// открытая заявка другого заказчика той же услуги тоже удалена
			s.notify(c.CustomerID, models.EventRequestDeleted, &c.ServiceRequest)
		}
	}
	s.invalidate(affected...)
	return req, nil
}

// RejectBid - заказчик отклоняет отклик. Строка отклика удаляется.
func (s *RequestService) RejectBid(ctx context.Context, actor Actor, bidID uuid.UUID) error {
	req, err := s.ownedPendingBid(ctx, actor, bidID)
	if err != nil {
		return err
	}

	if err := s.requests.DeletePendingBid(ctx, req); err != nil {
		return err
	}

	s.notify(*req.ProfessionalID, models.EventBidRejected, req)
	s.invalidate(actor.ID, *req.ProfessionalID)
	return nil
}

// ensureNotAccepted не даёт принять вторую заявку для той же тройки (услуга, заказчик, специалист).
func (s *RequestService) ensureNotAccepted(ctx context.Context, serviceID, customerID, professionalID uuid.UUID) error {
	exists, err := s.requests.ExistsAccepted(ctx, serviceID, customerID, professionalID)
	if err != nil {
		return err
	}
	if exists {
		return apperror.ErrAlreadyAccepted
	}
	return nil
}

func (s *RequestService) ownedPendingBid(ctx context.Context, actor Actor, bidID uuid.UUID) (*models.ServiceRequest, error) {
	if err := actor.require(valueobject.RoleCustomer); err != nil {
		return nil, err
	}

	req, err := s.requests.GetByID(ctx, bidID)
	if err != nil {
		return nil, err
	}
	if req.CustomerID != actor.ID {
		return nil, apperror.ErrForbidden
	}
	if !req.IsPendingBid() {
		return nil, apperror.New(apperror.ErrCodeInvalidState, "отклик уже обработан или не является откликом")
	}
	return req, nil
}

// CloseRequestInput - оценка работы при закрытии заявки.
type CloseRequestInput struct {
	Rating   float64
	Feedback *string
}

// CloseRequest закрывает принятую заявку и пересчитывает рейтинг специалиста.
func (s *RequestService) CloseRequest(ctx context.Context, actor Actor, requestID uuid.UUID, in CloseRequestInput) (*models.ServiceRequest, error) {
	if err := actor.require(valueobject.RoleCustomer); err != nil {
		return nil, err
	}
	if err := valueobject.ValidateRating(in.Rating); err != nil {
		return nil, err
	}
	if err := validation.ValidateFeedback(in.Feedback); err != nil {
		return nil, apperror.Validation(err)
	}

	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.CustomerID != actor.ID {
		return nil, apperror.ErrForbidden
	}
	if !req.Status.CanTransitionTo(valueobject.RequestStatusClosed) || req.ProfessionalID == nil {
		return nil, apperror.New(apperror.ErrCodeInvalidState, "закрыть можно только принятую заявку")
	}

	aggregate, err := s.requests.Close(ctx, req, in.Rating, in.Feedback, s.now().UTC())
	if err != nil {
		return nil, err
	}

	logger.Log.WithFields(logrus.Fields{
		"request_id":      req.ID,
		"professional_id": *req.ProfessionalID,
		"avg_rating":      aggregate.Rounded(),
		"rating_count":    aggregate.Count,
	}).Info("request service: заявка закрыта")

	s.notify(*req.ProfessionalID, models.EventRequestClosed, req)
	s.invalidate(actor.ID, *req.ProfessionalID)
	return req, nil
}

// DeleteRequest удаляет заявку заказчика в любом статусе.
func (s *RequestService) DeleteRequest(ctx context.Context, actor Actor, requestID uuid.UUID) error {
	req, err := s.ownedRequest(ctx, actor, requestID)
	if err != nil {
		return err
	}

	if err := s.requests.Delete(ctx, req.ID); err != nil {
		return err
	}

	affected := []uuid.UUID{actor.ID}
	if req.ProfessionalID != nil {
		s.notify(*req.ProfessionalID, models.EventRequestDeleted, req)
		affected = append(affected, *req.ProfessionalID)
	}
	s.invalidate(affected...)
	return nil
}

// EditRequest меняет описание заявки, пока она ожидает решения.
func (s *RequestService) EditRequest(ctx context.Context, actor Actor, requestID uuid.UUID, description *string) (*models.ServiceRequest, error) {
	if err := validation.ValidateRequestDescription(description); err != nil {
		return nil, apperror.Validation(err)
	}

	req, err := s.ownedRequest(ctx, actor, requestID)
	if err != nil {
		return nil, err
	}
	if req.Status != valueobject.RequestStatusPending {
		return nil, apperror.New(apperror.ErrCodeInvalidState, "редактировать можно только ожидающую заявку")
	}

	if err := s.requests.UpdateDescription(ctx, req, description); err != nil {
		return nil, err
	}

	if req.ProfessionalID != nil {
		s.notify(*req.ProfessionalID, models.EventRequestEdited, req)
	}
	return req, nil
}

func (s *RequestService) ownedRequest(ctx context.Context, actor Actor, requestID uuid.UUID) (*models.ServiceRequest, error) {
	if err := actor.require(valueobject.RoleCustomer); err != nil {
		return nil, err
	}

	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.CustomerID != actor.ID {
		return nil, apperror.ErrForbidden
	}
	return req, nil
}

// GetRequest возвращает заявку, если актор может её видеть.
func (s *RequestService) GetRequest(ctx context.Context, actor Actor, requestID uuid.UUID) (*models.ServiceRequest, error) {
	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}

	switch {
	case actor.IsAdmin():
	case actor.IsCustomer() && req.CustomerID == actor.ID:
	case actor.IsProfessional() && req.AssignedTo(actor.ID):
	case actor.IsProfessional() && req.IsOpenCall():
		professional, err := s.activeProfessional(ctx, actor.ID)
		if err != nil {
			return nil, err
		}
		if *professional.ServiceID != req.ServiceID {
			return nil, apperror.ErrForbidden
		}
	default:
		return nil, apperror.ErrForbidden
	}
	return req, nil
}

// ListRequests возвращает заявки по фильтру в порядке создания.
func (s *RequestService) ListRequests(ctx context.Context, filter models.RequestFilter) ([]models.RequestDetails, error) {
	return s.requests.List(ctx, filter)
}

// OpenRequestsView - открытые заявки услуги специалиста и его собственные отклики.
type OpenRequestsView struct {
	Open []models.RequestDetails `json:"open"`
	Sent []models.RequestDetails `json:"sent"`
}

// OpenRequestsForProfessional возвращает открытые заявки по услуге специалиста.
func (s *RequestService) OpenRequestsForProfessional(ctx context.Context, actor Actor) (*OpenRequestsView, error) {
	if err := actor.require(valueobject.RoleProfessional); err != nil {
		return nil, err
	}
	professional, err := s.activeProfessional(ctx, actor.ID)
	if err != nil {
		return nil, err
	}

	open, err := s.requests.List(ctx, models.RequestFilter{
		ServiceID:   professional.ServiceID,
		Status:      statusPtr(valueobject.RequestStatusPending),
		RequestType: typePtr(valueobject.RequestTypePublic),
		Assigned:    boolPtr(false),
	})
	if err != nil {
		return nil, err
	}

	sent, err := s.requests.List(ctx, models.RequestFilter{
		ProfessionalID: &actor.ID,
		Status:         statusPtr(valueobject.RequestStatusPending),
		RequestType:    typePtr(valueobject.RequestTypePublic),
	})
	if err != nil {
		return nil, err
	}

	return &OpenRequestsView{Open: open, Sent: sent}, nil
}

// BidsForCustomer возвращает ожидающие отклики на открытые заявки заказчика.
func (s *RequestService) BidsForCustomer(ctx context.Context, actor Actor) ([]models.RequestDetails, error) {
	if err := actor.require(valueobject.RoleCustomer); err != nil {
		return nil, err
	}
	return s.requests.List(ctx, models.RequestFilter{
		CustomerID:  &actor.ID,
		Status:      statusPtr(valueobject.RequestStatusPending),
		RequestType: typePtr(valueobject.RequestTypePublic),
		Assigned:    boolPtr(true),
	})
}

func (s *RequestService) activeProfessional(ctx context.Context, id uuid.UUID) (*models.User, error) {
	professional, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !professional.IsActiveProfessional() {
		return nil, apperror.New(apperror.ErrCodeForbidden, "профиль специалиста не подтверждён")
	}
	return professional, nil
}

// notify отправляет событие после коммита. Ошибка доставки не влияет на результат операции.
func (s *RequestService) notify(userID uuid.UUID, event string, req *models.ServiceRequest) {
	if s.notifier == nil {
		return
	}
	payload := *req
	notifier := s.notifier
	s.dispatch(func() {
		if err := notifier.BroadcastToUser(userID, event, payload); err != nil {
			logger.Log.WithFields(logrus.Fields{
				"user_id":    userID,
				"event":      event,
				"request_id": payload.ID,
				"error":      err.Error(),
			}).Warn("request service: не удалось отправить уведомление")
		}
	})
}

func (s *RequestService) notifyServiceProfessionals(ctx context.Context, serviceID uuid.UUID, req *models.ServiceRequest) {
	if s.notifier == nil {
		return
	}
	professionals, err := s.users.ListProfessionalsByService(ctx, serviceID)
	if err != nil {
		logger.Log.WithFields(logrus.Fields{
			"service_id": serviceID,
			"error":      err.Error(),
		}).Warn("request service: не удалось получить специалистов услуги")
		return
	}
	for _, p := range professionals {
		if p.IsActiveProfessional() {
			s.notify(p.ID, models.EventRequestCreated, req)
		}
	}
}

func (s *RequestService) invalidate(userIDs ...uuid.UUID) {
	if s.cache == nil {
		return
	}
	s.cache.InvalidateSummaries(userIDs...)
}

func statusPtr(v valueobject.RequestStatus) *valueobject.RequestStatus { return &v }
func typePtr(v valueobject.RequestType) *valueobject.RequestType       { return &v }
func boolPtr(v bool) *bool                                            { return &v }
