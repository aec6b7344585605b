package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/household-backend/internal/domain/valueobject"
	"github.com/ignatzorin/household-backend/internal/models"
	"github.com/ignatzorin/household-backend/internal/pkg/apperror"
)

const topReviewsLimit = 5

// RequestLister выбирает заявки по фильтру.
type RequestLister interface {
	List(ctx context.Context, filter models.RequestFilter) ([]models.RequestDetails, error)
}

// DashboardUsers - чтение пользователей для панелей.
type DashboardUsers interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	ListUnverifiedProfessionals(ctx context.Context) ([]models.User, error)
}

// DashboardServices - чтение каталога для панелей.
type DashboardServices interface {
	List(ctx context.Context) ([]models.Service, error)
	ListWithVerifiedProfessionals(ctx context.Context) ([]models.Service, error)
}

// DashboardService собирает данные для панелей ролей.
type DashboardService struct {
	requests RequestLister
	users    DashboardUsers
	services DashboardServices
}

// NewDashboardService создаёт сервис панелей.
func NewDashboardService(requests RequestLister, users DashboardUsers, services DashboardServices) *DashboardService {
	return &DashboardService{requests: requests, users: users, services: services}
}

type AdminDashboard struct {
	Services                []models.Service        `json:"services"`
	Requests                []models.RequestDetails `json:"requests"`
	UnverifiedProfessionals []models.User           `json:"unverified_professionals"`
}

type CustomerDashboard struct {
	History           []models.RequestDetails `json:"history"`
	AvailableServices []models.Service        `json:"available_services"`
}

type ProfessionalDashboard struct {
	Pending    []models.RequestDetails `json:"pending"`
	Accepted   []models.RequestDetails `json:"accepted"`
	Closed     []models.RequestDetails `json:"closed"`
	TopReviews []models.RequestDetails `json:"top_reviews"`
}

// ProfessionalProfile - специалист и отзывы по закрытым заявкам.
type ProfessionalProfile struct {
	Professional *models.User           `json:"professional"`
	Reviews      []models.RequestDetails `json:"reviews"`
}

// Admin возвращает все услуги, все заявки и специалистов на проверке.
func (s *DashboardService) Admin(ctx context.Context, actor Actor) (*AdminDashboard, error) {
	if err := actor.require(valueobject.RoleAdmin); err != nil {
		return nil, err
	}

	services, err := s.services.List(ctx)
	if err != nil {
		return nil, err
	}
	requests, err := s.requests.List(ctx, models.RequestFilter{})
	if err != nil {
		return nil, err
	}
	unverified, err := s.users.ListUnverifiedProfessionals(ctx)
	if err != nil {
		return nil, err
	}

	return &AdminDashboard{Services: services, Requests: requests, UnverifiedProfessionals: unverified}, nil
}

// Customer возвращает историю заявок с назначенным специалистом и доступные услуги.
func (s *DashboardService) Customer(ctx context.Context, actor Actor) (*CustomerDashboard, error) {
	if err := actor.require(valueobject.RoleCustomer); err != nil {
		return nil, err
	}

	history, err := s.requests.List(ctx, models.RequestFilter{CustomerID: &actor.ID, Assigned: boolPtr(true)})
	if err != nil {
		return nil, err
	}
	available, err := s.services.ListWithVerifiedProfessionals(ctx)
	if err != nil {
		return nil, err
	}

	return &CustomerDashboard{History: history, AvailableServices: available}, nil
}

// Professional возвращает адресные заявки на рассмотрении, принятые, закрытые и лучшие отзывы.
func (s *DashboardService) Professional(ctx context.Context, actor Actor) (*ProfessionalDashboard, error) {
	if err := actor.require(valueobject.RoleProfessional); err != nil {
		return nil, err
	}

	byStatus := func(status valueobject.RequestStatus, requestType *valueobject.RequestType) ([]models.RequestDetails, error) {
		return s.requests.List(ctx, models.RequestFilter{
			ProfessionalID: &actor.ID,
			Status:         &status,
			RequestType:    requestType,
		})
	}

	dash := &ProfessionalDashboard{}
	var err error
	if dash.Pending, err = byStatus(valueobject.RequestStatusPending, typePtr(valueobject.RequestTypePrivate)); err != nil {
		return nil, err
	}
	if dash.Accepted, err = byStatus(valueobject.RequestStatusAccepted, nil); err != nil {
		return nil, err
	}
	if dash.Closed, err = byStatus(valueobject.RequestStatusClosed, nil); err != nil {
		return nil, err
	}
	if dash.TopReviews, err = s.reviews(ctx, actor.ID, topReviewsLimit); err != nil {
		return nil, err
	}
	return dash, nil
}

// ProfessionalProfile возвращает профиль специалиста с отзывами. Документ в ответ не попадает.
func (s *DashboardService) ProfessionalProfile(ctx context.Context, actor Actor, professionalID uuid.UUID) (*ProfessionalProfile, error) {
	if actor.ID == uuid.Nil {
		return nil, apperror.ErrUnauthorized
	}

	professional, err := s.users.GetByID(ctx, professionalID)
	if err != nil {
		return nil, err
	}
	if professional.Role != valueobject.RoleProfessional {
		return nil, apperror.New(apperror.ErrCodeNotFound, "специалист не найден")
	}
	if !actor.IsAdmin() && !professional.IsActiveProfessional() {
		return nil, apperror.New(apperror.ErrCodeNotFound, "специалист не найден")
	}

	reviews, err := s.reviews(ctx, professionalID, 0)
	if err != nil {
		return nil, err
	}
	return &ProfessionalProfile{Professional: professional, Reviews: reviews}, nil
}

func (s *DashboardService) reviews(ctx context.Context, professionalID uuid.UUID, limit int) ([]models.RequestDetails, error) {
	return s.requests.List(ctx, models.RequestFilter{
		ProfessionalID: &professionalID,
		Status:         statusPtr(valueobject.RequestStatusClosed),
		OrderByRating:  true,
		Limit:          limit,
	})
}
