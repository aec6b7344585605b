package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/ignatzorin/household-backend/internal/models"
	"github.com/ignatzorin/household-backend/internal/pkg/apperror"
)

type UserSearcher interface {
	Search(ctx context.Context, field, substr string) ([]models.User, error)
}

type ServiceSearcher interface {
	Search(ctx context.Context, field, substr string) ([]models.Service, error)
}

type OpenRequestSearcher interface {
	SearchOpen(ctx context.Context, serviceID uuid.UUID, field, substr string) ([]models.RequestDetails, error)
}

// SearchService реализует поиск по подстроке с учётом роли.
type SearchService struct {
	users    UserSearcher
	services ServiceSearcher
	requests OpenRequestSearcher
	profiles UserReader
}

func NewSearchService(users UserSearcher, services ServiceSearcher, requests OpenRequestSearcher, profiles UserReader) *SearchService {
	return &SearchService{users: users, services: services, requests: requests, profiles: profiles}
}

// SearchResult содержит найденные сущности одного типа в порядке добавления.
type SearchResult struct {
	Entity   string                  `json:"entity"`
	Users    []models.User           `json:"users,omitempty"`
	Services []models.Service        `json:"services,omitempty"`
	Requests []models.RequestDetails `json:"requests,omitempty"`
}

// Find ищет сущности entity, у которых field содержит substr без учёта регистра.
func (s *SearchService) Find(ctx context.Context, actor Actor, entity, field, substr string) (*SearchResult, error) {
	substr = strings.TrimSpace(substr)
	if substr != "" && !models.IsValidSearchField(entity, field) {
		return nil, apperror.New(apperror.ErrCodeValidation, "недопустимое поле поиска: "+field)
	}

	result := &SearchResult{Entity: entity}

	switch entity {
	case models.SearchEntityUsers:
		if !actor.IsAdmin() {
			return nil, apperror.ErrForbidden
		}
		users, err := s.users.Search(ctx, field, substr)
		if err != nil {
			return nil, err
		}
		result.Users = users

	case models.SearchEntityServices:
		if !actor.IsAdmin() && !actor.IsCustomer() {
			return nil, apperror.ErrForbidden
		}
		if actor.IsAdmin() && substr != "" && field != models.SearchFieldServiceName {
			return nil, apperror.New(apperror.ErrCodeValidation, "администратор ищет услуги только по названию")
		}
		services, err := s.services.Search(ctx, field, substr)
		if err != nil {
			return nil, err
		}
		result.Services = services

	case models.SearchEntityRequests:
		if !actor.IsProfessional() {
			return nil, apperror.ErrForbidden
		}
		professional, err := s.profiles.GetByID(ctx, actor.ID)
		if err != nil {
			return nil, err
		}
		if !professional.IsActiveProfessional() {
			return nil, apperror.New(apperror.ErrCodeForbidden, "профиль специалиста не подтверждён")
		}
		requests, err := s.requests.SearchOpen(ctx, *professional.ServiceID, field, substr)
		if err != nil {
			return nil, err
		}
		result.Requests = requests

	default:
		return nil, apperror.New(apperror.ErrCodeValidation, "неизвестный тип поиска: "+entity)
	}

	return result, nil
}
