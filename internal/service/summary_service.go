package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/household-backend/internal/models"
)

// StatusCounter считает заявки по статусам.
type StatusCounter interface {
	CountByStatus(ctx context.Context, customerID, professionalID *uuid.UUID) (models.StatusCounts, error)
}

// UserStats читает данные пользователей для сводок.
type UserStats interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	CountByRole(ctx context.Context) (customers int, professionals int, err error)
}

// SummaryService строит сводки для администратора, заказчика и специалиста.
type SummaryService struct {
	requests StatusCounter
	users    UserStats
	cache    *CacheService
	ttl      time.Duration
}

// NewSummaryService создаёт сервис сводок. cache может быть nil.
func NewSummaryService(requests StatusCounter, users UserStats, cache *CacheService, ttl time.Duration) *SummaryService {
	return &SummaryService{requests: requests, users: users, cache: cache, ttl: ttl}
}

// AdminSummary - число пользователей по ролям и заявок по статусам.
func (s *SummaryService) AdminSummary(ctx context.Context) (*models.AdminSummary, error) {
	v, err := s.cached(ctx, AdminSummaryCacheKey(), func(ctx context.Context) (interface{}, error) {
		customers, professionals, err := s.users.CountByRole(ctx)
		if err != nil {
			return nil, err
		}
		counts, err := s.requests.CountByStatus(ctx, nil, nil)
		if err != nil {
			return nil, err
		}
		return &models.AdminSummary{
			CustomerCount:     customers,
			ProfessionalCount: professionals,
			Requests:          counts,
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.AdminSummary), nil
}

// ProfessionalSummary - заявки специалиста по статусам и его рейтинг.
func (s *SummaryService) ProfessionalSummary(ctx context.Context, professionalID uuid.UUID) (*models.ProfessionalSummary, error) {
	v, err := s.cached(ctx, SummaryCacheKey(professionalID, "professional"), func(ctx context.Context) (interface{}, error) {
		user, err := s.users.GetByID(ctx, professionalID)
		if err != nil {
			return nil, err
		}
		counts, err := s.requests.CountByStatus(ctx, nil, &professionalID)
		if err != nil {
			return nil, err
		}

		summary := &models.ProfessionalSummary{
			ProfessionalID: professionalID,
			Requests:       counts,
			TotalRequests:  counts.Total(),
			RatingCount:    user.RatingCount,
		}
		if user.RatingCount > 0 {
			avg := user.Rating().Rounded()
			summary.AvgRating = &avg
		}
		return summary, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.ProfessionalSummary), nil
}

// CustomerSummary - заявки заказчика по статусам.
func (s *SummaryService) CustomerSummary(ctx context.Context, customerID uuid.UUID) (*models.CustomerSummary, error) {
	v, err := s.cached(ctx, SummaryCacheKey(customerID, "customer"), func(ctx context.Context) (interface{}, error) {
		counts, err := s.requests.CountByStatus(ctx, &customerID, nil)
		if err != nil {
			return nil, err
		}
		return &models.CustomerSummary{
			CustomerID:    customerID,
			Requests:      counts,
			TotalRequests: counts.Total(),
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.CustomerSummary), nil
}

func (s *SummaryService) cached(ctx context.Context, key string, fn func(ctx context.Context) (interface{}, error)) (interface{}, error) {
	if s.cache == nil || s.ttl <= 0 {
		return fn(ctx)
	}
	return s.cache.GetOrSet(ctx, key, s.ttl, fn)
}
