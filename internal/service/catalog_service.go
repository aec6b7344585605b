package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/household-backend/internal/domain/valueobject"
	"github.com/ignatzorin/household-backend/internal/logger"
	"github.com/ignatzorin/household-backend/internal/models"
	"github.com/ignatzorin/household-backend/internal/pkg/apperror"
	"github.com/ignatzorin/household-backend/internal/validation"
)

// ServiceCatalogRepository - хранилище каталога услуг.
type ServiceCatalogRepository interface {
	Create(ctx context.Context, svc *models.Service) error
	Update(ctx context.Context, svc *models.Service) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Service, error)
	List(ctx context.Context) ([]models.Service, error)
	ListWithVerifiedProfessionals(ctx context.Context) ([]models.Service, error)
	DeleteCascade(ctx context.Context, id uuid.UUID) (*models.ServiceCascadeResult, error)
}

// CatalogService - каталог услуг: чтение для всех, изменение для администратора.
type CatalogService struct {
	repo  ServiceCatalogRepository
	cache *CacheService
}

// ServiceInput - поля услуги.
type ServiceInput struct {
	Name              string
	Description       *string
	BasePrice         float64
	EstimatedDuration *string
	Location          *string
}

// NewCatalogService создаёт сервис каталога.
func NewCatalogService(repo ServiceCatalogRepository, cache *CacheService) *CatalogService {
	return &CatalogService{repo: repo, cache: cache}
}

// List возвращает все услуги.
func (s *CatalogService) List(ctx context.Context) ([]models.Service, error) {
	return s.repo.List(ctx)
}

// ListAvailable возвращает услуги, у которых есть проверенный специалист.
func (s *CatalogService) ListAvailable(ctx context.Context) ([]models.Service, error) {
	return s.repo.ListWithVerifiedProfessionals(ctx)
}

// Get возвращает услугу.
func (s *CatalogService) Get(ctx context.Context, id uuid.UUID) (*models.Service, error) {
	return s.repo.GetByID(ctx, id)
}

// Create добавляет услугу.
func (s *CatalogService) Create(ctx context.Context, actor Actor, in ServiceInput) (*models.Service, error) {
	if err := actor.require(valueobject.RoleAdmin); err != nil {
		return nil, err
	}
	if err := validateServiceInput(in); err != nil {
		return nil, apperror.Validation(err)
	}

	svc := &models.Service{}
	applyServiceInput(svc, in)
	if err := s.repo.Create(ctx, svc); err != nil {
		return nil, err
	}
	return svc, nil
}

// Update изменяет услугу.
func (s *CatalogService) Update(ctx context.Context, actor Actor, id uuid.UUID, in ServiceInput) (*models.Service, error) {
	if err := actor.require(valueobject.RoleAdmin); err != nil {
		return nil, err
	}
	if err := validateServiceInput(in); err != nil {
		return nil, apperror.Validation(err)
	}

	svc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	applyServiceInput(svc, in)
	if err := s.repo.Update(ctx, svc); err != nil {
		return nil, err
	}
	return svc, nil
}

// Delete удаляет услугу каскадом: специалисты теряют проверку и привязку, заявки удаляются.
func (s *CatalogService) Delete(ctx context.Context, actor Actor, id uuid.UUID) (*models.ServiceCascadeResult, error) {
	if err := actor.require(valueobject.RoleAdmin); err != nil {
		return nil, err
	}

	result, err := s.repo.DeleteCascade(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.InvalidateAllSummaries()
	}
	logger.Log.WithFields(logrus.Fields{
		"service_id":             id,
		"unlinked_professionals": result.UnlinkedProfessionals,
		"deleted_requests":       result.DeletedRequests,
	}).Info("catalog service: услуга удалена")
	return result, nil
}

func validateServiceInput(in ServiceInput) error {
	if err := validation.ValidateServiceName(in.Name); err != nil {
		return err
	}
	if err := validation.ValidateBasePrice(in.BasePrice); err != nil {
		return err
	}
	return validation.ValidateServiceFields(in.Description, in.EstimatedDuration, in.Location)
}

func applyServiceInput(svc *models.Service, in ServiceInput) {
	svc.Name = strings.TrimSpace(in.Name)
	svc.Description = in.Description
	svc.BasePrice = in.BasePrice
	svc.EstimatedDuration = in.EstimatedDuration
	svc.Location = in.Location
}
