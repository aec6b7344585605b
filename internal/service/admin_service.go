package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/household-backend/internal/domain/valueobject"
	"github.com/ignatzorin/household-backend/internal/logger"
	"github.com/ignatzorin/household-backend/internal/models"
	"github.com/ignatzorin/household-backend/internal/pkg/apperror"
	"github.com/ignatzorin/household-backend/internal/storage"
)

// ModerationRepository - операции администратора над пользователями.
type ModerationRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	SetVerified(ctx context.Context, id uuid.UUID, verified bool) error
	SetBlocked(ctx context.Context, id uuid.UUID, blocked bool) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// AdminService - модерация специалистов и пользователей.
type AdminService struct {
	users     ModerationRepository
	documents storage.DocumentStore
	cache     *CacheService
}

// NewAdminService создаёт сервис модерации.
func NewAdminService(users ModerationRepository, documents storage.DocumentStore, cache *CacheService) *AdminService {
	return &AdminService{users: users, documents: documents, cache: cache}
}

// ApproveProfessional подтверждает специалиста.
func (s *AdminService) ApproveProfessional(ctx context.Context, actor Actor, professionalID uuid.UUID) error {
	if err := actor.require(valueobject.RoleAdmin); err != nil {
		return err
	}

	professional, err := s.professional(ctx, professionalID)
	if err != nil {
		return err
	}
	if professional.ServiceID == nil {
		return apperror.New(apperror.ErrCodeInvalidState, "специалист не привязан к услуге")
	}

	if err := s.users.SetVerified(ctx, professionalID, true); err != nil {
		return err
	}

	logger.Log.WithField("professional_id", professionalID).Info("admin service: специалист подтверждён")
	return nil
}

// RejectProfessional удаляет документ и учётную запись специалиста. Его заявки удаляются каскадом.
func (s *AdminService) RejectProfessional(ctx context.Context, actor Actor, professionalID uuid.UUID) error {
	if err := actor.require(valueobject.RoleAdmin); err != nil {
		return err
	}

	professional, err := s.professional(ctx, professionalID)
	if err != nil {
		return err
	}

	if professional.HasDocument() {
		if err := s.documents.Delete(ctx, *professional.DocumentPath); err != nil {
			logger.Log.WithFields(logrus.Fields{
				"professional_id": professionalID,
				"document":        *professional.DocumentPath,
				"error":           err.Error(),
			}).Warn("admin service: не удалось удалить документ специалиста")
		}
	}

	if err := s.users.Delete(ctx, professionalID); err != nil {
		return err
	}

	if s.cache != nil {
		s.cache.InvalidateAllSummaries()
	}
	logger.Log.WithField("professional_id", professionalID).Info("admin service: специалист отклонён")
	return nil
}

// BlockUser блокирует пользователя.
func (s *AdminService) BlockUser(ctx context.Context, actor Actor, userID uuid.UUID) error {
	return s.setBlocked(ctx, actor, userID, true)
}

// UnblockUser снимает блокировку.
func (s *AdminService) UnblockUser(ctx context.Context, actor Actor, userID uuid.UUID) error {
	return s.setBlocked(ctx, actor, userID, false)
}

func (s *AdminService) setBlocked(ctx context.Context, actor Actor, userID uuid.UUID, blocked bool) error {
	if err := actor.require(valueobject.RoleAdmin); err != nil {
		return err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.Role == valueobject.RoleAdmin {
		return apperror.New(apperror.ErrCodeForbidden, "нельзя заблокировать администратора")
	}

	if err := s.users.SetBlocked(ctx, userID, blocked); err != nil {
		return err
	}

	logger.Log.WithFields(logrus.Fields{
		"user_id": userID,
		"blocked": blocked,
	}).Info("admin service: изменена блокировка пользователя")
	return nil
}

// GetProfessional возвращает специалиста для просмотра администратором.
func (s *AdminService) GetProfessional(ctx context.Context, actor Actor, professionalID uuid.UUID) (*models.User, error) {
	if err := actor.require(valueobject.RoleAdmin); err != nil {
		return nil, err
	}
	return s.professional(ctx, professionalID)
}

// ProfessionalDocument выдаёт документ специалиста администратору или самому специалисту.
func (s *AdminService) ProfessionalDocument(ctx context.Context, actor Actor, professionalID uuid.UUID) (*storage.Document, error) {
	if !actor.IsAdmin() && actor.ID != professionalID {
		return nil, apperror.ErrForbidden
	}

	professional, err := s.professional(ctx, professionalID)
	if err != nil {
		return nil, err
	}
	if !professional.HasDocument() {
		return nil, apperror.New(apperror.ErrCodeNotFound, "документ не загружен")
	}
	return s.documents.Fetch(ctx, *professional.DocumentPath)
}

func (s *AdminService) professional(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.Role != valueobject.RoleProfessional {
		return nil, apperror.New(apperror.ErrCodeNotFound, "специалист не найден")
	}
	return user, nil
}
