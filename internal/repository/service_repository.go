package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/household-backend/internal/models"
	"github.com/ignatzorin/household-backend/internal/pkg/apperror"
	"github.com/ignatzorin/household-backend/internal/repository/common"
)

const serviceColumns = `id, name, description, base_price, estimated_duration, location, created_at, updated_at`

// ServiceRepository работает с каталогом услуг.
type ServiceRepository struct {
	db *sqlx.DB
}

// NewServiceRepository создаёт репозиторий услуг.
func NewServiceRepository(db *sqlx.DB) *ServiceRepository {
	return &ServiceRepository{db: db}
}

// Create добавляет услугу в каталог.
func (r *ServiceRepository) Create(ctx context.Context, svc *models.Service) error {
	query := `
		INSERT INTO services (name, description, base_price, estimated_duration, location)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`
	if err := r.db.QueryRowxContext(ctx, query,
		svc.Name, svc.Description, svc.BasePrice, svc.EstimatedDuration, svc.Location,
	).Scan(&svc.ID, &svc.CreatedAt, &svc.UpdatedAt); err != nil {
		if common.IsUniqueViolation(err, "") {
			return apperror.ErrServiceNameTaken
		}
		return fmt.Errorf("service repository: create %w", err)
	}
	return nil
}

// Update обновляет услугу.
func (r *ServiceRepository) Update(ctx context.Context, svc *models.Service) error {
	query := `
		UPDATE services
		SET name = $2, description = $3, base_price = $4, estimated_duration = $5, location = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		svc.ID, svc.Name, svc.Description, svc.BasePrice, svc.EstimatedDuration, svc.Location,
	).Scan(&svc.UpdatedAt)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return apperror.ErrServiceNotFound
	case common.IsUniqueViolation(err, ""):
		return apperror.ErrServiceNameTaken
	default:
		return fmt.Errorf("service repository: update %w", err)
	}
}

// GetByID возвращает услугу.
func (r *ServiceRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Service, error) {
	svc, err := common.GetByID[models.Service](ctx, r.db, "services", serviceColumns, id, apperror.ErrServiceNotFound)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, err
		}
		return nil, fmt.Errorf("service repository: %w", err)
	}
	return svc, nil
}

// List возвращает все услуги в порядке добавления.
func (r *ServiceRepository) List(ctx context.Context) ([]models.Service, error) {
	services := []models.Service{}
	if err := r.db.SelectContext(ctx, &services, `SELECT `+serviceColumns+` FROM services ORDER BY created_at, id`); err != nil {
		return nil, fmt.Errorf("service repository: list %w", err)
	}
	return services, nil
}

// ListWithVerifiedProfessionals возвращает услуги, у которых есть хотя бы один проверенный специалист.
func (r *ServiceRepository) ListWithVerifiedProfessionals(ctx context.Context) ([]models.Service, error) {
	services := []models.Service{}
	query := `
		SELECT ` + prefixed("s", serviceColumns) + ` FROM services s
		WHERE EXISTS (
			SELECT 1 FROM users u
			WHERE u.service_id = s.id AND u.role = 'professional' AND u.is_verified = TRUE AND u.is_blocked = FALSE
		)
		ORDER BY s.created_at, s.id
	`
	if err := r.db.SelectContext(ctx, &services, query); err != nil {
		return nil, fmt.Errorf("service repository: list available %w", err)
	}
	return services, nil
}

// Search ищет услуги по названию либо по адресу/индексу проверенного специалиста.
func (r *ServiceRepository) Search(ctx context.Context, field, substr string) ([]models.Service, error) {
	if substr == "" {
		return r.ListWithVerifiedProfessionals(ctx)
	}

	services := []models.Service{}
	pattern := common.ContainsPattern(substr)

	var query string
	switch field {
	case models.SearchFieldServiceName:
		query = `SELECT ` + serviceColumns + ` FROM services WHERE name ILIKE $1 ORDER BY created_at, id`
	case models.SearchFieldAddress, models.SearchFieldPincode:
		query = fmt.Sprintf(`
			SELECT %s FROM services s
			WHERE EXISTS (
				SELECT 1 FROM users u
				WHERE u.service_id = s.id AND u.role = 'professional' AND u.is_verified = TRUE
					AND u.is_blocked = FALSE AND u.%s ILIKE $1
			)
			ORDER BY s.created_at, s.id
		`, prefixed("s", serviceColumns), field)
	default:
		return nil, apperror.New(apperror.ErrCodeValidation, "недопустимое поле поиска: "+field)
	}

	if err := r.db.SelectContext(ctx, &services, query, pattern); err != nil {
		return nil, fmt.Errorf("service repository: search %w", err)
	}
	return services, nil
}

// DeleteCascade удаляет услугу: специалисты теряют проверку и привязку, заявки удаляются.
func (r *ServiceRepository) DeleteCascade(ctx context.Context, id uuid.UUID) (*models.ServiceCascadeResult, error) {
	result := &models.ServiceCascadeResult{}

	err := common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		var locked uuid.UUID
		if err := tx.GetContext(ctx, &locked, `SELECT id FROM services WHERE id = $1 FOR UPDATE`, id); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return apperror.ErrServiceNotFound
			}
			return fmt.Errorf("service repository: lock %w", err)
		}

		res, err := tx.ExecContext(ctx, `
			UPDATE users SET is_verified = FALSE, service_id = NULL, updated_at = NOW()
			WHERE service_id = $1 AND role = 'professional'
		`, id)
		if err != nil {
			return fmt.Errorf("service repository: unlink professionals %w", err)
		}
		if result.UnlinkedProfessionals, err = res.RowsAffected(); err != nil {
			return err
		}

		res, err = tx.ExecContext(ctx, `DELETE FROM service_requests WHERE service_id = $1`, id)
		if err != nil {
			return fmt.Errorf("service repository: delete requests %w", err)
		}
		if result.DeletedRequests, err = res.RowsAffected(); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM services WHERE id = $1`, id); err != nil {
			return fmt.Errorf("service repository: delete %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}
