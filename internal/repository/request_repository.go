package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/household-backend/internal/domain/valueobject"
	"github.com/ignatzorin/household-backend/internal/models"
	"github.com/ignatzorin/household-backend/internal/pkg/apperror"
	"github.com/ignatzorin/household-backend/internal/repository/common"
)

const requestColumns = `id, service_id, customer_id, professional_id, request_type, status, description,
	customer_rating, customer_feedback, version, created_on, closed_on`

const requestDetailsSelect = `
	SELECT r.id, r.service_id, r.customer_id, r.professional_id, r.request_type, r.status, r.description,
		r.customer_rating, r.customer_feedback, r.version, r.created_on, r.closed_on,
		s.name AS service_name,
		c.username AS customer_username,
		c.address AS customer_address,
		c.pincode AS customer_pincode,
		p.username AS professional_username
	FROM service_requests r
	JOIN services s ON s.id = r.service_id
	JOIN users c ON c.id = r.customer_id
	LEFT JOIN users p ON p.id = r.professional_id
`

// RequestRepository работает с таблицей service_requests.
type RequestRepository struct {
	db *sqlx.DB
}

// NewRequestRepository создаёт репозиторий заявок.
func NewRequestRepository(db *sqlx.DB) *RequestRepository {
	return &RequestRepository{db: db}
}

// Create сохраняет новую заявку или отклик.
func (r *RequestRepository) Create(ctx context.Context, req *models.ServiceRequest) error {
	query := `
		INSERT INTO service_requests (service_id, customer_id, professional_id, request_type, status, description)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, version, created_on
	`
	if err := r.db.QueryRowxContext(ctx, query,
		req.ServiceID, req.CustomerID, req.ProfessionalID, req.RequestType, req.Status, req.Description,
	).Scan(&req.ID, &req.Version, &req.CreatedOn); err != nil {
		if common.IsUniqueViolation(err, "uq_service_requests_pending_bid") {
			return apperror.ErrDuplicateBid
		}
		if common.IsForeignKeyViolation(err) {
			return apperror.Wrap(err, apperror.ErrCodeNotFound, "услуга или пользователь не найдены")
		}
		return fmt.Errorf("request repository: create %w", err)
	}
	return nil
}

// GetByID возвращает заявку.
func (r *RequestRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ServiceRequest, error) {
	req, err := common.GetByID[models.ServiceRequest](ctx, r.db, "service_requests", requestColumns, id, apperror.ErrRequestNotFound)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, err
		}
		return nil, fmt.Errorf("request repository: %w", err)
	}
	return req, nil
}

// UpdateStatus переводит заявку из текущего статуса в новый, если её никто не изменил с момента чтения.
// Перевод в accepted не выполняется, если у той же тройки (услуга, заказчик, специалист) уже есть принятая заявка.
func (r *RequestRepository) UpdateStatus(ctx context.Context, req *models.ServiceRequest, to valueobject.RequestStatus) error {
	query := `
		UPDATE service_requests r
		SET status = $2, version = r.version + 1
		WHERE r.id = $1 AND r.status = $3 AND r.version = $4
	`
	if to == valueobject.RequestStatusAccepted {
		query += " AND " + noOtherAccepted
	}
	query += " RETURNING r.version"

	var version int
	err := r.db.QueryRowxContext(ctx, query, req.ID, to, req.Status, req.Version).Scan(&version)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			if to == valueobject.RequestStatusAccepted {
				return acceptedOrStale(ctx, r.db, req)
			}
			return staleOrMissing(ctx, r.db, req.ID)
		}
		if common.IsUniqueViolation(err, "uq_service_requests_accepted") {
			return apperror.ErrAlreadyAccepted
		}
		return fmt.Errorf("request repository: update status %w", err)
	}

	req.Status = to
	req.Version = version
	return nil
}

// UpdateDescription меняет описание ожидающей заявки.
func (r *RequestRepository) UpdateDescription(ctx context.Context, req *models.ServiceRequest, description *string) error {
	query := `
		UPDATE service_requests
		SET description = $2, version = version + 1
		WHERE id = $1 AND status = 'pending' AND version = $3
		RETURNING version
	`
	var version int
	if err := r.db.QueryRowxContext(ctx, query, req.ID, description, req.Version).Scan(&version); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return staleOrMissing(ctx, r.db, req.ID)
		}
		return fmt.Errorf("request repository: update description %w", err)
	}

	req.Description = description
	req.Version = version
	return nil
}

// AcceptBid принимает отклик и удаляет все остальные ожидающие публичные строки той же услуги.
// Возвращает количество удалённых строк.
func (r *RequestRepository) AcceptBid(ctx context.Context, req *models.ServiceRequest) (int64, error) {
	var deleted int64

	err := common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		var version int
		err := tx.QueryRowxContext(ctx, `
			UPDATE service_requests r
			SET status = 'accepted', version = r.version + 1
			WHERE r.id = $1 AND r.status = 'pending' AND r.request_type = 'public'
				AND r.professional_id IS NOT NULL AND r.version = $2
				AND `+noOtherAccepted+`
			RETURNING r.version
		`, req.ID, req.Version).Scan(&version)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return acceptedOrStale(ctx, tx, req)
			}
			if common.IsUniqueViolation(err, "uq_service_requests_accepted") {
				return apperror.ErrAlreadyAccepted
			}
			return fmt.Errorf("request repository: accept bid %w", err)
		}

		res, err := tx.ExecContext(ctx, `
			DELETE FROM service_requests
			WHERE service_id = $1 AND request_type = 'public' AND status = 'pending' AND id <> $2
		`, req.ServiceID, req.ID)
		if err != nil {
			return fmt.Errorf("request repository: delete competing bids %w", err)
		}
		if deleted, err = res.RowsAffected(); err != nil {
			return err
		}

		req.Status = valueobject.RequestStatusAccepted
		req.Version = version
		return nil
	})
	if err != nil {
		return 0, err
	}

	return deleted, nil
}

// Close закрывает принятую заявку и пересчитывает рейтинг специалиста в одной транзакции.
func (r *RequestRepository) Close(ctx context.Context, req *models.ServiceRequest, rating float64, feedback *string, closedOn time.Time) (*valueobject.RatingAggregate, error) {
	if req.ProfessionalID == nil {
		return nil, apperror.New(apperror.ErrCodeInvalidState, "у заявки нет назначенного специалиста")
	}

	var aggregate valueobject.RatingAggregate

	err := common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		var version int
		err := tx.QueryRowxContext(ctx, `
			UPDATE service_requests
			SET status = 'closed', customer_rating = $2, customer_feedback = $3, closed_on = $4, version = version + 1
			WHERE id = $1 AND status = 'accepted' AND version = $5
			RETURNING version
		`, req.ID, rating, feedback, closedOn, req.Version).Scan(&version)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return staleOrMissing(ctx, tx, req.ID)
			}
			return fmt.Errorf("request repository: close %w", err)
		}

		var current struct {
			AvgRating   float64 `db:"avg_rating"`
			RatingCount int     `db:"rating_count"`
		}
		if err := tx.GetContext(ctx, &current,
			`SELECT avg_rating, rating_count FROM users WHERE id = $1 FOR UPDATE`, *req.ProfessionalID,
		); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return apperror.ErrUserNotFound
			}
			return fmt.Errorf("request repository: lock professional %w", err)
		}

		aggregate = valueobject.RatingAggregate{Average: current.AvgRating, Count: current.RatingCount}.Add(rating)

		if _, err := tx.ExecContext(ctx, `
			UPDATE users SET avg_rating = $2, rating_count = $3, updated_at = NOW()
			WHERE id = $1
		`, *req.ProfessionalID, aggregate.Average, aggregate.Count); err != nil {
			return fmt.Errorf("request repository: update rating %w", err)
		}

		req.Status = valueobject.RequestStatusClosed
		req.CustomerRating = &rating
		req.CustomerFeedback = feedback
		req.ClosedOn = &closedOn
		req.Version = version
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &aggregate, nil
}

// Delete удаляет заявку в любом статусе.
func (r *RequestRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM service_requests WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("request repository: delete %w", err)
	}
	_, err = common.ExpectAffected(res, apperror.ErrRequestNotFound)
	return err
}

// DeletePendingBid удаляет отклик, только если он всё ещё ожидает решения.
func (r *RequestRepository) DeletePendingBid(ctx context.Context, req *models.ServiceRequest) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM service_requests
		WHERE id = $1 AND status = 'pending' AND request_type = 'public'
			AND professional_id IS NOT NULL AND version = $2
	`, req.ID, req.Version)
	if err != nil {
		return fmt.Errorf("request repository: delete bid %w", err)
	}
	if _, err := common.ExpectAffected(res, errNoRows); err != nil {
		if errors.Is(err, errNoRows) {
			return staleOrMissing(ctx, r.db, req.ID)
		}
		return err
	}
	return nil
}

// ExistsPendingBid проверяет, есть ли у специалиста ожидающий отклик для пары (услуга, заказчик).
func (r *RequestRepository) ExistsPendingBid(ctx context.Context, serviceID, customerID, professionalID uuid.UUID) (bool, error) {
	var exists bool
	query := `
		SELECT EXISTS (
			SELECT 1 FROM service_requests
			WHERE service_id = $1 AND customer_id = $2 AND professional_id = $3
				AND request_type = 'public' AND status = 'pending'
		)
	`
	if err := r.db.GetContext(ctx, &exists, query, serviceID, customerID, professionalID); err != nil {
		return false, fmt.Errorf("request repository: exists bid %w", err)
	}
	return exists, nil
}

// ExistsAccepted проверяет, есть ли принятая заявка для тройки (услуга, заказчик, специалист).
func (r *RequestRepository) ExistsAccepted(ctx context.Context, serviceID, customerID, professionalID uuid.UUID) (bool, error) {
	return existsAccepted(ctx, r.db, serviceID, customerID, professionalID, uuid.Nil)
}

// List возвращает заявки по фильтру в порядке создания.
func (r *RequestRepository) List(ctx context.Context, filter models.RequestFilter) ([]models.RequestDetails, error) {
	where, args := buildRequestFilter(filter)

	var b strings.Builder
	b.WriteString(requestDetailsSelect)
	if len(where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}
	if filter.OrderByRating {
		b.WriteString(" ORDER BY r.customer_rating DESC NULLS LAST, r.created_on, r.id")
	} else {
		b.WriteString(" ORDER BY r.created_on, r.id")
	}
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		fmt.Fprintf(&b, " LIMIT $%d", len(args))
	}

	items := []models.RequestDetails{}
	if err := r.db.SelectContext(ctx, &items, b.String(), args...); err != nil {
		return nil, fmt.Errorf("request repository: list %w", err)
	}
	return items, nil
}

// requestSearchColumns - поля заказчика, по которым специалист ищет открытые заявки.
var requestSearchColumns = map[string]string{
	models.SearchFieldAddress: "c.address",
	models.SearchFieldPincode: "c.pincode",
}

// SearchOpen ищет открытые заявки услуги по адресу или индексу заказчика.
func (r *RequestRepository) SearchOpen(ctx context.Context, serviceID uuid.UUID, field, substr string) ([]models.RequestDetails, error) {
	query := requestDetailsSelect + `
		WHERE r.service_id = $1 AND r.request_type = 'public' AND r.status = 'pending' AND r.professional_id IS NULL`
	args := []interface{}{serviceID}

	if substr != "" {
		column, ok := requestSearchColumns[field]
		if !ok {
			return nil, apperror.New(apperror.ErrCodeValidation, "недопустимое поле поиска: "+field)
		}
		query += " AND " + column + " ILIKE $2"
		args = append(args, common.ContainsPattern(substr))
	}
	query += " ORDER BY r.created_on, r.id"

	items := []models.RequestDetails{}
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, fmt.Errorf("request repository: search open %w", err)
	}
	return items, nil
}

// CountByStatus считает заявки по статусам с учётом фильтра по участникам.
func (r *RequestRepository) CountByStatus(ctx context.Context, customerID, professionalID *uuid.UUID) (models.StatusCounts, error) {
	where, args := buildRequestFilter(models.RequestFilter{CustomerID: customerID, ProfessionalID: professionalID})

	query := `
		SELECT
			COUNT(*) FILTER (WHERE r.status = 'pending') AS pending,
			COUNT(*) FILTER (WHERE r.status = 'accepted') AS accepted,
			COUNT(*) FILTER (WHERE r.status = 'rejected') AS rejected,
			COUNT(*) FILTER (WHERE r.status = 'closed') AS closed
		FROM service_requests r
	`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}

	var counts models.StatusCounts
	if err := r.db.GetContext(ctx, &counts, query, args...); err != nil {
		return models.StatusCounts{}, fmt.Errorf("request repository: count by status %w", err)
	}
	return counts, nil
}

func buildRequestFilter(f models.RequestFilter) ([]string, []interface{}) {
	var (
		where []string
		args  []interface{}
	)
	add := func(cond string, v interface{}) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}

	if f.CustomerID != nil {
		add("r.customer_id = $%d", *f.CustomerID)
	}
	if f.ProfessionalID != nil {
		add("r.professional_id = $%d", *f.ProfessionalID)
	}
	if f.ServiceID != nil {
		add("r.service_id = $%d", *f.ServiceID)
	}
	if f.Status != nil {
		add("r.status = $%d", *f.Status)
	}
	if f.RequestType != nil {
		add("r.request_type = $%d", *f.RequestType)
	}
	if f.Assigned != nil {
		if *f.Assigned {
			where = append(where, "r.professional_id IS NOT NULL")
		} else {
			where = append(where, "r.professional_id IS NULL")
		}
	}
	return where, args
}

var errNoRows = errors.New("no rows affected")

// staleOrMissing различает удалённую заявку и заявку, изменённую конкурентным запросом.
// noOtherAccepted дополняет UPDATE с псевдонимом r: другой принятой заявки той же тройки нет.
const noOtherAccepted = `NOT EXISTS (
	SELECT 1 FROM service_requests a
	WHERE a.service_id = r.service_id AND a.customer_id = r.customer_id
		AND a.professional_id = r.professional_id AND a.status = 'accepted' AND a.id <> r.id
)`

// existsAccepted ищет принятую заявку тройки, не считая строку exclude.
func existsAccepted(ctx context.Context, q sqlx.QueryerContext, serviceID, customerID, professionalID, exclude uuid.UUID) (bool, error) {
	var exists bool
	query := `
		SELECT EXISTS (
			SELECT 1 FROM service_requests
			WHERE service_id = $1 AND customer_id = $2 AND professional_id = $3 AND status = 'accepted' AND id <> $4
		)
	`
	if err := sqlx.GetContext(ctx, q, &exists, query, serviceID, customerID, professionalID, exclude); err != nil {
		return false, fmt.Errorf("request repository: exists accepted %w", err)
	}
	return exists, nil
}

// acceptedOrStale объясняет, почему перевод в accepted не затронул ни одной строки.
func acceptedOrStale(ctx context.Context, q sqlx.QueryerContext, req *models.ServiceRequest) error {
	if req.ProfessionalID != nil {
		exists, err := existsAccepted(ctx, q, req.ServiceID, req.CustomerID, *req.ProfessionalID, req.ID)
		if err != nil {
			return err
		}
		if exists {
			return apperror.ErrAlreadyAccepted
		}
	}
	return staleOrMissing(ctx, q, req.ID)
}

func staleOrMissing(ctx context.Context, q sqlx.QueryerContext, id uuid.UUID) error {
	var exists bool
	if err := sqlx.GetContext(ctx, q, &exists, `SELECT EXISTS (SELECT 1 FROM service_requests WHERE id = $1)`, id); err != nil {
		return fmt.Errorf("request repository: check exists %w", err)
	}
	if !exists {
		return apperror.ErrRequestNotFound
	}
	return apperror.ErrStaleRequest
}
