package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/household-backend/internal/domain/valueobject"
	"github.com/ignatzorin/household-backend/internal/models"
	"github.com/ignatzorin/household-backend/internal/pkg/apperror"
	"github.com/ignatzorin/household-backend/internal/repository/common"
)

const userColumns = `id, username, password_hash, email, phone_number, address, pincode, role,
	is_verified, is_blocked, service_id, experience, document_path, avg_rating, rating_count,
	created_at, updated_at`

// UserRepository отвечает за работу с таблицей users.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository создаёт экземпляр репозитория.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create сохраняет нового пользователя.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}

	query := `
		INSERT INTO users (id, username, password_hash, email, phone_number, address, pincode, role,
			is_verified, service_id, experience, document_path)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at, updated_at
	`

	if err := r.db.QueryRowxContext(
		ctx, query,
		user.ID, user.Username, user.PasswordHash, user.Email, user.PhoneNumber, user.Address, user.Pincode,
		user.Role, user.IsVerified, user.ServiceID, user.Experience, user.DocumentPath,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt); err != nil {
		if common.IsUniqueViolation(err, "users_username_key") {
			return apperror.ErrUsernameTaken
		}
		if common.IsUniqueViolation(err, "") {
			return apperror.New(apperror.ErrCodeDuplicate, "email или телефон уже используются")
		}
		if common.IsForeignKeyViolation(err) {
			return apperror.ErrServiceNotFound
		}
		return fmt.Errorf("user repository: create %w", err)
	}

	return nil
}

// GetByID возвращает пользователя по идентификатору.
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := common.GetByID[models.User](ctx, r.db, "users", userColumns, id, apperror.ErrUserNotFound)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, err
		}
		return nil, fmt.Errorf("user repository: %w", err)
	}
	return user, nil
}

// GetByUsername возвращает пользователя по имени.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	if err := r.db.GetContext(ctx, &user, query, username); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.ErrUserNotFound
		}
		return nil, fmt.Errorf("user repository: get by username %w", err)
	}
	return &user, nil
}

// ExistsAdmin проверяет наличие хотя бы одного администратора.
func (r *UserRepository) ExistsAdmin(ctx context.Context) (bool, error) {
	var exists bool
	if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM users WHERE role = $1)`, valueobject.RoleAdmin); err != nil {
		return false, fmt.Errorf("user repository: exists admin %w", err)
	}
	return exists, nil
}

// SetVerified меняет флаг проверки специалиста.
func (r *UserRepository) SetVerified(ctx context.Context, id uuid.UUID, verified bool) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users SET is_verified = $2, updated_at = NOW()
		WHERE id = $1 AND role = $3
	`, id, verified, valueobject.RoleProfessional)
	if err != nil {
		return fmt.Errorf("user repository: set verified %w", err)
	}
	_, err = common.ExpectAffected(res, apperror.ErrUserNotFound)
	return err
}

// SetBlocked блокирует или разблокирует пользователя. Администраторы не блокируются.
func (r *UserRepository) SetBlocked(ctx context.Context, id uuid.UUID, blocked bool) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users SET is_blocked = $2, updated_at = NOW()
		WHERE id = $1 AND role <> $3
	`, id, blocked, valueobject.RoleAdmin)
	if err != nil {
		return fmt.Errorf("user repository: set blocked %w", err)
	}
	_, err = common.ExpectAffected(res, apperror.ErrUserNotFound)
	return err
}

// Delete удаляет пользователя. Заявки удаляются каскадом.
func (r *UserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("user repository: delete %w", err)
	}
	_, err = common.ExpectAffected(res, apperror.ErrUserNotFound)
	return err
}

// ListUnverifiedProfessionals возвращает специалистов, ожидающих проверки.
func (r *UserRepository) ListUnverifiedProfessionals(ctx context.Context) ([]models.User, error) {
	users := []models.User{}
	query := `SELECT ` + userColumns + ` FROM users WHERE role = $1 AND is_verified = FALSE ORDER BY created_at, id`
	if err := r.db.SelectContext(ctx, &users, query, valueobject.RoleProfessional); err != nil {
		return nil, fmt.Errorf("user repository: list unverified %w", err)
	}
	return users, nil
}

// ListProfessionalsByService возвращает проверенных незаблокированных специалистов услуги.
func (r *UserRepository) ListProfessionalsByService(ctx context.Context, serviceID uuid.UUID) ([]models.User, error) {
	users := []models.User{}
	query := `SELECT ` + userColumns + ` FROM users
		WHERE role = $1 AND is_verified = TRUE AND is_blocked = FALSE AND service_id = $2
		ORDER BY avg_rating DESC, created_at, id`
	if err := r.db.SelectContext(ctx, &users, query, valueobject.RoleProfessional, serviceID); err != nil {
		return nil, fmt.Errorf("user repository: list by service %w", err)
	}
	return users, nil
}

// CountByRole возвращает количество заказчиков и специалистов.
func (r *UserRepository) CountByRole(ctx context.Context) (customers int, professionals int, err error) {
	var row struct {
		Customers     int `db:"customers"`
		Professionals int `db:"professionals"`
	}
	query := `
		SELECT
			COUNT(*) FILTER (WHERE role = 'customer') AS customers,
			COUNT(*) FILTER (WHERE role = 'professional') AS professionals
		FROM users
	`
	if err := r.db.GetContext(ctx, &row, query); err != nil {
		return 0, 0, fmt.Errorf("user repository: count by role %w", err)
	}
	return row.Customers, row.Professionals, nil
}

// userSearchColumns - белый список колонок для поиска пользователей.
var userSearchColumns = map[string]string{
	models.SearchFieldUsername: "username",
	models.SearchFieldAddress:  "address",
	models.SearchFieldPincode:  "pincode",
}

// Search ищет пользователей по подстроке в поле. Пустая подстрока возвращает проверенных пользователей.
func (r *UserRepository) Search(ctx context.Context, field, substr string) ([]models.User, error) {
	users := []models.User{}

	if substr == "" {
		query := `SELECT ` + userColumns + ` FROM users WHERE is_verified = TRUE ORDER BY created_at, id`
		if err := r.db.SelectContext(ctx, &users, query); err != nil {
			return nil, fmt.Errorf("user repository: search %w", err)
		}
		return users, nil
	}

	column, ok := userSearchColumns[field]
	if !ok {
		return nil, apperror.New(apperror.ErrCodeValidation, "недопустимое поле поиска: "+field)
	}

	query := fmt.Sprintf(`SELECT %s FROM users WHERE %s ILIKE $1 ORDER BY created_at, id`, userColumns, column)
	if err := r.db.SelectContext(ctx, &users, query, common.ContainsPattern(substr)); err != nil {
		return nil, fmt.Errorf("user repository: search %w", err)
	}
	return users, nil
}
