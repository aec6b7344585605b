package repository

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/household-backend/internal/pkg/apperror"
)

func TestServiceRepository_DeleteCascade(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewServiceRepository(db)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id FROM services").
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(id.String()))
	mock.ExpectExec("UPDATE users SET is_verified = FALSE, service_id = NULL").
		WithArgs(id).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("DELETE FROM service_requests").
		WithArgs(id).
		WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectExec("DELETE FROM services").
		WithArgs(id).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	res, err := repo.DeleteCascade(context.Background(), id)

	require.NoError(t, err)
	assert.Equal(t, int64(2), res.UnlinkedProfessionals)
	assert.Equal(t, int64(4), res.DeletedRequests)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestServiceRepository_DeleteCascade_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewServiceRepository(db)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id FROM services").
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	_, err := repo.DeleteCascade(context.Background(), id)

	assert.ErrorIs(t, err, apperror.ErrServiceNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestServiceRepository_Search_ByServiceName(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewServiceRepository(db)

	mock.ExpectQuery("FROM services WHERE name ILIKE").
		WithArgs("%убор%").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "description", "base_price", "estimated_duration", "location", "created_at", "updated_at"}))

	items, err := repo.Search(context.Background(), "service_name", "убор")

	require.NoError(t, err)
	assert.Empty(t, items)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestServiceRepository_Search_ByPincodeSkipsBlockedProfessionals(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewServiceRepository(db)

	mock.ExpectQuery(`u\.is_verified = TRUE\s+AND u\.is_blocked = FALSE AND u\.pincode ILIKE \$1`).
		WithArgs("%1010%").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "description", "base_price", "estimated_duration", "location", "created_at", "updated_at"}))

	items, err := repo.Search(context.Background(), "pincode", "1010")

	require.NoError(t, err)
	assert.Empty(t, items)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPrefixed(t *testing.T) {
	assert.Equal(t, "s.id, s.name", prefixed("s", "id,\n\tname"))
}
