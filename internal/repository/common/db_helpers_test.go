package common

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContainsPattern_EscapesWildcards(t *testing.T) {
	assert.Equal(t, "%abc%", ContainsPattern("abc"))
	assert.Equal(t, `%50\%\_off\\%`, ContainsPattern(`50%_off\`))
}

func TestWithTransaction_RollbackOnError(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()
	db := sqlx.NewDb(mockDB, "sqlmock")

	mock.ExpectBegin()
	mock.ExpectRollback()

	boom := errors.New("boom")
	err = WithTransaction(context.Background(), db, func(tx *sqlx.Tx) error {
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTransaction_Commit(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()
	db := sqlx.NewDb(mockDB, "sqlmock")

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE services").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err = WithTransaction(context.Background(), db, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(context.Background(), "UPDATE services SET name = name")
		return err
	})

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIsUniqueViolation(t *testing.T) {
	err := &pq.Error{Code: "23505", Constraint: "users_username_key"}

	assert.True(t, IsUniqueViolation(err, ""))
	assert.True(t, IsUniqueViolation(err, "users_username_key"))
	assert.False(t, IsUniqueViolation(err, "services_name_key"))
	assert.False(t, IsUniqueViolation(errors.New("x"), ""))
}
