package database

import (
	"context"
	"errors"
	"fmt"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInTxCommits(t *testing.T) {
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer raw.Close()
	db := sqlx.NewDb(raw, "postgres")

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO batches").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err = InTx(context.Background(), db, func(tx *sqlx.Tx) error {
		_, execErr := tx.Exec("INSERT INTO batches (title) VALUES ('GEN1')")
		return execErr
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInTxRollsBackOnError(t *testing.T) {
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer raw.Close()
	db := sqlx.NewDb(raw, "postgres")

	mock.ExpectBegin()
	mock.ExpectRollback()

	boom := errors.New("boom")
	err = InTx(context.Background(), db, func(tx *sqlx.Tx) error { return boom })
	require.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUniqueConstraint(t *testing.T) {
	wrapped := fmt.Errorf("insert user: %w", &pq.Error{Code: UniqueViolation, Constraint: "users_username_key"})
	name, ok := UniqueConstraint(wrapped)
	assert.True(t, ok)
	assert.Equal(t, "users_username_key", name)

	_, ok = UniqueConstraint(&pq.Error{Code: "23503"})
	assert.False(t, ok)
	_, ok = UniqueConstraint(errors.New("plain"))
	assert.False(t, ok)
}
