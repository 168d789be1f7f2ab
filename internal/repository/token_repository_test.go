package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/student-directory-api/internal/models"
)

func TestCreateRefreshToken(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTokenRepository(db)

	mock.ExpectExec("INSERT INTO refresh_tokens").WillReturnResult(sqlmock.NewResult(1, 1))

	token := &models.RefreshToken{UserID: "u1", Token: "opaque", ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, repo.CreateRefreshToken(context.Background(), token))
	assert.NotEmpty(t, token.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRevokeAccessTokenIsIdempotentInsert(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTokenRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (jti) DO NOTHING")).WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.RevokeAccessToken(context.Background(), &models.RevokedToken{JTI: "j1", UserID: "u1", ExpiresAt: time.Now()})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIsAccessTokenRevoked(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTokenRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS(SELECT 1 FROM revoked_tokens WHERE jti = $1)")).
		WithArgs("j1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	revoked, err := repo.IsAccessTokenRevoked(context.Background(), "j1")
	require.NoError(t, err)
	assert.True(t, revoked)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPurgeExpired(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTokenRepository(db)

	now := time.Now().UTC()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM revoked_tokens")).WithArgs(now).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM refresh_tokens")).WithArgs(now).WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := repo.PurgeExpired(context.Background(), now)
	require.NoError(t, err)
	assert.EqualValues(t, 5, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditCreate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAuditRepository(db)

	mock.ExpectExec("INSERT INTO audit_logs").WillReturnResult(sqlmock.NewResult(1, 1))

	entry := &models.AuditLog{Action: models.AuditActionLogin, Resource: "auth"}
	require.NoError(t, repo.Create(context.Background(), entry))
	assert.NotEmpty(t, entry.ID)
	assert.False(t, entry.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}
