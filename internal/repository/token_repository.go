package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/student-directory-api/internal/models"
)

// TokenRepository persists refresh tokens and the access-token blacklist.
type TokenRepository struct {
	db *sqlx.DB
}

// NewTokenRepository creates a new instance of TokenRepository.
func NewTokenRepository(db *sqlx.DB) *TokenRepository {
	return &TokenRepository{db: db}
}

// CreateRefreshToken persists a refresh token entry.
func (r *TokenRepository) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	if token.ID == "" {
		token.ID = uuid.NewString()
	}
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO refresh_tokens (id, user_id, token, expires_at, created_at, revoked, revoked_at, ip_address, user_agent) VALUES (:id, :user_id, :token, :expires_at, :created_at, :revoked, :revoked_at, :ip_address, :user_agent)`
	if _, err := r.db.NamedExecContext(ctx, query, token); err != nil {
		return fmt.Errorf("create refresh token: %w", err)
	}
	return nil
}

// FindRefreshToken returns a refresh token by its opaque value.
func (r *TokenRepository) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	const query = `SELECT id, user_id, token, expires_at, created_at, revoked, revoked_at, ip_address, user_agent FROM refresh_tokens WHERE token = $1 LIMIT 1`
	var rt models.RefreshToken
	if err := r.db.GetContext(ctx, &rt, query, token); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find refresh token: %w", err)
	}
	return &rt, nil
}

// RevokeRefreshToken marks a refresh token as revoked.
func (r *TokenRepository) RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error {
	const query = `UPDATE refresh_tokens SET revoked = TRUE, revoked_at = $2 WHERE id = $1 AND revoked = FALSE`
	if _, err := r.db.ExecContext(ctx, query, id, revokedAt); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

// RevokeAccessToken blacklists an access token jti. Revoking twice is a no-op.
func (r *TokenRepository) RevokeAccessToken(ctx context.Context, token *models.RevokedToken) error {
	if token.RevokedAt.IsZero() {
		token.RevokedAt = time.Now().UTC()
	}
	const query = `INSERT INTO revoked_tokens (jti, user_id, expires_at, revoked_at) VALUES (:jti, :user_id, :expires_at, :revoked_at) ON CONFLICT (jti) DO NOTHING`
	if _, err := r.db.NamedExecContext(ctx, query, token); err != nil {
		return fmt.Errorf("revoke access token: %w", err)
	}
	return nil
}

// IsAccessTokenRevoked reports whether jti has been blacklisted.
func (r *TokenRepository) IsAccessTokenRevoked(ctx context.Context, jti string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM revoked_tokens WHERE jti = $1)`
	var revoked bool
	if err := r.db.GetContext(ctx, &revoked, query, jti); err != nil {
		return false, fmt.Errorf("check revoked token: %w", err)
	}
	return revoked, nil
}

// PurgeExpired drops blacklist entries and refresh tokens that can no longer
// be presented.
func (r *TokenRepository) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	var total int64
	for _, query := range []string{
		`DELETE FROM revoked_tokens WHERE expires_at < $1`,
		`DELETE FROM refresh_tokens WHERE expires_at < $1`,
	} {
		res, err := r.db.ExecContext(ctx, query, now)
		if err != nil {
			return total, fmt.Errorf("purge expired tokens: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil {
			total += n
		}
	}
	return total, nil
}
