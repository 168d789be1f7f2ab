package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/student-directory-api/internal/models"
	appErrors "github.com/noah-isme/student-directory-api/pkg/errors"
)

const auditResourceAuth = "auth"

var (
	dummyHashOnce sync.Once
	dummyHash     []byte
)

// compareDummyHash spends one bcrypt comparison at the registration cost so
// an unknown identifier takes about as long as a wrong password.
func compareDummyHash(password string) {
	dummyHashOnce.Do(func() {
		dummyHash, _ = bcrypt.GenerateFromPassword([]byte(uuid.NewString()), bcrypt.DefaultCost)
	})
	_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
}

type credentialResolver interface {
	Resolve(ctx context.Context, identifier string) (*models.User, error)
}

type authUserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id string, ts time.Time) error
}

type authProfileRepository interface {
	FindByUniID(ctx context.Context, uniID string) (*models.StudentProfile, error)
}

type authTokenRepository interface {
	CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error
	FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error)
	RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error
	RevokeAccessToken(ctx context.Context, token *models.RevokedToken) error
	IsAccessTokenRevoked(ctx context.Context, jti string) (bool, error)
}

// AuthConfig defines configuration for authentication flows.
type AuthConfig struct {
	AccessTokenSecret  string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
	Issuer             string
}

// AuthService provides login, token refresh, logout and token validation.
type AuthService struct {
	resolver   credentialResolver
	users      authUserRepository
	profiles   authProfileRepository
	tokens     authTokenRepository
	audit      *AuditService
	metrics    *MetricsService
	validator  *validator.Validate
	logger     *zap.Logger
	config     AuthConfig
	now        func() time.Time
	// unresolved runs in place of the password check when no account matches.
	unresolved func(password string)
}

// NewAuthService constructs an AuthService instance. audit and metrics may be nil.
func NewAuthService(resolver credentialResolver, users authUserRepository, profiles authProfileRepository, tokens authTokenRepository,
	audit *AuditService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = NewValidator()
	}
	return &AuthService{
		resolver:   resolver,
		users:      users,
		profiles:   profiles,
		tokens:     tokens,
		audit:      audit,
		metrics:    metrics,
		validator:  validate,
		logger:     logger,
		config:     config,
		now:        func() time.Time { return time.Now().UTC() },
		unresolved: compareDummyHash,
	}
}

// Login authenticates the identifier/password pair and issues tokens. Every
// failing factor (unknown identifier, wrong password, inactive account)
// produces the same INVALID_CREDENTIALS error.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation("invalid login payload", validationFields(err))
	}

	user, err := s.resolver.Resolve(ctx, req.Username)
	if err != nil {
		s.unresolved(req.Password)
		if errors.Is(err, errIntegrityFault) {
			s.metrics.ObserveLogin(LoginOutcomeIntegrity)
		}
		return nil, s.rejectLogin(req, "unresolved")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, s.rejectLogin(req, "password")
	}
	if !user.Active {
		return nil, s.rejectLogin(req, "inactive")
	}

	issuedAt := s.now()
	accessToken, _, err := s.generateAccessToken(user, issuedAt)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create access token")
	}

	refreshTokenValue, err := generateRefreshTokenString()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create refresh token")
	}
	refreshToken := &models.RefreshToken{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Token:     refreshTokenValue,
		ExpiresAt: issuedAt.Add(s.config.RefreshTokenExpiry),
		CreatedAt: issuedAt,
		IPAddress: req.IP,
		UserAgent: req.UserAgent,
	}
	if err := s.tokens.CreateRefreshToken(ctx, refreshToken); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist refresh token")
	}

	if err := s.users.UpdateLastLogin(ctx, user.ID, issuedAt); err != nil {
		s.logger.Warn("failed to update last login", zap.String("user_id", user.ID), zap.Error(err))
	}

	s.metrics.ObserveLogin(LoginOutcomeSuccess)
	s.audit.Record(AuditEvent{
		UserID:     user.ID,
		Action:     models.AuditActionLogin,
		Resource:   auditResourceAuth,
		ResourceID: user.ID,
		After:      map[string]string{"status": "success"},
		IP:         req.IP,
		UserAgent:  req.UserAgent,
	})

	return &models.LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken.Token,
		ExpiresIn:    int64(s.config.AccessTokenExpiry.Seconds()),
		IssuedAt:     issuedAt,
		User:         s.userInfo(ctx, user),
	}, nil
}

func (s *AuthService) rejectLogin(req models.LoginRequest, reason string) error {
	s.metrics.ObserveLogin(LoginOutcomeFailure)
	s.logger.Info("login rejected", zap.String("reason", reason), zap.String("ip", req.IP))
	s.audit.Record(AuditEvent{
		Action:    models.AuditActionLoginFailed,
		Resource:  auditResourceAuth,
		After:     map[string]string{"identifier": req.Username},
		IP:        req.IP,
		UserAgent: req.UserAgent,
	})
	return appErrors.ErrInvalidCredentials
}

// userInfo builds the account block of the login response. The role is "CR"
// or "Student" when a profile carries the account's username as its
// university ID, and null otherwise.
func (s *AuthService) userInfo(ctx context.Context, user *models.User) models.UserInfo {
	info := models.UserInfo{ID: user.ID, Username: user.Username, Email: user.Email}

	profile, err := s.profiles.FindByUniID(ctx, user.Username)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("failed to load profile for login", zap.String("user_id", user.ID), zap.Error(err))
		}
		return info
	}

	role := models.RoleStudent
	if profile.IsCR {
		role = models.RoleCR
	}
	info.Role = &role
	info.StudentProfile = &models.ProfileSummary{
		FirstName:  profile.FirstName,
		LastName:   profile.LastName,
		UniID:      profile.UniID,
		Batch:      profile.Batch.Label(),
		IsVerified: profile.IsVerified,
		IsCR:       profile.IsCR,
	}
	return info
}

// RefreshToken exchanges a refresh token for a new access token. The refresh
// token itself stays valid until it expires or is revoked.
func (s *AuthService) RefreshToken(ctx context.Context, req models.RefreshTokenRequest) (*models.RefreshTokenResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation("invalid refresh payload", validationFields(err))
	}

	stored, err := s.tokens.FindRefreshToken(ctx, req.RefreshToken)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "token is invalid or expired")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch refresh token")
	}

	now := s.now()
	if stored.Revoked || now.After(stored.ExpiresAt) {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "token is invalid or expired")
	}

	user, err := s.users.FindByID(ctx, stored.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "token is invalid or expired")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	if !user.Active {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "token is invalid or expired")
	}

	accessToken, _, err := s.generateAccessToken(user, now)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate access token")
	}

	return &models.RefreshTokenResponse{
		AccessToken: accessToken,
		ExpiresIn:   int64(s.config.AccessTokenExpiry.Seconds()),
		IssuedAt:    now,
	}, nil
}

// Logout blacklists the presented access token and revokes the refresh token
// when one is supplied. Missing, malformed or foreign tokens are ignored so
// the call is idempotent.
func (s *AuthService) Logout(ctx context.Context, req models.LogoutRequest) error {
	var userID string

	if req.AccessToken != "" {
		claims, err := s.parseToken(req.AccessToken)
		if err == nil && claims.ID != "" {
			userID = claims.UserID
			revoked := &models.RevokedToken{JTI: claims.ID, UserID: claims.UserID, RevokedAt: s.now()}
			if claims.ExpiresAt != nil {
				revoked.ExpiresAt = claims.ExpiresAt.Time
			} else {
				revoked.ExpiresAt = s.now().Add(s.config.AccessTokenExpiry)
			}
			if err := s.tokens.RevokeAccessToken(ctx, revoked); err != nil {
				return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to revoke access token")
			}
		}
	}

	if req.RefreshToken != "" {
		stored, err := s.tokens.FindRefreshToken(ctx, req.RefreshToken)
		switch {
		case err == nil:
			if userID == "" || stored.UserID == userID {
				if err := s.tokens.RevokeRefreshToken(ctx, stored.ID, s.now()); err != nil {
					return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to revoke refresh token")
				}
				userID = stored.UserID
			}
		case errors.Is(err, sql.ErrNoRows):
		default:
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load refresh token")
		}
	}

	if userID != "" {
		s.audit.Record(AuditEvent{
			UserID:     userID,
			Action:     models.AuditActionLogout,
			Resource:   auditResourceAuth,
			ResourceID: userID,
			IP:         req.IP,
			UserAgent:  req.UserAgent,
		})
	}
	return nil
}

// ValidateToken parses an access token and rejects it when it has been
// revoked by logout.
func (s *AuthService) ValidateToken(ctx context.Context, tokenString string) (*models.JWTClaims, error) {
	claims, err := s.parseToken(tokenString)
	if err != nil {
		return nil, err
	}

	revoked, err := s.tokens.IsAccessTokenRevoked(ctx, claims.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check token status")
	}
	if revoked {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "token has been revoked")
	}
	return claims, nil
}

func (s *AuthService) parseToken(tokenString string) (*models.JWTClaims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if s.config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.config.Issuer))
	}
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.config.AccessTokenSecret), nil
	}, opts...)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid || claims.ID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}
	return claims, nil
}

func (s *AuthService) generateAccessToken(user *models.User, issuedAt time.Time) (string, time.Time, error) {
	expiresAt := issuedAt.Add(s.config.AccessTokenExpiry)
	claims := &models.JWTClaims{
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.config.Issuer,
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.AccessTokenSecret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign access token: %w", err)
	}
	return signed, expiresAt, nil
}

func generateRefreshTokenString() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
