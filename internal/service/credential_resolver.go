package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/student-directory-api/internal/models"
)

// ErrCredentialUnresolved is returned whenever an identifier does not map to
// exactly one account. Callers must not distinguish its causes to clients.
var ErrCredentialUnresolved = errors.New("credential could not be resolved")

// errIntegrityFault marks a profile that matched the identifier but has no
// account. It still satisfies errors.Is(err, ErrCredentialUnresolved).
var errIntegrityFault = fmt.Errorf("%w: profile without account", ErrCredentialUnresolved)

type credentialUserRepository interface {
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

type credentialProfileRepository interface {
	FindByEmailOrPhone(ctx context.Context, identifier string) (*models.StudentProfile, error)
}

// CredentialResolver maps a login identifier (university ID, email or phone)
// to an account.
type CredentialResolver struct {
	users    credentialUserRepository
	profiles credentialProfileRepository
	logger   *zap.Logger
}

// NewCredentialResolver constructs a CredentialResolver.
func NewCredentialResolver(users credentialUserRepository, profiles credentialProfileRepository, logger *zap.Logger) *CredentialResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CredentialResolver{users: users, profiles: profiles, logger: logger}
}

// Resolve tries, in order: account username, account email, then a profile
// whose email or phone matches followed by the account named after that
// profile's university ID. The first hit wins. Every failure, including
// repository errors, yields ErrCredentialUnresolved.
func (r *CredentialResolver) Resolve(ctx context.Context, identifier string) (*models.User, error) {
	if strings.TrimSpace(identifier) == "" {
		return nil, ErrCredentialUnresolved
	}

	user, err := r.users.FindByUsername(ctx, identifier)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, r.failClosed("username", err)
	}

	user, err = r.users.FindByEmail(ctx, identifier)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, r.failClosed("email", err)
	}

	profile, err := r.profiles.FindByEmailOrPhone(ctx, identifier)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCredentialUnresolved
		}
		return nil, r.failClosed("profile", err)
	}

	user, err = r.users.FindByUsername(ctx, profile.UniID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.logger.Error("profile has no matching account",
				zap.String("profile_id", profile.ID),
				zap.String("uni_id", profile.UniID))
			return nil, errIntegrityFault
		}
		return nil, r.failClosed("profile account", err)
	}
	return user, nil
}

func (r *CredentialResolver) failClosed(step string, err error) error {
	r.logger.Error("credential lookup failed", zap.String("step", step), zap.Error(err))
	return ErrCredentialUnresolved
}
