package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/student-directory-api/internal/models"
	"github.com/noah-isme/student-directory-api/pkg/database"
)

// RegistrationRepository creates an account and its profile as one unit.
type RegistrationRepository struct {
	db *sqlx.DB
}

// NewRegistrationRepository creates a new instance of RegistrationRepository.
func NewRegistrationRepository(db *sqlx.DB) *RegistrationRepository {
	return &RegistrationRepository{db: db}
}

// CreateAccountAndProfile inserts user and profile in a single transaction.
// Nothing is persisted when either insert fails.
func (r *RegistrationRepository) CreateAccountAndProfile(ctx context.Context, user *models.User, profile *models.StudentProfile) error {
	now := time.Now().UTC()
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if profile.ID == "" {
		profile.ID = uuid.NewString()
	}
	user.CreatedAt, user.UpdatedAt = now, now
	profile.CreatedAt, profile.UpdatedAt = now, now

	return database.InTx(ctx, r.db, func(tx *sqlx.Tx) error {
		const insertUser = `INSERT INTO users (id, username, email, password_hash, first_name, last_name, active, created_at, updated_at)
VALUES (:id, :username, :email, :password_hash, :first_name, :last_name, :active, :created_at, :updated_at)`
		if _, err := tx.NamedExecContext(ctx, insertUser, user); err != nil {
			return fmt.Errorf("create user: %w", err)
		}

		const insertProfile = `INSERT INTO student_profiles (id, first_name, last_name, uni_id, email, phone, bio, profile_pic, country,
	current_job_position, current_company, linkedin, facebook, instagram, is_cr, is_verified, batch_id, program_id, created_at, updated_at)
VALUES (:id, :first_name, :last_name, :uni_id, :email, :phone, :bio, :profile_pic, :country,
	:current_job_position, :current_company, :linkedin, :facebook, :instagram, :is_cr, :is_verified, :batch_id, :program_id, :created_at, :updated_at)`
		if _, err := tx.NamedExecContext(ctx, insertProfile, profile); err != nil {
			return fmt.Errorf("create student profile: %w", err)
		}
		return nil
	})
}
