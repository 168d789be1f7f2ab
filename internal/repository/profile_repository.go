package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/student-directory-api/internal/models"
)

const profileSelect = `SELECT p.id, p.first_name, p.last_name, p.uni_id, p.email, p.phone, p.bio, p.profile_pic, p.country,
	p.current_job_position, p.current_company, p.linkedin, p.facebook, p.instagram, p.is_cr, p.is_verified,
	p.batch_id, p.program_id, p.created_at, p.updated_at,
	b.id AS "batch.id", b.title AS "batch.title", b.session AS "batch.session",
	pr.name AS program_name
FROM student_profiles p
JOIN batches b ON b.id = p.batch_id
LEFT JOIN programs pr ON pr.id = p.program_id`

type profileRow struct {
	models.StudentProfile
	ProgramName *string `db:"program_name"`
}

func (row profileRow) toModel() models.StudentProfile {
	p := row.StudentProfile
	if p.ProgramID != nil && row.ProgramName != nil {
		p.Program = &models.Program{ID: *p.ProgramID, Name: *row.ProgramName}
	}
	return p
}

// ProfileRepository provides database access for student profiles with their
// batch and program loaded.
type ProfileRepository struct {
	db *sqlx.DB
}

// NewProfileRepository creates a new instance of ProfileRepository.
func NewProfileRepository(db *sqlx.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// ListAll returns every profile. Ordering is left to the caller.
func (r *ProfileRepository) ListAll(ctx context.Context) ([]models.StudentProfile, error) {
	var rows []profileRow
	if err := r.db.SelectContext(ctx, &rows, profileSelect); err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	profiles := make([]models.StudentProfile, 0, len(rows))
	for _, row := range rows {
		profiles = append(profiles, row.toModel())
	}
	return profiles, nil
}

// FindByID returns a profile by identifier.
func (r *ProfileRepository) FindByID(ctx context.Context, id string) (*models.StudentProfile, error) {
	return r.getOne(ctx, "find profile by id", profileSelect+` WHERE p.id = $1 LIMIT 1`, id)
}

// FindByUniID returns the profile registered under uniID.
func (r *ProfileRepository) FindByUniID(ctx context.Context, uniID string) (*models.StudentProfile, error) {
	return r.getOne(ctx, "find profile by uni id", profileSelect+` WHERE p.uni_id = $1 LIMIT 1`, uniID)
}

// FindByEmailOrPhone returns the first profile whose email or phone equals
// identifier, in a single query.
func (r *ProfileRepository) FindByEmailOrPhone(ctx context.Context, identifier string) (*models.StudentProfile, error) {
	return r.getOne(ctx, "find profile by email or phone", profileSelect+` WHERE p.email = $1 OR p.phone = $1 ORDER BY p.created_at, p.id LIMIT 1`, identifier)
}

func (r *ProfileRepository) getOne(ctx context.Context, op, query string, args ...interface{}) (*models.StudentProfile, error) {
	var row profileRow
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	p := row.toModel()
	return &p, nil
}

// ExistsByUniID reports whether a profile other than excludeID uses uniID.
func (r *ProfileRepository) ExistsByUniID(ctx context.Context, uniID, excludeID string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM student_profiles WHERE uni_id = $1 AND id::text <> $2)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, uniID, excludeID); err != nil {
		return false, fmt.Errorf("check uni id: %w", err)
	}
	return exists, nil
}

// ExistsByEmail reports whether a profile other than excludeID uses email.
func (r *ProfileRepository) ExistsByEmail(ctx context.Context, email, excludeID string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM student_profiles WHERE email = $1 AND id::text <> $2)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, email, excludeID); err != nil {
		return false, fmt.Errorf("check profile email: %w", err)
	}
	return exists, nil
}

// Update persists the writable columns of profile. is_verified is never
// written here.
func (r *ProfileRepository) Update(ctx context.Context, profile *models.StudentProfile) error {
	profile.UpdatedAt = time.Now().UTC()
	const query = `UPDATE student_profiles SET first_name = :first_name, last_name = :last_name, uni_id = :uni_id, email = :email,
	phone = :phone, bio = :bio, profile_pic = :profile_pic, country = :country, current_job_position = :current_job_position,
	current_company = :current_company, linkedin = :linkedin, facebook = :facebook, instagram = :instagram, is_cr = :is_cr,
	batch_id = :batch_id, program_id = :program_id, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, profile)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
