package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/student-directory-api/internal/models"
)

var profileRowColumns = []string{
	"id", "first_name", "last_name", "uni_id", "email", "phone", "bio", "profile_pic", "country",
	"current_job_position", "current_company", "linkedin", "facebook", "instagram", "is_cr", "is_verified",
	"batch_id", "program_id", "created_at", "updated_at",
	"batch.id", "batch.title", "batch.session", "program_name",
}

func TestProfileListAllLoadsBatchAndProgram(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewProfileRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(profileRowColumns).
		AddRow("p1", "Rahim", "Uddin", "1810001", "rahim@example.com", "01711", nil, nil, "Bangladesh",
			"Engineer", "Google", nil, nil, nil, true, false,
			"b1", "pr1", now, now,
			"b1", "BBA 5", "2013-14", "Finance").
		AddRow("p2", "Karim", "Ali", "1810002", "karim@example.com", nil, nil, nil, nil,
			nil, nil, nil, nil, nil, false, false,
			"b1", nil, now, now,
			"b1", "BBA 5", "2013-14", nil)
	mock.ExpectQuery(regexp.QuoteMeta("FROM student_profiles p")).WillReturnRows(rows)

	profiles, err := repo.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, profiles, 2)

	assert.Equal(t, "BBA 5", profiles[0].Batch.Title)
	assert.Equal(t, "2013-14", profiles[0].Batch.Session)
	require.NotNil(t, profiles[0].Program)
	assert.Equal(t, "Finance", profiles[0].Program.Name)
	assert.Equal(t, "Google", *profiles[0].CurrentCompany)

	assert.Nil(t, profiles[1].Program)
	assert.Nil(t, profiles[1].Phone)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileFindByEmailOrPhoneSingleQuery(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewProfileRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(profileRowColumns).
		AddRow("p1", "Rahim", "Uddin", "1810001", "rahim@example.com", "01711", nil, nil, nil,
			nil, nil, nil, nil, nil, false, false, "b1", nil, now, now, "b1", "BBA 5", "2013-14", nil)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE p.email = $1 OR p.phone = $1")).
		WithArgs("01711").
		WillReturnRows(rows)

	p, err := repo.FindByEmailOrPhone(context.Background(), "01711")
	require.NoError(t, err)
	assert.Equal(t, "1810001", p.UniID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileFindByIDNotFound(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewProfileRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE p.id = $1")).WithArgs("missing").WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileExistsByUniIDExcludesSelf(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewProfileRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM student_profiles WHERE uni_id = $1 AND id::text <> $2")).
		WithArgs("1810001", "p1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	exists, err := repo.ExistsByUniID(context.Background(), "1810001", "p1")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileUpdateNeverWritesVerification(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewProfileRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE student_profiles SET first_name = ")).
		WithArgs("Rahim", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), false, "b1", sqlmock.AnyArg(), sqlmock.AnyArg(), "p1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Update(context.Background(), &models.StudentProfile{ID: "p1", FirstName: "Rahim", IsVerified: true, BatchID: "b1"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileUpdateMissingRow(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewProfileRepository(db)

	mock.ExpectExec("UPDATE student_profiles").WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), &models.StudentProfile{ID: "ghost"})
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProgramFindByNameNotFound(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewProgramRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM programs WHERE name = $1")).
		WithArgs("Unknown").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByName(context.Background(), "Unknown")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
