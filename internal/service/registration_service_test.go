package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"

	"github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/student-directory-api/internal/dto"
	"github.com/noah-isme/student-directory-api/internal/models"
	"github.com/noah-isme/student-directory-api/pkg/database"
	appErrors "github.com/noah-isme/student-directory-api/pkg/errors"
)

// directoryStore is an in-memory stand-in for the account and profile tables.
type directoryStore struct {
	users     []*models.User
	profiles  []*models.StudentProfile
	batches   map[string]models.Batch
	programs  map[string]models.Program
	createErr error
	seq       int
}

func newDirectoryStore() *directoryStore {
	return &directoryStore{
		batches:  map[string]models.Batch{defaultBatch.Title: defaultBatch},
		programs: map[string]models.Program{"Finance": {ID: "pr-fin", Name: "Finance"}},
	}
}

func (d *directoryStore) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	for _, u := range d.users {
		if u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (d *directoryStore) userEmailTaken(email, excludeID string) bool {
	for _, u := range d.users {
		if u.Email != "" && u.Email == email && u.ID != excludeID {
			return true
		}
	}
	return false
}

func (d *directoryStore) ExistsByUniID(ctx context.Context, uniID, excludeID string) (bool, error) {
	for _, p := range d.profiles {
		if p.UniID == uniID && p.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (d *directoryStore) profileEmailTaken(email, excludeID string) bool {
	for _, p := range d.profiles {
		if p.Email != "" && p.Email == email && p.ID != excludeID {
			return true
		}
	}
	return false
}

func (d *directoryStore) FindByTitle(ctx context.Context, title string) (*models.Batch, error) {
	b, ok := d.batches[title]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &b, nil
}

func (d *directoryStore) FindByName(ctx context.Context, name string) (*models.Program, error) {
	p, ok := d.programs[name]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &p, nil
}

func (d *directoryStore) CreateAccountAndProfile(ctx context.Context, user *models.User, profile *models.StudentProfile) error {
	if d.createErr != nil {
		return d.createErr
	}
	d.seq++
	user.ID = fmt.Sprintf("u%d", d.seq)
	profile.ID = fmt.Sprintf("p%d", d.seq)
	d.users = append(d.users, user)
	d.profiles = append(d.profiles, profile)
	return nil
}

// The two ExistsByEmail methods differ only by table, so they hang off thin
// views of the store.
type userView struct{ *directoryStore }

func (v userView) ExistsByEmail(ctx context.Context, email, excludeID string) (bool, error) {
	return v.userEmailTaken(email, excludeID), nil
}

type profileView struct{ *directoryStore }

func (v profileView) ExistsByEmail(ctx context.Context, email, excludeID string) (bool, error) {
	return v.profileEmailTaken(email, excludeID), nil
}

type countingInvalidator struct{ calls int }

func (c *countingInvalidator) InvalidateSearch(ctx context.Context) { c.calls++ }

func newRegistrationFixture() (*RegistrationService, *directoryStore, *countingInvalidator, *MetricsService) {
	store := newDirectoryStore()
	cache := &countingInvalidator{}
	metrics := NewMetricsService()
	svc := NewRegistrationService(userView{store}, profileView{store}, store, store, store, cache, nil, metrics, nil, nil)
	return svc, store, cache, metrics
}

func validRegistration() dto.RegisterRequest {
	return dto.RegisterRequest{
		Username:  "1810001",
		Password:  "s3cret-pass",
		Email:     "rahim@mail.com",
		FirstName: "Rahim",
		LastName:  "Uddin",
		Batch:     "BBA 5",
	}
}

func TestRegisterCreatesAccountAndProfile(t *testing.T) {
	svc, store, cache, metrics := newRegistrationFixture()
	req := validRegistration()
	req.Program = strPtr("Finance")
	req.Phone = strPtr(" 01711111111 ")
	req.Bio = strPtr("   ")

	resp, err := svc.Register(context.Background(), req, "127.0.0.1", "test")
	require.NoError(t, err)

	assert.Equal(t, msgRegistrationOK, resp.Message)
	assert.Equal(t, "1810001", resp.User.Username)
	require.NotNil(t, resp.User.Email)
	assert.Equal(t, "rahim@mail.com", *resp.User.Email)
	assert.Equal(t, "1810001", resp.StudentProfile.UniID)
	assert.Equal(t, "BBA 5", resp.StudentProfile.Batch)
	require.NotNil(t, resp.StudentProfile.Country)
	assert.Equal(t, DefaultCountry, *resp.StudentProfile.Country)
	assert.False(t, resp.StudentProfile.IsVerified)

	require.Len(t, store.users, 1)
	require.Len(t, store.profiles, 1)
	user, profile := store.users[0], store.profiles[0]
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("s3cret-pass")))
	assert.True(t, user.Active)
	assert.Equal(t, user.Username, profile.UniID)
	assert.Equal(t, "pr-fin", *profile.ProgramID)
	assert.Equal(t, "01711111111", *profile.Phone)
	assert.Nil(t, profile.Bio)

	assert.Equal(t, 1, cache.calls)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.registrations))
}

func TestRegisterFallsBackToEmailAsUsername(t *testing.T) {
	svc, store, _, _ := newRegistrationFixture()
	req := validRegistration()
	req.Username = ""

	resp, err := svc.Register(context.Background(), req, "", "")
	require.NoError(t, err)
	assert.Equal(t, "rahim@mail.com", resp.User.Username)
	assert.Equal(t, "rahim@mail.com", store.profiles[0].UniID)
}

func TestRegisterRequiresAnIdentifier(t *testing.T) {
	svc, store, _, _ := newRegistrationFixture()
	req := validRegistration()
	req.Username, req.Email = "", ""

	_, err := svc.Register(context.Background(), req, "", "")
	appErr := appErrors.FromError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Equal(t, []string{msgIdentifierRequired}, appErr.Details["username"])
	assert.Empty(t, store.users)
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	svc, store, cache, _ := newRegistrationFixture()
	_, err := svc.Register(context.Background(), validRegistration(), "", "")
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), validRegistration(), "", "")
	appErr := appErrors.FromError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, 400, appErr.Status)
	assert.Equal(t, msgRegistrationFailed, appErr.Message)
	require.Len(t, appErr.Details["username"], 1)
	assert.True(t, strings.HasSuffix(appErr.Details["username"][0], "already exists."))
	assert.Equal(t, []string{msgUserEmailTaken}, appErr.Details["email"])
	assert.Len(t, store.users, 1)
	assert.Equal(t, 1, cache.calls)
}

func TestRegisterRejectsOrphanProfileClash(t *testing.T) {
	svc, store, _, _ := newRegistrationFixture()
	orphan := newProfile("p-orphan", "Old", "Entry", "1810001", withEmail("old@mail.com"))
	store.profiles = append(store.profiles, &orphan)

	req := validRegistration()
	req.Email = "old@mail.com"
	_, err := svc.Register(context.Background(), req, "", "")
	appErr := appErrors.FromError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, []string{msgProfileUniIDTaken}, appErr.Details["username"])
	assert.Equal(t, []string{msgProfileEmailTaken}, appErr.Details["email"])
}

func TestRegisterReportsUnknownBatchAndProgram(t *testing.T) {
	svc, _, _, _ := newRegistrationFixture()
	req := validRegistration()
	req.Batch = "MBA 1"
	req.Program = strPtr("Astrology")

	_, err := svc.Register(context.Background(), req, "", "")
	appErr := appErrors.FromError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, []string{"Batch 'MBA 1' does not exist."}, appErr.Details["batch"])
	assert.Equal(t, []string{"Program 'Astrology' does not exist."}, appErr.Details["program"])
}

func TestRegisterValidatesFieldsTogether(t *testing.T) {
	svc, _, _, _ := newRegistrationFixture()
	req := dto.RegisterRequest{Username: strings.Repeat("9", 21), Email: "not-an-email"}

	_, err := svc.Register(context.Background(), req, "", "")
	appErr := appErrors.FromError(err)
	require.NotNil(t, appErr)
	for _, field := range []string{"username", "email", "password", "first_name", "last_name", "batch"} {
		assert.Contains(t, appErr.Details, field)
	}
	assert.Equal(t, []string{msgFieldRequired}, appErr.Details["password"])
}

func TestRegisterMapsRacedUniqueViolation(t *testing.T) {
	svc, store, cache, _ := newRegistrationFixture()
	store.createErr = fmt.Errorf("insert profile: %w", &pq.Error{Code: database.UniqueViolation, Constraint: "student_profiles_uni_id_key"})

	_, err := svc.Register(context.Background(), validRegistration(), "", "")
	appErr := appErrors.FromError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Equal(t, []string{msgUserUniIDTaken}, appErr.Details["username"])
	assert.Zero(t, cache.calls)
}

func TestConstraintFields(t *testing.T) {
	assert.Contains(t, constraintFields("users_email_key"), "email")
	assert.Contains(t, constraintFields("users_username_key"), "username")
	assert.Contains(t, constraintFields("something_else"), "non_field_errors")
}
