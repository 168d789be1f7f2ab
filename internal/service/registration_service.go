package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/student-directory-api/internal/dto"
	"github.com/noah-isme/student-directory-api/internal/models"
	"github.com/noah-isme/student-directory-api/pkg/database"
	appErrors "github.com/noah-isme/student-directory-api/pkg/errors"
)

// DefaultCountry is stored when registration omits the country.
const DefaultCountry = "Bangladesh"

const (
	msgRegistrationOK     = "Registration successful"
	msgRegistrationFailed = "Registration failed"

	msgUserUniIDTaken     = "A user with this university ID already exists."
	msgProfileUniIDTaken  = "A student profile with this university ID already exists."
	msgUserEmailTaken     = "A user with this email already exists."
	msgProfileEmailTaken  = "A student profile with this email already exists."
	msgIdentifierRequired = "Either a university ID or an email is required."
)

type registrationUserRepository interface {
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email, excludeID string) (bool, error)
}

type registrationProfileRepository interface {
	ExistsByUniID(ctx context.Context, uniID, excludeID string) (bool, error)
	ExistsByEmail(ctx context.Context, email, excludeID string) (bool, error)
}

type batchFinder interface {
	FindByTitle(ctx context.Context, title string) (*models.Batch, error)
}

type programFinder interface {
	FindByName(ctx context.Context, name string) (*models.Program, error)
}

type registrationWriter interface {
	CreateAccountAndProfile(ctx context.Context, user *models.User, profile *models.StudentProfile) error
}

// searchInvalidator drops cached search responses after directory writes.
type searchInvalidator interface {
	InvalidateSearch(ctx context.Context)
}

// RegistrationService signs up students: one account plus one profile.
type RegistrationService struct {
	users     registrationUserRepository
	profiles  registrationProfileRepository
	batches   batchFinder
	programs  programFinder
	writer    registrationWriter
	cache     searchInvalidator
	audit     *AuditService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewRegistrationService constructs a RegistrationService. cache, audit and
// metrics may be nil.
func NewRegistrationService(users registrationUserRepository, profiles registrationProfileRepository, batches batchFinder, programs programFinder,
	writer registrationWriter, cache searchInvalidator, audit *AuditService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *RegistrationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = NewValidator()
	}
	return &RegistrationService{
		users:     users,
		profiles:  profiles,
		batches:   batches,
		programs:  programs,
		writer:    writer,
		cache:     cache,
		audit:     audit,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
	}
}

// Register validates req and atomically creates the account and its profile.
// Field problems are returned together as a VALIDATION_ERROR.
func (s *RegistrationService) Register(ctx context.Context, req dto.RegisterRequest, ip, userAgent string) (*dto.RegisterResponse, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	req.Batch = strings.TrimSpace(req.Batch)

	fields := appErrors.FieldErrors{}
	if err := s.validator.Struct(req); err != nil {
		fields = validationFields(err)
	}
	if req.Username == "" && req.Email == "" {
		fields.Add("username", msgIdentifierRequired)
	}

	var (
		batch   *models.Batch
		program *models.Program
	)
	if err := s.checkIdentity(ctx, req, fields); err != nil {
		return nil, err
	}
	if _, bad := fields["batch"]; !bad && req.Batch != "" {
		b, err := s.batches.FindByTitle(ctx, req.Batch)
		switch {
		case err == nil:
			batch = b
		case errors.Is(err, sql.ErrNoRows):
			fields.Add("batch", fmt.Sprintf("Batch '%s' does not exist.", req.Batch))
		default:
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load batch")
		}
	}
	if name := trimmed(req.Program); name != "" {
		if _, bad := fields["program"]; !bad {
			p, err := s.programs.FindByName(ctx, name)
			switch {
			case err == nil:
				program = p
			case errors.Is(err, sql.ErrNoRows):
				fields.Add("program", fmt.Sprintf("Program '%s' does not exist.", name))
			default:
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load program")
			}
		}
	}
	if len(fields) > 0 {
		return nil, appErrors.Validation(msgRegistrationFailed, fields)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	username := req.Username
	if username == "" {
		username = req.Email
	}
	user := &models.User{
		Username:     username,
		Email:        req.Email,
		PasswordHash: string(hash),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Active:       true,
	}
	country := DefaultCountry
	if req.Country != nil {
		country = strings.TrimSpace(*req.Country)
	}
	profile := &models.StudentProfile{
		FirstName:          req.FirstName,
		LastName:           req.LastName,
		UniID:              username,
		Email:              req.Email,
		Phone:              nullable(req.Phone),
		Bio:                nullable(req.Bio),
		ProfilePic:         nullable(req.ProfilePic),
		Country:            &country,
		CurrentJobPosition: nullable(req.CurrentPosition),
		CurrentCompany:     nullable(req.CurrentCompany),
		IsCR:               req.IsCR,
		IsVerified:         false,
		BatchID:            batch.ID,
		Batch:              *batch,
	}
	if program != nil {
		profile.ProgramID = &program.ID
		profile.Program = program
	}

	if err := s.writer.CreateAccountAndProfile(ctx, user, profile); err != nil {
		if constraint, ok := database.UniqueConstraint(err); ok {
			return nil, appErrors.Validation(msgRegistrationFailed, constraintFields(constraint))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create account")
	}

	if s.cache != nil {
		s.cache.InvalidateSearch(ctx)
	}
	s.metrics.ObserveRegistration()
	s.audit.Record(AuditEvent{
		UserID:     user.ID,
		Action:     models.AuditActionRegister,
		Resource:   "student_profile",
		ResourceID: profile.ID,
		After:      profile.View(),
		IP:         ip,
		UserAgent:  userAgent,
	})
	s.logger.Info("student registered", zap.String("user_id", user.ID), zap.String("uni_id", profile.UniID))

	resp := &dto.RegisterResponse{
		Message: msgRegistrationOK,
		User: models.UserSummary{
			ID:        user.ID,
			Username:  user.Username,
			FirstName: user.FirstName,
			LastName:  user.LastName,
		},
		StudentProfile: dto.RegisteredProfile{
			UniID:      profile.UniID,
			Batch:      batch.Title,
			Country:    profile.Country,
			IsCR:       profile.IsCR,
			IsVerified: profile.IsVerified,
			ProfilePic: profile.ProfilePic,
		},
	}
	if user.Email != "" {
		email := user.Email
		resp.User.Email = &email
	}
	return resp, nil
}

// checkIdentity records uniqueness clashes for the university ID and email.
func (s *RegistrationService) checkIdentity(ctx context.Context, req dto.RegisterRequest, fields appErrors.FieldErrors) error {
	if req.Username != "" {
		taken, err := s.users.ExistsByUsername(ctx, req.Username)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check university id")
		}
		if taken {
			fields.Add("username", msgUserUniIDTaken)
		} else {
			taken, err = s.profiles.ExistsByUniID(ctx, req.Username, "")
			if err != nil {
				return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check university id")
			}
			if taken {
				fields.Add("username", msgProfileUniIDTaken)
			}
		}
	}

	if req.Email != "" {
		if _, bad := fields["email"]; bad {
			return nil
		}
		taken, err := s.users.ExistsByEmail(ctx, req.Email, "")
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email")
		}
		if taken {
			fields.Add("email", msgUserEmailTaken)
			return nil
		}
		taken, err = s.profiles.ExistsByEmail(ctx, req.Email, "")
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email")
		}
		if taken {
			fields.Add("email", msgProfileEmailTaken)
		}
	}
	return nil
}

// constraintFields maps a unique index raced past the pre-checks onto the
// request field it guards.
func constraintFields(constraint string) appErrors.FieldErrors {
	fields := appErrors.FieldErrors{}
	switch {
	case strings.Contains(constraint, "email"):
		fields.Add("email", msgUserEmailTaken)
	case strings.Contains(constraint, "uni_id"), strings.Contains(constraint, "username"):
		fields.Add("username", msgUserUniIDTaken)
	default:
		fields.Add("non_field_errors", "A record with these details already exists.")
	}
	return fields
}

func trimmed(v *string) string {
	if v == nil {
		return ""
	}
	return strings.TrimSpace(*v)
}

// nullable turns absent or blank input into NULL.
func nullable(v *string) *string {
	t := trimmed(v)
	if t == "" {
		return nil
	}
	return &t
}
