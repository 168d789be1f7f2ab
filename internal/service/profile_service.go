package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/student-directory-api/internal/dto"
	"github.com/noah-isme/student-directory-api/internal/models"
	"github.com/noah-isme/student-directory-api/pkg/database"
	appErrors "github.com/noah-isme/student-directory-api/pkg/errors"
	"github.com/noah-isme/student-directory-api/pkg/export"
)

const (
	msgProfileNotFound  = "Profile not found."
	msgFieldBlank       = "This field may not be blank."
	msgProfileUniIDUsed = "student profile with this uni id already exists."
	msgProfileEmailUsed = "student profile with this email already exists."
)

type profileStore interface {
	ListAll(ctx context.Context) ([]models.StudentProfile, error)
	FindByID(ctx context.Context, id string) (*models.StudentProfile, error)
	ExistsByUniID(ctx context.Context, uniID, excludeID string) (bool, error)
	ExistsByEmail(ctx context.Context, email, excludeID string) (bool, error)
	Update(ctx context.Context, profile *models.StudentProfile) error
}

type tableRenderer interface {
	Render(table export.Table) ([]byte, error)
}

// Actor identifies who triggered a write, for the audit trail.
type Actor struct {
	UserID    string
	IP        string
	UserAgent string
}

// ProfileService reads, lists, updates and exports directory profiles.
type ProfileService struct {
	profiles  profileStore
	batches   batchFinder
	programs  programFinder
	cache     searchInvalidator
	audit     *AuditService
	metrics   *MetricsService
	csv       tableRenderer
	pdf       tableRenderer
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewProfileService constructs a ProfileService. cache, audit and metrics may be nil.
func NewProfileService(profiles profileStore, batches batchFinder, programs programFinder, cache searchInvalidator, audit *AuditService,
	metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *ProfileService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = NewValidator()
	}
	return &ProfileService{
		profiles:  profiles,
		batches:   batches,
		programs:  programs,
		cache:     cache,
		audit:     audit,
		metrics:   metrics,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		validator: validate,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Get returns one profile. Ids that are not UUIDs are reported as not found.
func (s *ProfileService) Get(ctx context.Context, id string) (*models.ProfileView, error) {
	profile, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	view := profile.View()
	return &view, nil
}

func (s *ProfileService) load(ctx context.Context, id string) (*models.StudentProfile, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, msgProfileNotFound)
	}
	profile, err := s.profiles.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, msgProfileNotFound)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load profile")
	}
	return profile, nil
}

// List returns every profile matching the raw filter parameters, echoing them
// back. A present is_cr parameter enables the flag filter.
func (s *ProfileService) List(ctx context.Context, params models.ProfileFilterEcho) (*models.ProfileListResponse, error) {
	matched, err := s.filtered(ctx, params)
	if err != nil {
		return nil, err
	}
	resp := &models.ProfileListResponse{
		Count:   len(matched),
		Filters: params,
		Results: make([]models.ProfileView, 0, len(matched)),
	}
	for _, p := range matched {
		resp.Results = append(resp.Results, p.View())
	}
	return resp, nil
}

func (s *ProfileService) filtered(ctx context.Context, params models.ProfileFilterEcho) ([]models.StudentProfile, error) {
	start := time.Now()
	profiles, err := s.profiles.ListAll(ctx)
	s.metrics.ObserveDBQuery("list_profiles", time.Since(start))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load profiles")
	}
	return FilterProfiles(profiles, FilterFromParams(params)), nil
}

// FilterFromParams converts raw query parameters into a ProfileFilter.
func FilterFromParams(params models.ProfileFilterEcho) models.ProfileFilter {
	f := models.ProfileFilter{
		Batch:    deref(params.Batch),
		Program:  deref(params.Program),
		Company:  deref(params.Company),
		Position: deref(params.Position),
	}
	if params.IsCR != nil {
		v := ParseBoolLoose(*params.IsCR)
		f.IsCR = &v
	}
	return f
}

// Update applies req to the profile. A full update (PUT) requires every
// mandatory field; a partial update (PATCH) touches only what was sent.
// Verification status is never modified.
func (s *ProfileService) Update(ctx context.Context, id string, req dto.UpdateProfileRequest, partial bool, actor Actor) (*models.ProfileView, error) {
	fields := appErrors.FieldErrors{}
	if err := s.validator.Struct(req); err != nil {
		fields = validationFields(err)
	}
	if !partial {
		requireField(fields, "first_name", req.FirstName)
		requireField(fields, "last_name", req.LastName)
		requireField(fields, "uni_id", req.UniID)
		requireField(fields, "email", req.Email)
		requireField(fields, "batch", req.Batch)
	}
	for name, v := range map[string]*string{
		"first_name": req.FirstName, "last_name": req.LastName, "uni_id": req.UniID, "email": req.Email, "batch": req.Batch,
	} {
		if v != nil && strings.TrimSpace(*v) == "" {
			if _, already := fields[name]; !already {
				fields.Add(name, msgFieldBlank)
			}
		}
	}

	current, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	before := current.View()
	updated := *current

	if len(fields) == 0 {
		if err := s.applyUpdate(ctx, &updated, req, fields); err != nil {
			return nil, err
		}
	}
	if len(fields) > 0 {
		return nil, appErrors.Validation("invalid profile payload", fields)
	}

	if err := s.profiles.Update(ctx, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, msgProfileNotFound)
		}
		if constraint, ok := database.UniqueConstraint(err); ok {
			f := appErrors.FieldErrors{}
			if strings.Contains(constraint, "email") {
				f.Add("email", msgProfileEmailUsed)
			} else {
				f.Add("uni_id", msgProfileUniIDUsed)
			}
			return nil, appErrors.Validation("invalid profile payload", f)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update profile")
	}

	if s.cache != nil {
		s.cache.InvalidateSearch(ctx)
	}
	after := updated.View()
	s.audit.Record(AuditEvent{
		UserID:     actor.UserID,
		Action:     models.AuditActionProfileUpdate,
		Resource:   "student_profile",
		ResourceID: updated.ID,
		Before:     before,
		After:      after,
		IP:         actor.IP,
		UserAgent:  actor.UserAgent,
	})
	return &after, nil
}

// applyUpdate copies the sent fields onto p, resolving batch and program and
// checking uniqueness against other profiles. Problems are added to fields.
func (s *ProfileService) applyUpdate(ctx context.Context, p *models.StudentProfile, req dto.UpdateProfileRequest, fields appErrors.FieldErrors) error {
	if req.FirstName != nil {
		p.FirstName = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		p.LastName = strings.TrimSpace(*req.LastName)
	}
	if req.UniID != nil {
		uniID := strings.TrimSpace(*req.UniID)
		if uniID != p.UniID {
			taken, err := s.profiles.ExistsByUniID(ctx, uniID, p.ID)
			if err != nil {
				return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check university id")
			}
			if taken {
				fields.Add("uni_id", msgProfileUniIDUsed)
			}
		}
		p.UniID = uniID
	}
	if req.Email != nil {
		email := strings.TrimSpace(*req.Email)
		if email != p.Email {
			taken, err := s.profiles.ExistsByEmail(ctx, email, p.ID)
			if err != nil {
				return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email")
			}
			if taken {
				fields.Add("email", msgProfileEmailUsed)
			}
		}
		p.Email = email
	}
	if req.Batch != nil {
		title := strings.TrimSpace(*req.Batch)
		if title != p.Batch.Title {
			batch, err := s.batches.FindByTitle(ctx, title)
			switch {
			case err == nil:
				p.Batch = *batch
				p.BatchID = batch.ID
			case errors.Is(err, sql.ErrNoRows):
				fields.Add("batch", fmt.Sprintf("Batch '%s' does not exist.", title))
			default:
				return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load batch")
			}
		}
	}
	if req.Program != nil {
		name := strings.TrimSpace(*req.Program)
		switch {
		case name == "":
			p.Program, p.ProgramID = nil, nil
		case p.Program == nil || p.Program.Name != name:
			program, err := s.programs.FindByName(ctx, name)
			switch {
			case err == nil:
				p.Program = program
				p.ProgramID = &program.ID
			case errors.Is(err, sql.ErrNoRows):
				fields.Add("program", fmt.Sprintf("Program '%s' does not exist.", name))
			default:
				return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load program")
			}
		}
	}

	setNullable(&p.Phone, req.Phone)
	setNullable(&p.Bio, req.Bio)
	setNullable(&p.ProfilePic, req.ProfilePic)
	setNullable(&p.Country, req.Country)
	setNullable(&p.CurrentJobPosition, req.CurrentJobPosition)
	setNullable(&p.CurrentCompany, req.CurrentCompany)
	setNullable(&p.LinkedIn, req.LinkedIn)
	setNullable(&p.Facebook, req.Facebook)
	setNullable(&p.Instagram, req.Instagram)
	if req.IsCR != nil {
		p.IsCR = *req.IsCR
	}
	return nil
}

// Export renders the filtered listing as a downloadable file.
func (s *ProfileService) Export(ctx context.Context, params models.ProfileFilterEcho, format dto.ExportFormat) (*dto.ExportFile, error) {
	var (
		renderer    tableRenderer
		contentType string
	)
	switch format {
	case dto.ExportFormatCSV, "":
		format, renderer, contentType = dto.ExportFormatCSV, s.csv, "text/csv; charset=utf-8"
	case dto.ExportFormatPDF:
		renderer, contentType = s.pdf, "application/pdf"
	default:
		f := appErrors.FieldErrors{}
		f.Add("format", fmt.Sprintf("\"%s\" is not a valid choice.", format))
		return nil, appErrors.Validation("invalid export format", f)
	}

	matched, err := s.filtered(ctx, params)
	if err != nil {
		return nil, err
	}
	body, err := renderer.Render(directoryTable(matched))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}
	s.logger.Info("directory exported", zap.String("format", string(format)), zap.Int("rows", len(matched)))

	return &dto.ExportFile{
		Filename:    fmt.Sprintf("student-directory-%s.%s", s.now().Format("20060102"), format),
		ContentType: contentType,
		Body:        body,
	}, nil
}

func directoryTable(profiles []models.StudentProfile) export.Table {
	table := export.Table{
		Title: "Student Directory",
		Columns: []export.Column{
			{Header: "University ID", Width: 1.2},
			{Header: "Name", Width: 2},
			{Header: "Batch", Width: 1.2},
			{Header: "Program", Width: 1.2},
			{Header: "Email", Width: 2.4},
			{Header: "Phone", Width: 1.2},
			{Header: "Company", Width: 1.6},
			{Header: "Position", Width: 1.6},
			{Header: "CR", Width: 0.5},
			{Header: "Verified", Width: 0.8},
		},
		Rows: make([][]string, 0, len(profiles)),
	}
	for _, p := range profiles {
		program := ""
		if p.Program != nil {
			program = p.Program.Name
		}
		table.Rows = append(table.Rows, []string{
			p.UniID,
			strings.TrimSpace(p.FirstName + " " + p.LastName),
			p.Batch.Title,
			program,
			p.Email,
			deref(p.Phone),
			deref(p.CurrentCompany),
			deref(p.CurrentJobPosition),
			strconv.FormatBool(p.IsCR),
			strconv.FormatBool(p.IsVerified),
		})
	}
	return table
}

func requireField(fields appErrors.FieldErrors, name string, v *string) {
	if v == nil {
		fields.Add(name, msgFieldRequired)
	}
}

// setNullable applies a sent nullable field; blank input clears it.
func setNullable(dst **string, v *string) {
	if v == nil {
		return
	}
	*dst = nullable(v)
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
