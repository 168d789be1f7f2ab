package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/student-directory-api/internal/dto"
	"github.com/noah-isme/student-directory-api/internal/middleware"
	"github.com/noah-isme/student-directory-api/internal/models"
	"github.com/noah-isme/student-directory-api/internal/service"
	appErrors "github.com/noah-isme/student-directory-api/pkg/errors"
	"github.com/noah-isme/student-directory-api/pkg/response"
)

type profileService interface {
	Get(ctx context.Context, id string) (*models.ProfileView, error)
	List(ctx context.Context, params models.ProfileFilterEcho) (*models.ProfileListResponse, error)
	Update(ctx context.Context, id string, req dto.UpdateProfileRequest, partial bool, actor service.Actor) (*models.ProfileView, error)
	Export(ctx context.Context, params models.ProfileFilterEcho, format dto.ExportFormat) (*dto.ExportFile, error)
}

// ProfileHandler serves the directory profile endpoints.
type ProfileHandler struct {
	service profileService
}

// NewProfileHandler creates a new handler.
func NewProfileHandler(svc profileService) *ProfileHandler {
	return &ProfileHandler{service: svc}
}

// List godoc
// @Summary List profiles
// @Description List profiles, optionally filtered. Class representatives come first.
// @Tags Profiles
// @Produce json
// @Param batch query string false "Exact batch title"
// @Param program query string false "Exact program name"
// @Param is_cr query string false "true, 1 or yes"
// @Param company query string false "Company contains"
// @Param position query string false "Job position contains"
// @Success 200 {object} response.Envelope{data=models.ProfileListResponse}
// @Router /profile [get]
func (h *ProfileHandler) List(c *gin.Context) {
	res, err := h.service.List(c.Request.Context(), filterParams(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res)
}

// Export godoc
// @Summary Export profiles
// @Description Download the filtered listing as CSV or PDF
// @Tags Profiles
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv (default) or pdf"
// @Param batch query string false "Exact batch title"
// @Param program query string false "Exact program name"
// @Param is_cr query string false "true, 1 or yes"
// @Param company query string false "Company contains"
// @Param position query string false "Job position contains"
// @Success 200 {file} binary
// @Failure 400 {object} response.Envelope
// @Router /profile/export [get]
func (h *ProfileHandler) Export(c *gin.Context) {
	format := dto.ExportFormat(strings.ToLower(c.Query("format")))
	file, err := h.service.Export(c.Request.Context(), filterParams(c), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Body)
}

// Get godoc
// @Summary Get profile
// @Tags Profiles
// @Produce json
// @Param id path string true "Profile ID"
// @Success 200 {object} response.Envelope{data=models.ProfileView}
// @Failure 404 {object} response.Envelope
// @Router /profile/{id} [get]
func (h *ProfileHandler) Get(c *gin.Context) {
	res, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res)
}

// Update godoc
// @Summary Replace profile
// @Description Full update; first_name, last_name, uni_id, email and batch are required. is_verified is ignored.
// @Tags Profiles
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Profile ID"
// @Param payload body dto.UpdateProfileRequest true "Profile"
// @Success 200 {object} response.Envelope{data=models.ProfileView}
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /profile/{id} [put]
func (h *ProfileHandler) Update(c *gin.Context) {
	h.update(c, false)
}

// Patch godoc
// @Summary Update profile fields
// @Description Partial update; only sent fields change. is_verified is ignored.
// @Tags Profiles
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Profile ID"
// @Param payload body dto.UpdateProfileRequest true "Profile fields"
// @Success 200 {object} response.Envelope{data=models.ProfileView}
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /profile/{id} [patch]
func (h *ProfileHandler) Patch(c *gin.Context) {
	h.update(c, true)
}

func (h *ProfileHandler) update(c *gin.Context, partial bool) {
	var req dto.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid profile payload"))
		return
	}

	actor := service.Actor{IP: c.ClientIP(), UserAgent: c.GetHeader("User-Agent")}
	if claims := middleware.Claims(c); claims != nil {
		actor.UserID = claims.UserID
	}

	res, err := h.service.Update(c.Request.Context(), c.Param("id"), req, partial, actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res)
}

// filterParams reads the listing filters, keeping absent ones nil so they
// can be echoed back as null.
func filterParams(c *gin.Context) models.ProfileFilterEcho {
	param := func(name string) *string {
		if v, ok := c.GetQuery(name); ok {
			return &v
		}
		return nil
	}
	return models.ProfileFilterEcho{
		Batch:    param("batch"),
		Program:  param("program"),
		IsCR:     param("is_cr"),
		Company:  param("company"),
		Position: param("position"),
	}
}
