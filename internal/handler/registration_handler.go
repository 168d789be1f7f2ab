package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/student-directory-api/internal/dto"
	appErrors "github.com/noah-isme/student-directory-api/pkg/errors"
	"github.com/noah-isme/student-directory-api/pkg/response"
)

type registrationService interface {
	Register(ctx context.Context, req dto.RegisterRequest, ip, userAgent string) (*dto.RegisterResponse, error)
}

// RegistrationHandler exposes student sign-up.
type RegistrationHandler struct {
	service registrationService
}

// NewRegistrationHandler creates a new handler.
func NewRegistrationHandler(svc registrationService) *RegistrationHandler {
	return &RegistrationHandler{service: svc}
}

// Register godoc
// @Summary Register a student
// @Description Create a login account and its directory profile in one step
// @Tags Registration
// @Accept json
// @Produce json
// @Param payload body dto.RegisterRequest true "Registration payload"
// @Success 201 {object} response.Envelope{data=dto.RegisterResponse}
// @Failure 400 {object} response.Envelope
// @Router /register [post]
func (h *RegistrationHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "Registration failed"))
		return
	}

	res, err := h.service.Register(c.Request.Context(), req, c.ClientIP(), c.GetHeader("User-Agent"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, res)
}
