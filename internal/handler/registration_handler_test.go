package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/student-directory-api/internal/dto"
	appErrors "github.com/noah-isme/student-directory-api/pkg/errors"
)

type fakeRegistrationService struct {
	req dto.RegisterRequest
	err error
}

func (f *fakeRegistrationService) Register(ctx context.Context, req dto.RegisterRequest, ip, userAgent string) (*dto.RegisterResponse, error) {
	f.req = req
	if f.err != nil {
		return nil, f.err
	}
	return &dto.RegisterResponse{Message: "Registration successful"}, nil
}

func TestRegistrationHandlerCreated(t *testing.T) {
	svc := &fakeRegistrationService{}
	c, rec := newTestContext(http.MethodPost, "/api/v1/register", map[string]interface{}{
		"username": "1810001", "password": "pw", "first_name": "Rahim", "last_name": "Uddin", "batch": "BBA 5", "is_cr": true,
	})

	NewRegistrationHandler(svc).Register(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "BBA 5", svc.req.Batch)
	assert.True(t, svc.req.IsCR)
}

func TestRegistrationHandlerValidationErrors(t *testing.T) {
	fields := appErrors.FieldErrors{}
	fields.Add("username", "A user with this university ID already exists.")
	svc := &fakeRegistrationService{err: appErrors.Validation("Registration failed", fields)}
	c, rec := newTestContext(http.MethodPost, "/api/v1/register", map[string]string{"username": "1810001"})

	NewRegistrationHandler(svc).Register(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	env := decodeEnvelope(t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, "Registration failed", env.Error.Message)
	assert.Equal(t, []string{"A user with this university ID already exists."}, env.Error.Errors["username"])
}
