package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/student-directory-api/internal/middleware"
	"github.com/noah-isme/student-directory-api/internal/models"
	"github.com/noah-isme/student-directory-api/pkg/response"
)

type searchService interface {
	Search(ctx context.Context, rawQuery string) (*models.SearchResponse, bool, error)
}

// SearchHandler serves the ranked directory search.
type SearchHandler struct {
	service searchService
}

// NewSearchHandler creates a new handler.
func NewSearchHandler(svc searchService) *SearchHandler {
	return &SearchHandler{service: svc}
}

// Search godoc
// @Summary Search profiles
// @Description Ranked search across names, university ID, contact details, batch, program, work and bio. Queries shorter than two characters return no results with a message.
// @Tags Search
// @Produce json
// @Param q query string true "Search text"
// @Success 200 {object} response.Envelope{data=models.SearchResponse}
// @Router /search [get]
func (h *SearchHandler) Search(c *gin.Context) {
	res, hit, err := h.service.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, res, middleware.ExtractMeta(c))
}
