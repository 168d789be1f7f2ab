package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/student-directory-api/internal/middleware"
	"github.com/noah-isme/student-directory-api/internal/models"
)

type fakeSearchService struct {
	query string
	hit   bool
}

func (f *fakeSearchService) Search(ctx context.Context, rawQuery string) (*models.SearchResponse, bool, error) {
	f.query = rawQuery
	return &models.SearchResponse{Query: rawQuery, Count: 1, Results: []models.SearchHit{{ProfileView: models.ProfileView{ID: "p1"}, Relevance: 90}}}, f.hit, nil
}

func TestSearchHandlerReportsCacheHit(t *testing.T) {
	svc := &fakeSearchService{hit: true}
	c, rec := newTestContext(http.MethodGet, "/api/v1/search?q=rahim", nil)
	middleware.WithResponseMeta()(c)

	NewSearchHandler(svc).Search(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "rahim", svc.query)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, true, env.Meta["cache_hit"])
	assert.Contains(t, env.Meta, "processing_time_ms")

	var body models.SearchResponse
	require.NoError(t, json.Unmarshal(env.Data, &body))
	require.Len(t, body.Results, 1)
	assert.Equal(t, 90, body.Results[0].Relevance)
}
