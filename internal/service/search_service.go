package service

import (
	"context"
	"net/url"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/noah-isme/student-directory-api/internal/models"
	appErrors "github.com/noah-isme/student-directory-api/pkg/errors"
)

const (
	// MinSearchQueryLength is the shortest query, in characters, that runs a search.
	MinSearchQueryLength = 2
	// DefaultSearchLimit caps the number of ranked results returned.
	DefaultSearchLimit = 50

	searchCachePrefix = "search:"

	msgEmptyQuery = "Please provide a search query"
	msgShortQuery = "Search query must be at least 2 characters"
)

type profileLister interface {
	ListAll(ctx context.Context) ([]models.StudentProfile, error)
}

type searchCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// SearchConfig tunes the search service.
type SearchConfig struct {
	Limit    int
	CacheTTL time.Duration
}

// SearchService answers directory searches.
type SearchService struct {
	profiles profileLister
	cache    searchCache
	metrics  *MetricsService
	logger   *zap.Logger
	config   SearchConfig
}

// NewSearchService constructs a SearchService. cache and metrics may be nil.
func NewSearchService(profiles profileLister, cache searchCache, metrics *MetricsService, logger *zap.Logger, cfg SearchConfig) *SearchService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Limit <= 0 {
		cfg.Limit = DefaultSearchLimit
	}
	return &SearchService{profiles: profiles, cache: cache, metrics: metrics, logger: logger, config: cfg}
}

// Search validates rawQuery and returns ranked profiles. Empty or too short
// queries yield an empty result with an explanatory message, never an error.
// The boolean reports whether the response came from cache.
func (s *SearchService) Search(ctx context.Context, rawQuery string) (*models.SearchResponse, bool, error) {
	query := strings.TrimSpace(rawQuery)
	if query == "" {
		return &models.SearchResponse{Message: msgEmptyQuery, Results: []models.SearchHit{}}, false, nil
	}
	if utf8.RuneCountInString(query) < MinSearchQueryLength {
		return &models.SearchResponse{Message: msgShortQuery, Results: []models.SearchHit{}}, false, nil
	}

	start := time.Now()
	key := searchCacheKey(query)
	if s.cache != nil {
		var cached models.SearchResponse
		hit, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			s.logger.Warn("search cache read failed", zap.String("query", query), zap.Error(err))
		}
		if hit {
			cached.Query = query
			s.metrics.ObserveSearch(cached.Count, true, time.Since(start))
			return &cached, true, nil
		}
	}

	loadStart := time.Now()
	profiles, err := s.profiles.ListAll(ctx)
	s.metrics.ObserveDBQuery("search_profiles", time.Since(loadStart))
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load profiles")
	}

	ranked := RankProfiles(query, profiles, s.config.Limit)
	resp := &models.SearchResponse{
		Query:   query,
		Count:   len(ranked),
		Results: make([]models.SearchHit, 0, len(ranked)),
	}
	for _, r := range ranked {
		resp.Results = append(resp.Results, models.SearchHit{ProfileView: r.Profile.View(), Relevance: r.Relevance})
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, resp, s.config.CacheTTL); err != nil {
			s.logger.Warn("search cache write failed", zap.String("query", query), zap.Error(err))
		}
	}
	s.metrics.ObserveSearch(resp.Count, false, time.Since(start))
	return resp, false, nil
}

// RankProfiles selects the candidates matching query in any searchable field,
// scores them, orders them by score then name, and keeps the first limit.
// query must already be trimmed and validated.
func RankProfiles(query string, profiles []models.StudentProfile, limit int) []models.SearchResult {
	inclusion := anyField(MatchContains, query, SearchableFields...)
	scorer := NewRelevanceScorer(query)

	seen := make(map[string]struct{}, len(profiles))
	results := make([]models.SearchResult, 0)
	for i := range profiles {
		p := &profiles[i]
		if _, dup := seen[p.ID]; dup {
			continue
		}
		if !inclusion.Matches(p) {
			continue
		}
		seen[p.ID] = struct{}{}
		results = append(results, models.SearchResult{Profile: *p, Relevance: scorer.Score(p)})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Relevance != results[j].Relevance {
			return results[i].Relevance > results[j].Relevance
		}
		return lessByName(&results[i].Profile, &results[j].Profile)
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results
}

// searchCacheKey folds the query so differently cased spellings of the same
// search share one entry.
func searchCacheKey(query string) string {
	return searchCachePrefix + url.QueryEscape(fold(query))
}
