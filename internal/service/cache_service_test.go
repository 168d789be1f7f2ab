package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/student-directory-api/pkg/errors"
)

type recordingCacheRepo struct {
	values   map[string]string
	ttls     map[string]time.Duration
	patterns []string
	getErr   error
	delErr   error
}

func newRecordingCacheRepo() *recordingCacheRepo {
	return &recordingCacheRepo{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (r *recordingCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	if r.getErr != nil {
		return r.getErr
	}
	v, ok := r.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	*(dest.(*string)) = v
	return nil
}

func (r *recordingCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	r.values[key] = value.(string)
	r.ttls[key] = ttl
	return nil
}

func (r *recordingCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	r.patterns = append(r.patterns, pattern)
	return r.delErr
}

func TestCacheServiceHitAndMiss(t *testing.T) {
	repo := newRecordingCacheRepo()
	metrics := NewMetricsService()
	svc := NewCacheService(repo, metrics, 0, nil, true)
	require.True(t, svc.Enabled())

	var out string
	hit, err := svc.Get(context.Background(), "k", &out)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, svc.Set(context.Background(), "k", "v", 0))
	assert.Equal(t, 2*time.Minute, repo.ttls["k"])

	hit, err = svc.Get(context.Background(), "k", &out)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "v", out)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.cacheLookups.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.cacheLookups.WithLabelValues("miss")))
}

func TestCacheServiceSurfacesBackendErrors(t *testing.T) {
	repo := newRecordingCacheRepo()
	repo.getErr = errors.New("connection refused")
	svc := NewCacheService(repo, nil, time.Minute, nil, true)

	var out string
	hit, err := svc.Get(context.Background(), "k", &out)
	assert.False(t, hit)
	assert.Error(t, err)
}

func TestCacheServiceDisabled(t *testing.T) {
	repo := newRecordingCacheRepo()
	svc := NewCacheService(repo, nil, time.Minute, nil, false)

	var out string
	hit, err := svc.Get(context.Background(), "k", &out)
	require.NoError(t, err)
	assert.False(t, hit)
	require.NoError(t, svc.Set(context.Background(), "k", "v", 0))
	svc.InvalidateSearch(context.Background())
	assert.Empty(t, repo.values)
	assert.Empty(t, repo.patterns)

	var nilSvc *CacheService
	assert.False(t, nilSvc.Enabled())
	hit, err = nilSvc.Get(context.Background(), "k", &out)
	assert.NoError(t, err)
	assert.False(t, hit)
}

func TestCacheServiceInvalidateSearchSwallowsErrors(t *testing.T) {
	repo := newRecordingCacheRepo()
	repo.delErr = errors.New("scan failed")
	svc := NewCacheService(repo, nil, time.Minute, nil, true)

	svc.InvalidateSearch(context.Background())
	assert.Equal(t, []string{searchCachePrefix + "*"}, repo.patterns)
}
