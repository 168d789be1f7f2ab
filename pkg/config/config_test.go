package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, 50, cfg.Search.ResultLimit)
	assert.Equal(t, 24*time.Hour, cfg.JWT.Expiration)
	assert.Equal(t, 100*24*time.Hour, cfg.JWT.RefreshExpiration)
	assert.False(t, cfg.Redis.Enabled)
	assert.Empty(t, cfg.CORSOrigins)
}

func TestLoadEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	t.Setenv("SEARCH_RESULT_LIMIT", "10")
	t.Setenv("JWT_EXPIRATION", "not-a-duration")
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.edu, ,https://b.example.edu")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.Search.ResultLimit)
	assert.Equal(t, 24*time.Hour, cfg.JWT.Expiration)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, []string{"https://a.example.edu", "https://b.example.edu"}, cfg.CORSOrigins)
}
