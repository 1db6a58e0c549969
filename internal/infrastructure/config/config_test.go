package config

import (
	"context"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(context.Background(), envconfig.MapLookuper(map[string]string{}))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, DriverMongo, cfg.StorageDriver)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 100, cfg.RateLimit.Requests)
	assert.Equal(t, time.Minute, cfg.RateLimit.Period)
	assert.Equal(t, 20, cfg.Paging.DefaultPageSize)
	assert.Equal(t, 100, cfg.Paging.MaxPageSize)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	assert.True(t, cfg.RateLimitEnabled())
	assert.False(t, cfg.IsProduction())
}

func TestLoad_Overrides(t *testing.T) {
	cfg, err := load(context.Background(), envconfig.MapLookuper(map[string]string{
		"STORAGE_DRIVER":             "Postgres",
		"POSTGRES_MAX_CONNS":         "20",
		"POSTGRES_MAX_CONN_LIFETIME": "5m",
		"CORS_ALLOWED_ORIGINS":       "https://a.example,https://b.example",
		"RATE_LIMIT_REQUESTS":        "0",
		"ENV":                        "production",
	}))
	require.NoError(t, err)

	assert.Equal(t, DriverPostgres, cfg.StorageDriver)
	assert.Equal(t, int32(20), cfg.Postgres.MaxConns)
	assert.Equal(t, 5*time.Minute, cfg.Postgres.MaxConnLifetime)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	assert.False(t, cfg.RateLimitEnabled())
	assert.True(t, cfg.IsProduction())
}

func TestLogOutputFormat(t *testing.T) {
	cfg := &Config{Env: "development", LogFormat: "console"}
	assert.Equal(t, "console", cfg.LogOutputFormat())

	cfg.Env = "Production"
	assert.Equal(t, "json", cfg.LogOutputFormat())
}

func TestLoad_RejectsUnknownDriver(t *testing.T) {
	_, err := load(context.Background(), envconfig.MapLookuper(map[string]string{"STORAGE_DRIVER": "sqlite"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STORAGE_DRIVER")
}

func TestValidate_PageSizes(t *testing.T) {
	cfg, err := load(context.Background(), envconfig.MapLookuper(map[string]string{}))
	require.NoError(t, err)

	cfg.Paging.DefaultPageSize = 200
	assert.ErrorContains(t, cfg.Validate(), "DEFAULT_PAGE_SIZE must not exceed MAX_PAGE_SIZE")

	cfg.Paging.DefaultPageSize = 0
	assert.ErrorContains(t, cfg.Validate(), "must be positive")
}
