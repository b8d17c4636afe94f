package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.AppPort)
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, int64(16384), cfg.HTTP.BodyLimitBytes)
	assert.Equal(t, 10*time.Minute, cfg.HTTP.WriteTimeout)
	assert.Equal(t, "ffprobe", cfg.Media.FFProbePath)
	assert.Equal(t, 2*time.Hour, cfg.Janitor.StaleAfter)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("VIDHIVE_PORT", "9090")
	t.Setenv("VIDHIVE_DB_DRIVER", "Mongo")
	t.Setenv("VIDHIVE_S3_BUCKET", "media")
	t.Setenv("VIDHIVE_S3_PUBLIC_BASE_URL", "https://cdn.example.com/assets")
	t.Setenv("VIDHIVE_AUTH_ACCESS_TTL", "5m")
	t.Setenv("VIDHIVE_JANITOR_WORKERS", "4")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.AppPort)
	assert.Equal(t, DriverMongo, cfg.Database.Driver)
	assert.Equal(t, "media", cfg.ObjectStore.Bucket)
	assert.Equal(t, "cdn.example.com", cfg.ObjectStore.StreamHost)
	assert.Equal(t, 5*time.Minute, cfg.Auth.AccessTTL)
	assert.Equal(t, 4, cfg.Janitor.Workers)
}

func TestLoadRejectsMalformedValues(t *testing.T) {
	t.Setenv("VIDHIVE_PORT", "not-a-number")

	_, err := Load()
	require.Error(t, err)
}

func TestValidateServe(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	err = cfg.ValidateServe()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AUTH_JWT_SECRET")
	assert.Contains(t, err.Error(), "S3_BUCKET")

	cfg.Auth.JWTSecret = "secret"
	cfg.ObjectStore.Bucket = "media"
	cfg.ObjectStore.StreamHost = "media.example.com"
	require.NoError(t, cfg.ValidateServe())

	cfg.Database.Driver = "sqlite"
	require.Error(t, cfg.ValidateServe())
}
