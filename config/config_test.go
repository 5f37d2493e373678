package config

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("GO_ENV", "production")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("STORAGE_PROVIDER", " S3 ")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "5000", cfg.Port)
	assert.Equal(t, "s3cret", cfg.JWTSecret)
	assert.Equal(t, 168*time.Hour, cfg.JWTExpiry)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, "s3", cfg.Storage.Provider)
	assert.Equal(t, "rsvp.exchange", cfg.AMQP.Exchange)
	assert.Equal(t, 10, cfg.RateLimit.Capacity)
}

func TestLoad_MissingSecret(t *testing.T) {
	t.Setenv("GO_ENV", "production")
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
}

func TestNewLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "production", "warn")

	logger.Info("hidden")
	logger.Warn("shown", "k", "v")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "shown", rec["msg"])
	assert.Equal(t, "v", rec["k"])
	assert.Equal(t, slog.LevelInfo, parseLevel("bogus"))
	assert.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
}
