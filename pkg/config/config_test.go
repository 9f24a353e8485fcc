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

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, "/api", cfg.APIPrefix)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, 24*time.Hour, cfg.JWT.Expiration)
	assert.True(t, cfg.Booking.AutoApprove)
	assert.Equal(t, "auto-approved", cfg.Booking.AutoApprovedMarker)
	assert.Equal(t, "Booked Sessions", cfg.Booking.SessionTimetableName)
	assert.Nil(t, cfg.CORS.AllowedOrigins)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("ENV", EnvProduction)
	t.Setenv("PORT", "9090")
	t.Setenv("CACHE_TTL", "not-a-duration")
	t.Setenv("JWT_EXPIRATION", "15m")
	t.Setenv("JWT_SINGLE_SESSION", "true")
	t.Setenv("ALLOWED_ORIGINS", "https://portal.example.edu, ,https://admin.example.edu")
	t.Setenv("BOOKING_AUTO_APPROVE", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, EnvProduction, cfg.Env)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL, "invalid durations fall back")
	assert.Equal(t, 15*time.Minute, cfg.JWT.Expiration)
	assert.True(t, cfg.JWT.SingleSession)
	assert.Equal(t, []string{"https://portal.example.edu", "https://admin.example.edu"}, cfg.CORS.AllowedOrigins)
	assert.False(t, cfg.Booking.AutoApprove)
}
