package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"PORT", "DATABASE_PATH", "APP_ENV", "LOG_LEVEL", "SESSION_SECRET", "SESSION_TTL",
		"SESSION_SWEEP_SCHEDULE", "CORS_ALLOWED_ORIGINS", "ADMIN_NAME", "ADMIN_EMAIL", "ADMIN_PASSWORD",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "8080")
	t.Setenv("SESSION_TTL", "24h")
	t.Setenv("APP_ENV", "development")
	t.Setenv("SESSION_SWEEP_SCHEDULE", "@every 10m")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, "@every 10m", cfg.SweepSchedule)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORSAllowedOrigins)
	assert.False(t, cfg.IsProduction())
	assert.Len(t, cfg.SessionSecret, 64, "development secret is generated")
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("SESSION_TTL", "30m")
	t.Setenv("APP_ENV", "production")
	t.Setenv("SESSION_SECRET", "s3cret")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("ADMIN_EMAIL", "root@example.com")
	t.Setenv("ADMIN_PASSWORD", "hunter22")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.ServerPort)
	assert.Equal(t, 30*time.Minute, cfg.SessionTTL)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, []byte("s3cret"), cfg.SessionSecret)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, "root@example.com", cfg.AdminEmail)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"bad port", map[string]string{"PORT": "eighty", "SESSION_TTL": "1h"}},
		{"bad ttl", map[string]string{"PORT": "80", "SESSION_TTL": "forever"}},
		{"negative ttl", map[string]string{"PORT": "80", "SESSION_TTL": "-1h"}},
		{"production without secret", map[string]string{"PORT": "80", "SESSION_TTL": "1h", "APP_ENV": "production"}},
		{"admin email without password", map[string]string{"PORT": "80", "SESSION_TTL": "1h", "ADMIN_EMAIL": "a@b.c"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
