package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platewise/platewise/internal/config"
)

// setRequired sets the minimum environment for Load to succeed.
func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("PLATEWISE_JWT_SECRET", "0123456789abcdef0123456789abcdef")
	t.Setenv("PLATEWISE_IDP_BASE_URL", "https://idp.example.com")
}

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		setRequired(t)

		cfg, err := config.Load()
		require.NoError(t, err)

		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, ":8080", cfg.Server.Addr)
		assert.Equal(t, 48*time.Hour, cfg.Links.TTL)
		assert.Equal(t, 5, cfg.Links.PerTenantLimit)
		assert.Equal(t, 30, cfg.Links.PerAdminLimit)
		assert.Equal(t, []string{"http://localhost:5173"}, cfg.Server.CORSOrigins)
	})

	t.Run("missing jwt secret", func(t *testing.T) {
		t.Setenv("PLATEWISE_JWT_SECRET", "")
		t.Setenv("PLATEWISE_IDP_BASE_URL", "https://idp.example.com")

		_, err := config.Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "PLATEWISE_JWT_SECRET")
	})

	t.Run("short jwt secret", func(t *testing.T) {
		t.Setenv("PLATEWISE_JWT_SECRET", "short")
		t.Setenv("PLATEWISE_IDP_BASE_URL", "https://idp.example.com")

		_, err := config.Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "at least 32")
	})

	t.Run("missing identity base url", func(t *testing.T) {
		t.Setenv("PLATEWISE_JWT_SECRET", "0123456789abcdef0123456789abcdef")
		t.Setenv("PLATEWISE_IDP_BASE_URL", "")

		_, err := config.Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "PLATEWISE_IDP_BASE_URL")
	})

	t.Run("invalid int", func(t *testing.T) {
		setRequired(t)
		t.Setenv("PLATEWISE_DB_PORT", "not-a-number")

		_, err := config.Load()
		assert.Error(t, err)
	})

	t.Run("port out of range", func(t *testing.T) {
		setRequired(t)
		t.Setenv("PLATEWISE_DB_PORT", "70000")

		_, err := config.Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "PLATEWISE_DB_PORT")
	})

	t.Run("cors origin list parsed and trimmed", func(t *testing.T) {
		setRequired(t)
		t.Setenv("PLATEWISE_CORS_ORIGINS", "https://admin.platewise.app, https://app.platewise.app")

		cfg, err := config.Load()
		require.NoError(t, err)
		assert.Equal(t, []string{"https://admin.platewise.app", "https://app.platewise.app"}, cfg.Server.CORSOrigins)
	})

	t.Run("durations parsed", func(t *testing.T) {
		setRequired(t)
		t.Setenv("PLATEWISE_LINK_TTL", "24h")
		t.Setenv("PLATEWISE_IDP_TIMEOUT", "5s")

		cfg, err := config.Load()
		require.NoError(t, err)
		assert.Equal(t, 24*time.Hour, cfg.Links.TTL)
		assert.Equal(t, 5*time.Second, cfg.Identity.Timeout)
	})
}

func TestDSN(t *testing.T) {
	t.Parallel()

	db := config.DatabaseConfig{
		Host: "db.internal", Port: 5433, User: "svc", Password: "pw",
		DBName: "platewise", SSLMode: "require",
	}
	assert.Equal(t,
		"host=db.internal port=5433 user=svc password=pw dbname=platewise sslmode=require",
		db.DSN(),
	)
}
