package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "retailops-core", cfg.App.Name)
	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, "http://localhost:9000/api", cfg.Backend.BaseURL)
	assert.Equal(t, 15, cfg.Backend.TimeoutSeconds)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr())
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 70, cfg.Orders.MinimumPaymentPercentage)
	assert.Equal(t, 24*time.Hour, cfg.Orders.IdempotencyTTL)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("RETAILOPS_APP_PORT", "9999")
	t.Setenv("RETAILOPS_BACKEND_BASE_URL", "http://backend.internal/api")
	t.Setenv("RETAILOPS_LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9999", cfg.App.Port)
	assert.Equal(t, "http://backend.internal/api", cfg.Backend.BaseURL)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_ProductionValidation(t *testing.T) {
	t.Setenv("RETAILOPS_APP_ENV", "production")

	t.Run("missing jwt secret", func(t *testing.T) {
		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "jwt.secret")
	})

	t.Run("short jwt secret", func(t *testing.T) {
		t.Setenv("RETAILOPS_JWT_SECRET", "too-short")
		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "32 characters")
	})

	t.Run("plain http backend", func(t *testing.T) {
		t.Setenv("RETAILOPS_JWT_SECRET", "0123456789abcdef0123456789abcdef")
		t.Setenv("RETAILOPS_BACKEND_API_TOKEN", "service-token")
		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "https")
	})

	t.Run("fully configured", func(t *testing.T) {
		t.Setenv("RETAILOPS_JWT_SECRET", "0123456789abcdef0123456789abcdef")
		t.Setenv("RETAILOPS_BACKEND_API_TOKEN", "service-token")
		t.Setenv("RETAILOPS_BACKEND_BASE_URL", "https://backend.example.com/api")
		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "production", cfg.App.Env)
	})
}

func TestLoad_InvalidMinimumPercentage(t *testing.T) {
	t.Setenv("RETAILOPS_ORDERS_MINIMUM_PAYMENT_PERCENTAGE", "150")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "minimum_payment_percentage")
}
