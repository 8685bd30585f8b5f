package config

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsAndEnvOverrides(t *testing.T) {
	t.Setenv("CONFIG_FILE", "testdata/missing.yaml")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("VAT_RATE", "0.08")
	t.Setenv("SERVER_PORT", "9090")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "test-secret", cfg.JWT.Secret)

	rate, err := cfg.VatRate()
	require.NoError(t, err)
	assert.True(t, rate.Equal(decimal.RequireFromString("0.08")))
}

func TestLoadRequiresJWTSecret(t *testing.T) {
	t.Setenv("CONFIG_FILE", "testdata/missing.yaml")
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestVatRateBounds(t *testing.T) {
	var cfg Config
	cfg.Business.VatRate = "1.5"
	_, err := cfg.VatRate()
	assert.Error(t, err)

	cfg.Business.VatRate = "abc"
	_, err = cfg.VatRate()
	assert.Error(t, err)
}
