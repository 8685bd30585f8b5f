package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wholesale-backend/internal/config"
)

func newManager(secret, issuer string) *JWTManager {
	cfg := &config.Config{}
	cfg.JWT.Secret = secret
	cfg.JWT.Issuer = issuer
	return NewJWTManager(cfg)
}

func TestJWTManager_RoundTrip(t *testing.T) {
	m := newManager("s3cret", "wholesale-backend")

	token, err := m.GenerateToken(42, "Dana", time.Hour)
	require.NoError(t, err)

	claims, err := m.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, 42, claims.UserID)
	assert.Equal(t, "Dana", claims.Name)
}

func TestJWTManager_RejectsForeignSecret(t *testing.T) {
	token, err := newManager("other", "wholesale-backend").GenerateToken(42, "Dana", time.Hour)
	require.NoError(t, err)

	_, err = newManager("s3cret", "wholesale-backend").ValidateToken(token)
	assert.Error(t, err)
}

func TestJWTManager_RejectsExpired(t *testing.T) {
	m := newManager("s3cret", "wholesale-backend")
	token, err := m.GenerateToken(42, "Dana", -time.Minute)
	require.NoError(t, err)

	_, err = m.ValidateToken(token)
	assert.Error(t, err)
}

func TestJWTManager_RejectsWrongIssuer(t *testing.T) {
	token, err := newManager("s3cret", "someone-else").GenerateToken(42, "Dana", time.Hour)
	require.NoError(t, err)

	_, err = newManager("s3cret", "wholesale-backend").ValidateToken(token)
	assert.Error(t, err)
}

func TestJWTManager_RejectsMissingUser(t *testing.T) {
	m := newManager("s3cret", "wholesale-backend")
	token, err := m.GenerateToken(0, "", time.Hour)
	require.NoError(t, err)

	_, err = m.ValidateToken(token)
	assert.Error(t, err)
}
