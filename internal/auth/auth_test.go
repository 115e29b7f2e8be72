package auth

import (
	"testing"

	"clinic-backend/internal/config"
	"clinic-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(secret string) *config.Config {
	cfg := &config.Config{}
	cfg.JWT.Secret = secret
	cfg.JWT.Issuer = "clinic-backend"
	cfg.JWT.ExpirationHours = 12
	return cfg
}

func TestTokenRoundTrip(t *testing.T) {
	m := NewJWTManager(testConfig("s3cret"))
	user := &models.User{ID: 4, Name: "Ana", Email: "ana@clinica.test", Role: models.RoleReception}

	token, err := m.GenerateToken(user)
	require.NoError(t, err)

	claims, err := m.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, 4, claims.UserID)
	assert.Equal(t, "Ana", claims.Name)
	assert.Equal(t, models.RoleReception, claims.Role)
}

func TestValidateTokenRejectsForeignSecret(t *testing.T) {
	token, err := NewJWTManager(testConfig("one")).GenerateToken(&models.User{ID: 1})
	require.NoError(t, err)

	_, err = NewJWTManager(testConfig("two")).ValidateToken(token)
	assert.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)

	assert.True(t, VerifyPassword(hash, "correct horse"))
	assert.False(t, VerifyPassword(hash, "wrong"))
}

func TestHashPasswordRejectsShortPasswords(t *testing.T) {
	_, err := HashPassword("1234567")
	assert.ErrorIs(t, err, ErrWeakPassword)

	// Length counts characters, not bytes
	assert.ErrorIs(t, CheckPassword("ção1234"), ErrWeakPassword)
	assert.NoError(t, CheckPassword("ção12345"))
}
