package service

import (
	"testing"

	"kb-assistant-be/internal/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newAdminFixture(t *testing.T) *AdminService {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret-password"), bcrypt.MinCost)
	require.NoError(t, err)
	auth := config.AuthConfig{
		AdminEmail:        "admin@example.com",
		AdminPasswordHash: string(hash),
		JWTSecret:         "test-secret",
	}
	return NewAdminService(auth, nopLogger{}, NewAuditTrail(10))
}

func TestAdminLoginIssuesToken(t *testing.T) {
	svc := newAdminFixture(t)

	token, err := svc.Login("admin@example.com", "secret-password")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	require.NoError(t, err)
	claims := parsed.Claims.(jwt.MapClaims)
	assert.Equal(t, "admin@example.com", claims["email"])
}

func TestAdminLoginRejectsBadCredentials(t *testing.T) {
	svc := newAdminFixture(t)

	_, err := svc.Login("admin@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login("someone@example.com", "secret-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAdminLoginRejectsWhenUnconfigured(t *testing.T) {
	svc := NewAdminService(config.AuthConfig{}, nopLogger{}, NewAuditTrail(10))
	_, err := svc.Login("", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
