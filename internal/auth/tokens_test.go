package auth

import (
	"testing"
	"time"

	"example.com/registrar/config"
	"example.com/registrar/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func testUser() *models.User {
	return &models.User{
		ID:    uuid.New(),
		Name:  "Jane Doe",
		Email: "jane@example.com",
		Role:  models.RoleAdmin,
	}
}

func TestIssueAndVerify(t *testing.T) {
	manager := NewTokenManager(config.AuthConfig{JWTSecret: "test-secret", TokenTTL: time.Hour})
	user := testUser()

	token, err := manager.Issue(user)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := manager.Verify(token)
	require.NoError(t, err)
	require.Equal(t, user.ID, claims.UserID)
	require.Equal(t, user.Email, claims.Email)
	require.Equal(t, models.RoleAdmin, claims.Role)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	issuer := NewTokenManager(config.AuthConfig{JWTSecret: "secret-a", TokenTTL: time.Hour})
	verifier := NewTokenManager(config.AuthConfig{JWTSecret: "secret-b", TokenTTL: time.Hour})

	token, err := issuer.Issue(testUser())
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	manager := NewTokenManager(config.AuthConfig{JWTSecret: "test-secret", TokenTTL: -time.Minute})

	// A non-positive TTL falls back to the default week-long lifetime, so
	// build an expired manager directly.
	manager.ttl = -time.Minute

	token, err := manager.Issue(testUser())
	require.NoError(t, err)

	_, err = manager.Verify(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	manager := NewTokenManager(config.AuthConfig{JWTSecret: "test-secret", TokenTTL: time.Hour})

	_, err := manager.Verify("not-a-token")
	require.ErrorIs(t, err, ErrInvalidToken)
}
