package services

import (
	"context"
	"testing"

	"example.com/registrar/config"
	"example.com/registrar/internal/auth"
	"example.com/registrar/internal/metrics"
	"example.com/registrar/internal/models"
	"example.com/registrar/internal/repositories"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestUserService(users UserStore) *UserService {
	return &UserService{
		users:     users,
		tokens:    auth.NewTokenManager(config.AuthConfig{JWTSecret: "test-secret"}),
		adminCode: "let-me-in",
		metrics:   metrics.NewMetrics(),
	}
}

func TestSignUpUser(t *testing.T) {
	mockUsers := new(MockUserStore)
	mockUsers.On("Create", mock.Anything, mock.AnythingOfType("*models.User")).Return(nil)

	service := newTestUserService(mockUsers)

	user, token, err := service.SignUp(context.Background(), "Jane Doe", "jane@example.com", "hunter2hunter2", "", "")

	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.Equal(t, models.RoleUser, user.Role)
	// The stored password is a bcrypt hash, never the plaintext
	require.NotEqual(t, "hunter2hunter2", user.Password)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("hunter2hunter2")))

	mockUsers.AssertExpectations(t)
}

func TestSignUpAdminRequiresCode(t *testing.T) {
	mockUsers := new(MockUserStore)
	service := newTestUserService(mockUsers)

	_, _, err := service.SignUp(context.Background(), "Eve", "eve@example.com", "hunter2hunter2", models.RoleAdmin, "wrong-code")

	require.ErrorIs(t, err, ErrInvalidAdminCode)
	mockUsers.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestSignUpAdminWithCode(t *testing.T) {
	mockUsers := new(MockUserStore)
	mockUsers.On("Create", mock.Anything, mock.AnythingOfType("*models.User")).Return(nil)

	service := newTestUserService(mockUsers)

	user, _, err := service.SignUp(context.Background(), "Root", "root@example.com", "hunter2hunter2", models.RoleAdmin, "let-me-in")

	require.NoError(t, err)
	require.Equal(t, models.RoleAdmin, user.Role)
}

func TestSignUpDuplicateEmail(t *testing.T) {
	mockUsers := new(MockUserStore)
	mockUsers.On("Create", mock.Anything, mock.Anything).
		Return(errors.Wrap(repositories.ErrDuplicateKey, "failed to create user"))

	service := newTestUserService(mockUsers)

	_, _, err := service.SignUp(context.Background(), "Jane", "jane@example.com", "hunter2hunter2", "", "")

	require.ErrorIs(t, err, ErrEmailTaken)
}

func TestSignIn(t *testing.T) {
	hashed, err := bcrypt.GenerateFromPassword([]byte("hunter2hunter2"), bcrypt.MinCost)
	require.NoError(t, err)

	stored := &models.User{
		Name:     "Jane Doe",
		Email:    "jane@example.com",
		Password: string(hashed),
		Role:     models.RoleUser,
	}

	mockUsers := new(MockUserStore)
	mockUsers.On("GetByEmail", mock.Anything, "jane@example.com").Return(stored, nil)

	service := newTestUserService(mockUsers)

	user, token, err := service.SignIn(context.Background(), "jane@example.com", "hunter2hunter2")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.Equal(t, stored.Email, user.Email)

	_, _, err = service.SignIn(context.Background(), "jane@example.com", "wrong-password")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestSignInUnknownEmail(t *testing.T) {
	mockUsers := new(MockUserStore)
	mockUsers.On("GetByEmail", mock.Anything, "nobody@example.com").Return(nil, repositories.ErrNotFound)

	service := newTestUserService(mockUsers)

	_, _, err := service.SignIn(context.Background(), "nobody@example.com", "whatever")

	// Unknown accounts and wrong passwords are indistinguishable to callers
	require.ErrorIs(t, err, ErrInvalidCredentials)
}
