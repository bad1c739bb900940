package services

import (
	"context"

	"example.com/registrar/config"
	"example.com/registrar/internal/auth"
	"example.com/registrar/internal/metrics"
	"example.com/registrar/internal/models"
	"example.com/registrar/internal/repositories"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

// UserService handles account creation and authentication
type UserService struct {
	users     UserStore
	tokens    *auth.TokenManager
	adminCode string
	metrics   *metrics.Metrics
}

// NewUserService creates a new user service
func NewUserService(users UserStore, tokens *auth.TokenManager, cfg config.AuthConfig, m *metrics.Metrics) *UserService {
	return &UserService{
		users:     users,
		tokens:    tokens,
		adminCode: cfg.AdminCode,
		metrics:   m,
	}
}

// SignUp registers a new account and returns it with a signed session token.
// Creating an admin account requires the configured admin code.
func (s *UserService) SignUp(ctx context.Context, name, email, password, role, adminCode string) (*models.User, string, error) {
	if role != models.RoleAdmin {
		role = models.RoleUser
	}
	if role == models.RoleAdmin && adminCode != s.adminCode {
		s.metrics.IncrementCounter("signup_invalid_admin_code")
		return nil, "", ErrInvalidAdminCode
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", errors.Wrap(err, "failed to hash password")
	}

	user := &models.User{
		ID:       uuid.New(),
		Name:     name,
		Email:    email,
		Password: string(hashed),
		Role:     role,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, "", ErrEmailTaken
		}
		return nil, "", err
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, "", err
	}

	s.metrics.IncrementCounter("users_registered")
	log.Info().Str("user_id", user.ID.String()).Str("role", user.Role).Msg("user registered")

	return user, token, nil
}

// SignIn authenticates credentials and returns the account with a fresh token
func (s *UserService) SignIn(ctx context.Context, email, password string) (*models.User, string, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		s.metrics.IncrementCounter("signin_failed")
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, "", err
	}

	s.metrics.IncrementCounter("signin_succeeded")
	return user, token, nil
}

// GetUser returns a single account by id
func (s *UserService) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	return user, nil
}
