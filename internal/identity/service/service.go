package service

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"aegis/internal/identity/models"
	"aegis/internal/identity/store"
	"aegis/internal/rbac"
	dErrors "aegis/pkg/domain-errors"
)

// TokenIssuer mints signed access tokens after a successful login.
type TokenIssuer interface {
	Generate(userID string, role rbac.Role) (string, error)
}

// Service implements login and user lookup against the identity source.
type Service struct {
	store  store.Store
	tokens TokenIssuer
	logger *slog.Logger
}

// New creates an identity service.
func New(st store.Store, tokens TokenIssuer, logger *slog.Logger) *Service {
	return &Service{store: st, tokens: tokens, logger: logger}
}

// Login verifies credentials and returns a signed access token plus the user.
// Unknown email and wrong password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	user, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
		}
		return "", nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
	}

	token, err := s.tokens.Generate(user.ID, user.Role)
	if err != nil {
		return "", nil, err
	}

	s.logger.InfoContext(ctx, "user logged in", "user_id", user.ID, "role", user.Role)
	return token, user, nil
}

// GetUser returns a user by ID.
func (s *Service) GetUser(ctx context.Context, id string) (*models.User, error) {
	return s.store.FindByID(ctx, id)
}
