package store

import (
	"context"

	"aegis/internal/identity/models"
	dErrors "aegis/pkg/domain-errors"
)

var (
	// ErrNotFound keeps storage-specific 404s consistent across implementations.
	ErrNotFound = dErrors.New(dErrors.CodeNotFound, "user not found")
	// ErrAlreadyExists signals a duplicate email on save.
	ErrAlreadyExists = dErrors.New(dErrors.CodeConflict, "user already exists")
)

// Store is the persistence interface for users.
type Store interface {
	Save(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Count(ctx context.Context) (int, error)
}
