package store

import (
	"context"

	"aegis/internal/consent/models"
	dErrors "aegis/pkg/domain-errors"
)

var (
	// ErrNotFound keeps storage-specific 404s consistent across implementations.
	ErrNotFound = dErrors.New(dErrors.CodeNotFound, "consent record not found")
	// ErrAlreadyExists signals a concurrent first-wins conflict on
	// (user, type); the caller re-reads and returns the winner.
	ErrAlreadyExists = dErrors.New(dErrors.CodeConflict, "consent record already exists")
)

// Store is the append-only persistence interface for consent records.
//
// Error Contract:
// - Save returns ErrAlreadyExists when a record for (user, type) exists
// - FindByUserAndType returns ErrNotFound when no record exists
// - Other methods return nil on success or wrapped errors on failure
//
// There is no update, revoke, or delete: the first grant wins permanently.
type Store interface {
	Save(ctx context.Context, record *models.Record) error
	FindByUserAndType(ctx context.Context, userID string, consentType models.Type) (*models.Record, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Record, error)
	List(ctx context.Context, consentType models.Type, limit, offset int) ([]*models.Record, error)
	Count(ctx context.Context, consentType models.Type) (int, error)
	CountByType(ctx context.Context) (map[models.Type]int, error)
	Exists(ctx context.Context, userID string, consentType models.Type) (bool, error)
}
