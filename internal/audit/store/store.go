package store

import (
	"context"
	"time"

	"aegis/internal/audit/models"
	dErrors "aegis/pkg/domain-errors"
)

// ErrNotFound keeps storage-specific 404s consistent across implementations.
var ErrNotFound = dErrors.New(dErrors.CodeNotFound, "audit entry not found")

// Store is the append-only persistence interface for audit entries.
//
// Error Contract:
// - FindByID returns ErrNotFound when no entry exists
// - Other methods return nil on success or wrapped errors on infrastructure failure
//
// There is deliberately no update or delete: compliance requires permanence.
type Store interface {
	Append(ctx context.Context, entry *models.Entry) error
	FindByID(ctx context.Context, id string) (*models.Entry, error)
	List(ctx context.Context, filter models.Filter, limit, offset int) ([]*models.Entry, error)
	Count(ctx context.Context, filter models.Filter) (int, error)
	CountByAction(ctx context.Context, filter models.Filter) (map[models.Action]int, error)
	CountByEntity(ctx context.Context, filter models.Filter) (map[string]int, error)
	ListSince(ctx context.Context, filter models.Filter, since time.Time, limit int) ([]*models.Entry, error)
}
