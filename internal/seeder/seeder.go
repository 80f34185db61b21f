// Package seeder populates an empty identity store with one account per role
// so a fresh deployment is immediately usable.
package seeder

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"aegis/internal/identity/models"
	"aegis/internal/identity/store"
	"aegis/internal/rbac"
	dErrors "aegis/pkg/domain-errors"
)

type seedUser struct {
	email    string
	name     string
	password string
	role     rbac.Role
}

var seedUsers = []seedUser{
	{"admin@aegis.local", "Ada Admin", "admin-password", rbac.RoleAdmin},
	{"manager@aegis.local", "Mori Manager", "manager-password", rbac.RoleManager},
	{"client@aegis.local", "Cleo Client", "client-password", rbac.RoleClient},
	{"candidate@aegis.local", "Cam Candidate", "candidate-password", rbac.RoleCandidate},
}

// Seeder creates demo users when the store is empty.
type Seeder struct {
	store  store.Store
	logger *slog.Logger
}

// New creates a Seeder.
func New(st store.Store, logger *slog.Logger) *Seeder {
	return &Seeder{store: st, logger: logger}
}

// Run seeds one user per role if and only if the store has no users yet.
// Safe to call on every startup.
func (s *Seeder) Run(ctx context.Context) error {
	count, err := s.store.Count(ctx)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check user count")
	}
	if count > 0 {
		s.logger.DebugContext(ctx, "identity store already populated, skipping seed", "users", count)
		return nil
	}

	for _, su := range seedUsers {
		hash, err := bcrypt.GenerateFromPassword([]byte(su.password), bcrypt.DefaultCost)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash seed password")
		}

		user := &models.User{
			ID:           uuid.New().String(),
			Email:        su.email,
			Name:         su.name,
			PasswordHash: string(hash),
			Role:         su.role,
			CreatedAt:    time.Now().UTC(),
		}
		if err := s.store.Save(ctx, user); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save seed user")
		}
		s.logger.InfoContext(ctx, "seeded user", "email", su.email, "role", su.role)
	}

	return nil
}
