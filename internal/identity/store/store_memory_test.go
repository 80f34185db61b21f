package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aegis/internal/identity/models"
	"aegis/internal/rbac"
)

func user(id, email string) *models.User {
	return &models.User{ID: id, Email: email, Name: "Test", Role: rbac.RoleClient}
}

func TestInMemoryStore(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, user("u1", "alice@example.com")))

	t.Run("duplicate id rejected", func(t *testing.T) {
		err := s.Save(ctx, user("u1", "other@example.com"))
		assert.ErrorIs(t, err, ErrAlreadyExists)
	})

	t.Run("duplicate email rejected case-insensitively", func(t *testing.T) {
		err := s.Save(ctx, user("u2", "ALICE@example.com"))
		assert.ErrorIs(t, err, ErrAlreadyExists)
	})

	t.Run("find by id", func(t *testing.T) {
		found, err := s.FindByID(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, "alice@example.com", found.Email)

		_, err = s.FindByID(ctx, "missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("find by email ignores case and spacing", func(t *testing.T) {
		found, err := s.FindByEmail(ctx, "  Alice@Example.com ")
		require.NoError(t, err)
		assert.Equal(t, "u1", found.ID)

		_, err = s.FindByEmail(ctx, "nobody@example.com")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("count", func(t *testing.T) {
		count, err := s.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})
}
