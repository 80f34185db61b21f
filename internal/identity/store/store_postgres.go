package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"aegis/internal/identity/models"
	"aegis/internal/rbac"
	dErrors "aegis/pkg/domain-errors"
)

// PostgresStore persists users in the users table.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed user store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Save inserts a user row.
func (s *PostgresStore) Save(ctx context.Context, user *models.User) error {
	const query = `
		INSERT INTO users (id, email, name, password_hash, role, created_at)
		VALUES ($1, LOWER($2), $3, $4, $5, $6)`

	_, err := s.db.ExecContext(ctx, query,
		user.ID, user.Email, user.Name, user.PasswordHash, string(user.Role), user.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrAlreadyExists
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save user")
	}
	return nil
}

// FindByID returns the user with the given ID.
func (s *PostgresStore) FindByID(ctx context.Context, id string) (*models.User, error) {
	const query = `
		SELECT id, email, name, password_hash, role, created_at
		FROM users WHERE id = $1`

	return s.scanUser(s.db.QueryRowContext(ctx, query, id))
}

// FindByEmail returns the user with the given email.
func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	const query = `
		SELECT id, email, name, password_hash, role, created_at
		FROM users WHERE email = LOWER($1)`

	return s.scanUser(s.db.QueryRowContext(ctx, query, email))
}

// Count returns the number of users.
func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count users")
	}
	return count, nil
}

func (s *PostgresStore) scanUser(row *sql.Row) (*models.User, error) {
	var user models.User
	var role string
	err := row.Scan(&user.ID, &user.Email, &user.Name, &user.PasswordHash, &role, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to scan user")
	}
	user.Role = rbac.Role(role)
	return &user, nil
}
