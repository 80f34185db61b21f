package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"aegis/internal/audit/models"
)

// PostgresStore persists audit entries in PostgreSQL. The audit_log table has
// no UPDATE or DELETE path anywhere in the codebase; the schema relies on
// application discipline plus append-only queries here.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed audit store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, entry *models.Entry) error {
	if entry == nil {
		return fmt.Errorf("audit entry is required")
	}
	query := `
		INSERT INTO audit_log (id, user_id, action, entity, entity_id, details, created_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7)
	`
	_, err := s.db.ExecContext(ctx, query,
		entry.ID,
		entry.UserID,
		string(entry.Action),
		entry.Entity,
		entry.EntityID,
		entry.Details,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id string) (*models.Entry, error) {
	query := `
		SELECT id, user_id, action, entity, COALESCE(entity_id, ''), details, created_at
		FROM audit_log
		WHERE id = $1
	`
	entry, err := scanEntry(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find audit entry: %w", err)
	}
	return entry, nil
}

func (s *PostgresStore) List(ctx context.Context, filter models.Filter, limit, offset int) ([]*models.Entry, error) {
	query := `
		SELECT id, user_id, action, entity, COALESCE(entity_id, ''), details, created_at
		FROM audit_log
	`
	where, args := buildWhere(filter)
	query += where + " ORDER BY created_at DESC"
	if limit > 0 {
		query += " LIMIT " + strconv.Itoa(limit)
	}
	if offset > 0 {
		query += " OFFSET " + strconv.Itoa(offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []*models.Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	return entries, nil
}

func (s *PostgresStore) Count(ctx context.Context, filter models.Filter) (int, error) {
	where, args := buildWhere(filter)
	var total int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM audit_log"+where, args...).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("count audit entries: %w", err)
	}
	return total, nil
}

func (s *PostgresStore) CountByAction(ctx context.Context, filter models.Filter) (map[models.Action]int, error) {
	where, args := buildWhere(filter)
	query := "SELECT action, COUNT(*) FROM audit_log" + where + " GROUP BY action"
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("count audit entries by action: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.Action]int)
	for rows.Next() {
		var action string
		var count int
		if err := rows.Scan(&action, &count); err != nil {
			return nil, fmt.Errorf("scan action count: %w", err)
		}
		counts[models.Action(action)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("count audit entries by action: %w", err)
	}
	return counts, nil
}

func (s *PostgresStore) CountByEntity(ctx context.Context, filter models.Filter) (map[string]int, error) {
	where, args := buildWhere(filter)
	query := "SELECT entity, COUNT(*) FROM audit_log" + where + " GROUP BY entity"
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("count audit entries by entity: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var entity string
		var count int
		if err := rows.Scan(&entity, &count); err != nil {
			return nil, fmt.Errorf("scan entity count: %w", err)
		}
		counts[entity] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("count audit entries by entity: %w", err)
	}
	return counts, nil
}

func (s *PostgresStore) ListSince(ctx context.Context, filter models.Filter, since time.Time, limit int) ([]*models.Entry, error) {
	from := since
	filter.From = &from
	return s.List(ctx, filter, limit, 0)
}

// buildWhere renders the filter as a WHERE clause with positional args.
func buildWhere(filter models.Filter) (string, []any) {
	var (
		clauses []string
		args    []any
	)
	add := func(clause string, arg any) {
		args = append(args, arg)
		clauses = append(clauses, fmt.Sprintf(clause, len(args)))
	}

	if filter.UserID != "" {
		add("user_id = $%d", filter.UserID)
	}
	if filter.Entity != "" {
		add("entity = $%d", filter.Entity)
	}
	if filter.Action != "" {
		add("action = $%d", string(filter.Action))
	}
	if filter.From != nil {
		add("created_at >= $%d", *filter.From)
	}
	if filter.To != nil {
		add("created_at <= $%d", *filter.To)
	}

	if len(clauses) == 0 {
		return "", nil
	}
	where := " WHERE " + clauses[0]
	for _, c := range clauses[1:] {
		where += " AND " + c
	}
	return where, args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*models.Entry, error) {
	var entry models.Entry
	var action string
	if err := row.Scan(&entry.ID, &entry.UserID, &action, &entry.Entity, &entry.EntityID, &entry.Details, &entry.CreatedAt); err != nil {
		return nil, err
	}
	entry.Action = models.Action(action)
	return &entry, nil
}
