package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"aegis/internal/consent/models"
)

// PostgresStore persists consent records in PostgreSQL. The unique index on
// (user_id, consent_type) enforces first-wins at the storage layer.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed consent store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Save(ctx context.Context, record *models.Record) error {
	if record == nil {
		return fmt.Errorf("consent record is required")
	}
	details, err := json.Marshal(record.Details)
	if err != nil {
		return fmt.Errorf("marshal consent details: %w", err)
	}
	query := `
		INSERT INTO consents (id, user_id, consent_type, basis, details, granted_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, consent_type) DO NOTHING
		RETURNING id
	`
	var storedID string
	err = s.db.QueryRowContext(ctx, query,
		record.ID,
		record.UserID,
		string(record.Type),
		record.Basis,
		details,
		record.GrantedAt,
	).Scan(&storedID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("save consent: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByUserAndType(ctx context.Context, userID string, consentType models.Type) (*models.Record, error) {
	query := selectColumns + " WHERE user_id = $1 AND consent_type = $2"
	record, err := scanRecord(s.db.QueryRowContext(ctx, query, userID, string(consentType)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find consent: %w", err)
	}
	return record, nil
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID string) ([]*models.Record, error) {
	query := selectColumns + " WHERE user_id = $1 ORDER BY granted_at DESC"
	return s.queryRecords(ctx, query, userID)
}

func (s *PostgresStore) List(ctx context.Context, consentType models.Type, limit, offset int) ([]*models.Record, error) {
	query := selectColumns
	var args []any
	if consentType != "" {
		query += " WHERE consent_type = $1"
		args = append(args, string(consentType))
	}
	query += " ORDER BY granted_at DESC"
	if limit > 0 {
		query += " LIMIT " + strconv.Itoa(limit)
	}
	if offset > 0 {
		query += " OFFSET " + strconv.Itoa(offset)
	}
	return s.queryRecords(ctx, query, args...)
}

func (s *PostgresStore) Count(ctx context.Context, consentType models.Type) (int, error) {
	query := "SELECT COUNT(*) FROM consents"
	var args []any
	if consentType != "" {
		query += " WHERE consent_type = $1"
		args = append(args, string(consentType))
	}
	var total int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count consents: %w", err)
	}
	return total, nil
}

func (s *PostgresStore) CountByType(ctx context.Context) (map[models.Type]int, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT consent_type, COUNT(*) FROM consents GROUP BY consent_type")
	if err != nil {
		return nil, fmt.Errorf("count consents by type: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.Type]int)
	for rows.Next() {
		var consentType string
		var count int
		if err := rows.Scan(&consentType, &count); err != nil {
			return nil, fmt.Errorf("scan consent type count: %w", err)
		}
		counts[models.Type(consentType)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("count consents by type: %w", err)
	}
	return counts, nil
}

func (s *PostgresStore) Exists(ctx context.Context, userID string, consentType models.Type) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		"SELECT EXISTS (SELECT 1 FROM consents WHERE user_id = $1 AND consent_type = $2)",
		userID, string(consentType),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check consent existence: %w", err)
	}
	return exists, nil
}

const selectColumns = `
	SELECT id, user_id, consent_type, basis, details, granted_at
	FROM consents`

func (s *PostgresStore) queryRecords(ctx context.Context, query string, args ...any) ([]*models.Record, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list consents: %w", err)
	}
	defer rows.Close()

	var records []*models.Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan consent: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list consents: %w", err)
	}
	return records, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*models.Record, error) {
	var (
		record      models.Record
		consentType string
		details     []byte
	)
	if err := row.Scan(&record.ID, &record.UserID, &consentType, &record.Basis, &details, &record.GrantedAt); err != nil {
		return nil, err
	}
	record.Type = models.Type(consentType)
	if len(details) > 0 {
		if err := json.Unmarshal(details, &record.Details); err != nil {
			return nil, fmt.Errorf("unmarshal consent details: %w", err)
		}
	}
	return &record, nil
}
