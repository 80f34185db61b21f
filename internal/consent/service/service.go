// Package service implements the consent ledger: first-wins grants with an
// audit trail, plus the role-restricted read operations over the ledger.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	auditmodels "aegis/internal/audit/models"
	"aegis/internal/consent/metrics"
	"aegis/internal/consent/models"
	"aegis/internal/consent/store"
	"aegis/internal/platform/device"
	"aegis/internal/platform/privacy"
	"aegis/internal/rbac"
	dErrors "aegis/pkg/domain-errors"
	"aegis/pkg/pagination"
)

// Store defines the persistence interface for consent records.
// Error Contract:
// - Save returns store.ErrAlreadyExists when (user, type) already has a record
// - FindByUserAndType returns store.ErrNotFound when no record exists
// - Other methods return nil on success or wrapped errors on failure
type Store interface {
	Save(ctx context.Context, record *models.Record) error
	FindByUserAndType(ctx context.Context, userID string, consentType models.Type) (*models.Record, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Record, error)
	List(ctx context.Context, consentType models.Type, limit, offset int) ([]*models.Record, error)
	Count(ctx context.Context, consentType models.Type) (int, error)
	CountByType(ctx context.Context) (map[models.Type]int, error)
	Exists(ctx context.Context, userID string, consentType models.Type) (bool, error)
}

// AuditRecorder is the write side of the audit trail. Record never fails
// from the caller's perspective; a nil entry means the write was dropped.
type AuditRecorder interface {
	Record(ctx context.Context, userID string, action auditmodels.Action, entity, entityID string, details map[string]any) *auditmodels.Entry
}

// Service enforces the consent ledger rules: grants are idempotent
// first-wins, nothing is ever updated or deleted, and only new grants leave
// an audit entry.
type Service struct {
	store    Store
	recorder AuditRecorder
	logger   *slog.Logger
	metrics  *metrics.Metrics
	tracer   trace.Tracer
}

// Option configures the Service.
type Option func(*Service)

// WithMetrics sets the metrics collector for the service.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// NewService builds a consent service over the given store and recorder.
func NewService(s Store, recorder AuditRecorder, logger *slog.Logger, opts ...Option) *Service {
	svc := &Service{
		store:    s,
		recorder: recorder,
		logger:   logger,
		tracer:   otel.Tracer("aegis/consent"),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Grant records a consent grant for the user. The first grant of a
// (user, type) pair wins: repeated grants return the existing record
// unchanged, create no duplicate row, and emit no second audit entry.
func (s *Service) Grant(ctx context.Context, userID string, consentType models.Type, ip, userAgent string) (*models.Record, error) {
	start := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.ObserveGrantLatency(time.Since(start).Seconds())
		}
	}()

	ctx, span := s.tracer.Start(ctx, "consent.grant", trace.WithAttributes(
		attribute.String("consent.type", string(consentType)),
	))
	defer span.End()

	if userID == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "missing user context")
	}
	if !consentType.IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, fmt.Sprintf("invalid consent type: %s", consentType))
	}

	existing, err := s.store.FindByUserAndType(ctx, userID, consentType)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read consent")
	}
	if err == nil {
		if s.metrics != nil {
			s.metrics.IncrementDuplicateGrants(string(consentType))
		}
		return existing, nil
	}

	record := &models.Record{
		ID:     uuid.New().String(),
		UserID: userID,
		Type:   consentType,
		Basis:  models.BasisConsent,
		Details: models.Details{
			IP:        privacy.AnonymizeIP(ip),
			UserAgent: userAgent,
			Device:    device.Summarize(userAgent),
		},
		GrantedAt: time.Now().UTC(),
	}

	if err := s.store.Save(ctx, record); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			// Lost a concurrent first-wins race; the stored record is the
			// grant of record and no audit entry is owed.
			return s.store.FindByUserAndType(ctx, userID, consentType)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save consent")
	}

	s.recorder.Record(ctx, userID, auditmodels.ActionCreate, rbac.ResourceConsent, record.ID, map[string]any{
		"consent_type": string(consentType),
		"basis":        record.Basis,
		"ip":           record.Details.IP,
		"user_agent":   record.Details.UserAgent,
	})
	if s.metrics != nil {
		s.metrics.IncrementConsentsGranted(string(consentType))
	}
	return record, nil
}

// ListForUser returns the target user's consent records. Only admins and the
// user themselves may look.
func (s *Service) ListForUser(ctx context.Context, callerID string, callerRole rbac.Role, targetUserID string) ([]*models.Record, error) {
	if callerRole != rbac.RoleAdmin && callerID != targetUserID {
		return nil, dErrors.New(dErrors.CodeForbidden, "cannot view another user's consents")
	}
	records, err := s.store.ListByUser(ctx, targetUserID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list consents")
	}
	if records == nil {
		records = []*models.Record{}
	}
	return records, nil
}

// ListAll returns a page of all consent records, optionally filtered by
// type. Admin only.
func (s *Service) ListAll(ctx context.Context, callerRole rbac.Role, page pagination.Request, consentType models.Type) (pagination.Page[*models.Record], error) {
	if callerRole != rbac.RoleAdmin {
		return pagination.Page[*models.Record]{}, dErrors.New(dErrors.CodeForbidden, "admin role required")
	}
	if consentType != "" && !consentType.IsValid() {
		return pagination.Page[*models.Record]{}, dErrors.New(dErrors.CodeValidation, fmt.Sprintf("invalid consent type: %s", consentType))
	}
	page = page.Normalize()

	total, err := s.store.Count(ctx, consentType)
	if err != nil {
		return pagination.Page[*models.Record]{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count consents")
	}
	records, err := s.store.List(ctx, consentType, page.Limit, page.Offset())
	if err != nil {
		return pagination.Page[*models.Record]{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list consents")
	}
	return pagination.NewPage(records, total, page), nil
}

// Stats returns ledger-wide counts grouped by consent type. Admin only.
func (s *Service) Stats(ctx context.Context, callerRole rbac.Role) (*models.Stats, error) {
	if callerRole != rbac.RoleAdmin {
		return nil, dErrors.New(dErrors.CodeForbidden, "admin role required")
	}
	counts, err := s.store.CountByType(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to aggregate consent stats")
	}
	total := 0
	for _, count := range counts {
		total += count
	}
	return &models.Stats{Total: total, ByType: counts}, nil
}

// Check reports whether the user has granted the given consent type. Used by
// feature gates, so it carries no authorization restriction of its own.
func (s *Service) Check(ctx context.Context, userID string, consentType models.Type) (bool, error) {
	if !consentType.IsValid() {
		return false, dErrors.New(dErrors.CodeValidation, fmt.Sprintf("invalid consent type: %s", consentType))
	}
	granted, err := s.store.Exists(ctx, userID, consentType)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check consent")
	}
	if s.metrics != nil {
		s.metrics.IncrementConsentChecks(string(consentType), granted)
	}
	return granted, nil
}
