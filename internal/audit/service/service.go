// Package service implements the audit recorder: the single write path into
// the audit trail and the role-scoped read operations over it.
package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"aegis/internal/audit/metrics"
	"aegis/internal/audit/models"
	"aegis/internal/audit/store"
	"aegis/internal/rbac"
	dErrors "aegis/pkg/domain-errors"
	"aegis/pkg/pagination"
)

const (
	recentWindow = 24 * time.Hour
	recentLimit  = 10
)

// Store defines the persistence interface for audit entries.
// Error Contract:
// - FindByID returns store.ErrNotFound when no entry exists
// - Other methods return nil on success or wrapped errors on failure
type Store interface {
	Append(ctx context.Context, entry *models.Entry) error
	FindByID(ctx context.Context, id string) (*models.Entry, error)
	List(ctx context.Context, filter models.Filter, limit, offset int) ([]*models.Entry, error)
	Count(ctx context.Context, filter models.Filter) (int, error)
	CountByAction(ctx context.Context, filter models.Filter) (map[models.Action]int, error)
	CountByEntity(ctx context.Context, filter models.Filter) (map[string]int, error)
	ListSince(ctx context.Context, filter models.Filter, since time.Time, limit int) ([]*models.Entry, error)
}

// Recorder persists and queries audit entries. Writes are log-and-continue:
// a failed audit write is reported through logs and metrics but never
// surfaces to the caller, so the business operation it observed still
// completes normally.
type Recorder struct {
	store   Store
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
}

// Option configures the Recorder.
type Option func(*Recorder)

// WithMetrics sets the metrics collector for the recorder.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Recorder) {
		r.metrics = m
	}
}

// NewRecorder builds a recorder over the given store.
func NewRecorder(s Store, logger *slog.Logger, opts ...Option) *Recorder {
	r := &Recorder{
		store:  s,
		logger: logger,
		tracer: otel.Tracer("aegis/audit"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record appends one audit entry and returns it. On any failure it logs,
// counts the drop, and returns nil: callers must treat nil as "audit
// unavailable", never as a business error. No retries are attempted.
func (r *Recorder) Record(ctx context.Context, userID string, action models.Action, entity, entityID string, details map[string]any) *models.Entry {
	ctx, span := r.tracer.Start(ctx, "audit.record", trace.WithAttributes(
		attribute.String("audit.action", string(action)),
		attribute.String("audit.entity", entity),
	))
	defer span.End()

	entry := &models.Entry{
		ID:        uuid.New().String(),
		UserID:    userID,
		Action:    action,
		Entity:    entity,
		EntityID:  entityID,
		CreatedAt: time.Now().UTC(),
	}

	if details != nil {
		serialized, err := json.Marshal(details)
		if err != nil {
			r.dropEntry(ctx, entry, err)
			return nil
		}
		entry.Details = string(serialized)
	}

	if err := r.store.Append(ctx, entry); err != nil {
		r.dropEntry(ctx, entry, err)
		return nil
	}

	if r.metrics != nil {
		r.metrics.IncrementEntriesRecorded(string(action), entity)
	}
	return entry
}

func (r *Recorder) dropEntry(ctx context.Context, entry *models.Entry, err error) {
	r.logger.ErrorContext(ctx, "failed to persist audit entry",
		"error", err,
		"action", string(entry.Action),
		"entity", entry.Entity,
		"user_id", entry.UserID,
	)
	if r.metrics != nil {
		r.metrics.IncrementWriteFailures()
	}
}

// List returns a page of audit entries visible to the caller. Non-elevated
// callers are implicitly scoped to their own entries regardless of the
// requested filter.
func (r *Recorder) List(ctx context.Context, callerID string, callerRole rbac.Role, filter models.Filter, page pagination.Request) (pagination.Page[*models.Entry], error) {
	filter = scopeFilter(filter, callerID, callerRole)
	page = page.Normalize()

	total, err := r.store.Count(ctx, filter)
	if err != nil {
		return pagination.Page[*models.Entry]{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count audit entries")
	}

	entries, err := r.store.List(ctx, filter, page.Limit, page.Offset())
	if err != nil {
		return pagination.Page[*models.Entry]{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list audit entries")
	}

	return pagination.NewPage(entries, total, page), nil
}

// GetByID returns a single entry. Non-elevated callers may only read entries
// they own; foreign entries fail with a forbidden error, not a 404, since
// the gate already allowed the read on the audit resource.
func (r *Recorder) GetByID(ctx context.Context, callerID string, callerRole rbac.Role, id string) (*models.Entry, error) {
	entry, err := r.store.FindByID(ctx, id)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			return nil, err
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load audit entry")
	}
	if !callerRole.Elevated() && entry.UserID != callerID {
		return nil, dErrors.New(dErrors.CodeForbidden, "audit entry belongs to another user")
	}
	return entry, nil
}

// Stats aggregates the caller-visible slice of the trail: total count, counts
// grouped by action and entity, and the most recent entries from the last 24
// hours. The four queries fan out concurrently.
func (r *Recorder) Stats(ctx context.Context, callerID string, callerRole rbac.Role) (*models.Stats, error) {
	ctx, span := r.tracer.Start(ctx, "audit.stats")
	defer span.End()

	filter := scopeFilter(models.Filter{}, callerID, callerRole)
	stats := &models.Stats{}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		total, err := r.store.Count(gctx, filter)
		stats.Total = total
		return err
	})
	g.Go(func() error {
		byAction, err := r.store.CountByAction(gctx, filter)
		stats.ByAction = byAction
		return err
	})
	g.Go(func() error {
		byEntity, err := r.store.CountByEntity(gctx, filter)
		stats.ByEntity = byEntity
		return err
	})
	g.Go(func() error {
		recent, err := r.store.ListSince(gctx, filter, time.Now().UTC().Add(-recentWindow), recentLimit)
		stats.Recent = recent
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to aggregate audit stats")
	}
	if stats.Recent == nil {
		stats.Recent = []*models.Entry{}
	}
	return stats, nil
}

// scopeFilter pins the filter to the caller's own entries unless the role is
// elevated. This happens before any store access so requested filters cannot
// widen visibility.
func scopeFilter(filter models.Filter, callerID string, callerRole rbac.Role) models.Filter {
	if !callerRole.Elevated() {
		filter.UserID = callerID
	}
	return filter
}

var _ Store = (store.Store)(nil)
