package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"aegis/internal/audit/models"
	"aegis/internal/platform/middleware"
	"aegis/internal/rbac"
	"aegis/internal/transport/http/json"
	"aegis/internal/transport/http/shared"
	dErrors "aegis/pkg/domain-errors"
	"aegis/pkg/pagination"
)

// Service defines the read operations exposed over HTTP. Writes happen only
// through the observation interceptor; there is no endpoint for them.
type Service interface {
	List(ctx context.Context, callerID string, callerRole rbac.Role, filter models.Filter, page pagination.Request) (pagination.Page[*models.Entry], error)
	GetByID(ctx context.Context, callerID string, callerRole rbac.Role, id string) (*models.Entry, error)
	Stats(ctx context.Context, callerID string, callerRole rbac.Role) (*models.Stats, error)
}

// Handler handles audit trail endpoints.
type Handler struct {
	audit  Service
	logger *slog.Logger
}

// New creates a new audit Handler.
func New(audit Service, logger *slog.Logger) *Handler {
	return &Handler{audit: audit, logger: logger}
}

// HandleList returns a page of audit entries, filterable by entity, action,
// startDate, and endDate. Visibility scoping happens in the service.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ident, ok := middleware.GetIdentity(ctx)
	if !ok {
		shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "not authenticated"))
		return
	}

	filter, err := filterFromQuery(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	page, err := h.audit.List(ctx, ident.UserID, ident.Role, filter, pageFromQuery(r))
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list audit entries",
			"error", err,
			"request_id", middleware.GetRequestID(ctx),
		)
		shared.WriteError(w, err)
		return
	}

	json.WriteJSON(w, http.StatusOK, page)
}

// HandleStats returns aggregate counts over the caller-visible trail.
func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ident, ok := middleware.GetIdentity(ctx)
	if !ok {
		shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "not authenticated"))
		return
	}

	stats, err := h.audit.Stats(ctx, ident.UserID, ident.Role)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to aggregate audit stats",
			"error", err,
			"request_id", middleware.GetRequestID(ctx),
		)
		shared.WriteError(w, err)
		return
	}

	json.WriteJSON(w, http.StatusOK, stats)
}

// HandleGetByID returns a single audit entry, ownership-checked in the service.
func (h *Handler) HandleGetByID(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ident, ok := middleware.GetIdentity(ctx)
	if !ok {
		shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "not authenticated"))
		return
	}

	entry, err := h.audit.GetByID(ctx, ident.UserID, ident.Role, chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	json.WriteJSON(w, http.StatusOK, entry)
}

// filterFromQuery parses optional entity/action/startDate/endDate filters.
func filterFromQuery(r *http.Request) (models.Filter, error) {
	q := r.URL.Query()
	filter := models.Filter{
		Entity: q.Get("entity"),
	}

	if raw := q.Get("action"); raw != "" {
		action := models.Action(raw)
		if !action.IsValid() {
			return models.Filter{}, dErrors.New(dErrors.CodeValidation, "action must be one of [CREATE READ UPDATE DELETE]")
		}
		filter.Action = action
	}

	if raw := q.Get("startDate"); raw != "" {
		t, err := parseDate(raw)
		if err != nil {
			return models.Filter{}, dErrors.New(dErrors.CodeValidation, "startDate must be an RFC 3339 timestamp or YYYY-MM-DD date")
		}
		filter.From = &t
	}

	if raw := q.Get("endDate"); raw != "" {
		t, err := parseDate(raw)
		if err != nil {
			return models.Filter{}, dErrors.New(dErrors.CodeValidation, "endDate must be an RFC 3339 timestamp or YYYY-MM-DD date")
		}
		filter.To = &t
	}

	return filter, nil
}

func parseDate(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", raw)
}

func pageFromQuery(r *http.Request) pagination.Request {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	return pagination.Request{Page: page, Limit: limit}
}
