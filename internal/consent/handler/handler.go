package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"aegis/internal/consent/models"
	"aegis/internal/platform/middleware"
	"aegis/internal/rbac"
	respond "aegis/internal/transport/http/json"
	"aegis/internal/transport/http/shared"
	dErrors "aegis/pkg/domain-errors"
	"aegis/pkg/pagination"
	"aegis/pkg/validation"
)

// Service defines the interface for consent operations.
type Service interface {
	Grant(ctx context.Context, userID string, consentType models.Type, ip, userAgent string) (*models.Record, error)
	ListForUser(ctx context.Context, callerID string, callerRole rbac.Role, targetUserID string) ([]*models.Record, error)
	ListAll(ctx context.Context, callerRole rbac.Role, page pagination.Request, consentType models.Type) (pagination.Page[*models.Record], error)
	Stats(ctx context.Context, callerRole rbac.Role) (*models.Stats, error)
	Check(ctx context.Context, userID string, consentType models.Type) (bool, error)
}

// Handler handles consent ledger endpoints.
type Handler struct {
	consent Service
	logger  *slog.Logger
}

// New creates a new consent Handler.
func New(consent Service, logger *slog.Logger) *Handler {
	return &Handler{consent: consent, logger: logger}
}

// GrantRequest is the body of POST /consent/give.
type GrantRequest struct {
	ConsentType string `json:"consent_type" validate:"required,notblank"`
}

// CheckResponse is the body of GET /consent/check/{consentType}.
type CheckResponse struct {
	ConsentType string `json:"consent_type"`
	Granted     bool   `json:"granted"`
}

// HandleGive grants a consent type for the authenticated caller. Granting is
// idempotent: fresh and repeated grants both return 200 with the stored
// record, so repeats see the original grant context.
func (h *Handler) HandleGive(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ident, ok := middleware.GetIdentity(ctx)
	if !ok {
		shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "not authenticated"))
		return
	}

	var req GrantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if err := validation.Validate(&req); err != nil {
		shared.WriteError(w, err)
		return
	}

	record, err := h.consent.Grant(ctx, ident.UserID, models.Type(req.ConsentType), shared.ClientIP(r), r.UserAgent())
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to grant consent",
			"error", err,
			"request_id", middleware.GetRequestID(ctx),
		)
		shared.WriteError(w, err)
		return
	}

	respond.WriteJSON(w, http.StatusOK, record)
}

// HandleMy lists the caller's own consent records.
func (h *Handler) HandleMy(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ident, ok := middleware.GetIdentity(ctx)
	if !ok {
		shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "not authenticated"))
		return
	}
	h.listForUser(w, r, ident, ident.UserID)
}

// HandleForUser lists another user's consent records (admin or self).
func (h *Handler) HandleForUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ident, ok := middleware.GetIdentity(ctx)
	if !ok {
		shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "not authenticated"))
		return
	}
	h.listForUser(w, r, ident, chi.URLParam(r, "userID"))
}

func (h *Handler) listForUser(w http.ResponseWriter, r *http.Request, ident middleware.Identity, targetUserID string) {
	ctx := r.Context()
	records, err := h.consent.ListForUser(ctx, ident.UserID, ident.Role, targetUserID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, records)
}

// HandleAll lists all consent records, paginated and optionally filtered by
// consentType. Admin only; the service enforces the role.
func (h *Handler) HandleAll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ident, ok := middleware.GetIdentity(ctx)
	if !ok {
		shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "not authenticated"))
		return
	}

	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))

	result, err := h.consent.ListAll(ctx, ident.Role, pagination.Request{Page: page, Limit: limit}, models.Type(q.Get("consentType")))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, result)
}

// HandleStats returns ledger-wide counts grouped by consent type. Admin only.
func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ident, ok := middleware.GetIdentity(ctx)
	if !ok {
		shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "not authenticated"))
		return
	}

	stats, err := h.consent.Stats(ctx, ident.Role)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, stats)
}

// HandleCheck reports whether the caller has granted the given consent type.
func (h *Handler) HandleCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ident, ok := middleware.GetIdentity(ctx)
	if !ok {
		shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "not authenticated"))
		return
	}

	consentType := chi.URLParam(r, "consentType")
	granted, err := h.consent.Check(ctx, ident.UserID, models.Type(consentType))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, CheckResponse{ConsentType: consentType, Granted: granted})
}
