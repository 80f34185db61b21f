package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"aegis/internal/identity/models"
	"aegis/internal/platform/middleware"
	respond "aegis/internal/transport/http/json"
	"aegis/internal/transport/http/shared"
	dErrors "aegis/pkg/domain-errors"
	"aegis/pkg/validation"
)

// Service defines the identity operations exposed over HTTP.
type Service interface {
	Login(ctx context.Context, email, password string) (string, *models.User, error)
	GetUser(ctx context.Context, id string) (*models.User, error)
}

// Handler handles authentication endpoints.
type Handler struct {
	identity Service
	logger   *slog.Logger
}

// New creates a new identity Handler.
func New(identity Service, logger *slog.Logger) *Handler {
	return &Handler{identity: identity, logger: logger}
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,notblank"`
}

// LoginResponse is the body returned on a successful login.
type LoginResponse struct {
	AccessToken string        `json:"access_token"`
	TokenType   string        `json:"token_type"`
	User        models.Public `json:"user"`
}

// HandleLogin exchanges credentials for a signed access token.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if err := validation.Validate(&req); err != nil {
		shared.WriteError(w, err)
		return
	}

	token, user, err := h.identity.Login(ctx, req.Email, req.Password)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	respond.WriteJSON(w, http.StatusOK, LoginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		User:        user.Public(),
	})
}

// HandleMe returns the authenticated caller's own profile.
func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ident, ok := middleware.GetIdentity(ctx)
	if !ok {
		shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "not authenticated"))
		return
	}

	user, err := h.identity.GetUser(ctx, ident.UserID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to load user",
			"error", err,
			"request_id", middleware.GetRequestID(ctx),
		)
		shared.WriteError(w, err)
		return
	}

	respond.WriteJSON(w, http.StatusOK, user.Public())
}
