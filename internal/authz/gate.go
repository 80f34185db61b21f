// Package authz implements the request authorization gate: a middleware that
// evaluates declared per-route metadata against the caller's identity before
// any business logic runs. Denials stop processing immediately and leave no
// partial side effects; the gate itself never writes audit records.
package authz

import (
	"log/slog"
	"net/http"

	"aegis/internal/platform/middleware"
	"aegis/internal/rbac"
	"aegis/internal/transport/http/shared"
	dErrors "aegis/pkg/domain-errors"
)

// Gate allows or denies operations based on their declared metadata.
type Gate struct {
	engine *rbac.Engine
	logger *slog.Logger
}

// NewGate builds a gate over the given decision engine.
func NewGate(engine *rbac.Engine, logger *slog.Logger) *Gate {
	return &Gate{engine: engine, logger: logger}
}

// Require returns a middleware enforcing the operation's metadata. The check
// order is fixed: public short-circuit, identity, required roles, then the
// {resource, action} permission. The first failing step terminates the
// request with the matching denial reason.
func (g *Gate) Require(op Operation) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if op.Public() {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			ident, ok := middleware.GetIdentity(ctx)
			if !ok {
				g.logger.WarnContext(ctx, "access denied - no identity",
					"path", r.URL.Path,
					"request_id", middleware.GetRequestID(ctx),
				)
				shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "not authenticated"))
				return
			}

			if len(op.Roles) > 0 && !g.engine.HasRole(ident.Role, op.Roles...) {
				g.deny(w, r, ident, "insufficient role")
				return
			}

			if op.Gated() && !g.engine.CanAccess(ident.Role, op.Resource, op.Action) {
				g.deny(w, r, ident, "insufficient resource permission")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (g *Gate) deny(w http.ResponseWriter, r *http.Request, ident middleware.Identity, reason string) {
	ctx := r.Context()
	g.logger.WarnContext(ctx, "access denied",
		"reason", reason,
		"role", string(ident.Role),
		"user_id", ident.UserID,
		"path", r.URL.Path,
		"request_id", middleware.GetRequestID(ctx),
	)
	shared.WriteError(w, dErrors.New(dErrors.CodeForbidden, reason))
}
