package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"aegis/internal/rbac"
)

// TokenValidator validates a bearer token and returns its claims.
type TokenValidator interface {
	ValidateToken(tokenString string) (*TokenClaims, error)
}

// TokenClaims is the subset of token claims the middleware cares about. The
// role arrives as an untrusted string and is parsed before use.
type TokenClaims struct {
	UserID string
	Role   string
	JTI    string
}

// Identity is the authenticated caller attached to the request context.
// Everything downstream (gate, interceptor, services) trusts it verbatim.
type Identity struct {
	UserID string
	Role   rbac.Role
}

type identityKey struct{}

// GetIdentity retrieves the authenticated identity from the context.
func GetIdentity(ctx context.Context) (Identity, bool) {
	ident, ok := ctx.Value(identityKey{}).(Identity)
	return ident, ok
}

// GetUserID retrieves the authenticated user ID from the context, or "".
func GetUserID(ctx context.Context) string {
	ident, _ := GetIdentity(ctx)
	return ident.UserID
}

// WithIdentity returns a context carrying the given identity. Exported for
// handler tests that bypass the HTTP middleware stack.
func WithIdentity(ctx context.Context, ident Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, ident)
}

// RequireAuth validates the bearer token and attaches the caller identity to
// the request context. Requests without a valid token are rejected with 401
// before reaching any business logic.
func RequireAuth(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := GetRequestID(ctx)

			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestID,
				)
				writeUnauthorized(w, "Missing or invalid Authorization header")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestID,
				)
				writeUnauthorized(w, "Invalid or expired token")
				return
			}

			role, err := rbac.ParseRole(claims.Role)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - unknown role claim",
					"role", claims.Role,
					"request_id", requestID,
				)
				writeUnauthorized(w, "Invalid or expired token")
				return
			}

			ctx = WithIdentity(ctx, Identity{UserID: claims.UserID, Role: role})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"` + description + `"}`))
}
