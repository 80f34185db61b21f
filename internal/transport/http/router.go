// Package httptransport wires the HTTP surface: middleware stack, per-route
// authorization metadata, and the audit interceptor around gated routes.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	auditHandler "aegis/internal/audit/handler"
	"aegis/internal/audit/observer"
	"aegis/internal/authz"
	consentHandler "aegis/internal/consent/handler"
	identityHandler "aegis/internal/identity/handler"
	"aegis/internal/platform/health"
	"aegis/internal/platform/middleware"
	"aegis/internal/rbac"
)

// Deps carries everything the router composes. The router itself holds no
// business logic; every route is a gate + observer + handler chain built from
// the operation table below.
type Deps struct {
	Identity  *identityHandler.Handler
	Audit     *auditHandler.Handler
	Consent   *consentHandler.Handler
	Health    *health.Handler
	Gate      *authz.Gate
	Observer  *observer.Observer
	Validator middleware.TokenValidator
	Logger    *slog.Logger
}

// NewRouter builds the full route tree. Authorization metadata is declared
// next to each route so the gate, the audit interceptor, and the reader of
// this file all see the same contract.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(d.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(d.Logger))
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.ContentTypeJSON)

	d.Health.Register(r)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Post("/auth/login", d.Identity.HandleLogin)

	// Everything below requires a valid bearer token.
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(d.Validator, d.Logger))

		r.Get("/auth/me", d.Identity.HandleMe)

		auditRead := authz.Operation{Resource: rbac.ResourceAudit, Action: rbac.ActionRead}
		r.With(d.guard(auditRead)...).Get("/audit", d.Audit.HandleList)
		r.With(d.guard(auditRead)...).Get("/audit/stats", d.Audit.HandleStats)
		r.With(d.guard(auditRead)...).Get("/audit/{id}", d.Audit.HandleGetByID)

		consentRead := authz.Operation{Resource: rbac.ResourceConsent, Action: rbac.ActionRead}
		consentCreate := authz.Operation{Resource: rbac.ResourceConsent, Action: rbac.ActionCreate}
		adminConsentRead := authz.Operation{
			Roles:    []rbac.Role{rbac.RoleAdmin},
			Resource: rbac.ResourceConsent,
			Action:   rbac.ActionRead,
		}

		r.With(d.guard(consentCreate)...).Post("/consent/give", d.Consent.HandleGive)
		r.With(d.guard(consentRead)...).Get("/consent/my", d.Consent.HandleMy)
		r.With(d.guard(consentRead)...).Get("/consent/check/{consentType}", d.Consent.HandleCheck)
		r.With(d.guard(consentRead)...).Get("/consent/user/{userID}", d.Consent.HandleForUser)
		r.With(d.guard(adminConsentRead)...).Get("/consent/all", d.Consent.HandleAll)
		r.With(d.guard(adminConsentRead)...).Get("/consent/stats", d.Consent.HandleStats)
	})

	return r
}

// guard stacks the audit interceptor and the authorization gate for one
// operation. The interceptor wraps the gate, so a denial is recorded like
// any other failed outcome while the gate itself stays side-effect free.
func (d Deps) guard(op authz.Operation) []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		d.Observer.Observe(op),
		d.Gate.Require(op),
	}
}
