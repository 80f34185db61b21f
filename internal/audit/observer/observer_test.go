package observer

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"aegis/internal/audit/models"
	auditservice "aegis/internal/audit/service"
	auditstore "aegis/internal/audit/store"
	"aegis/internal/authz"
	"aegis/internal/platform/middleware"
	"aegis/internal/rbac"
)

type ObserverSuite struct {
	suite.Suite
	store    *auditstore.InMemoryStore
	observer *Observer
}

func (s *ObserverSuite) SetupTest() {
	s.store = auditstore.NewInMemory()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.observer = New(auditservice.NewRecorder(s.store, logger), logger)
}

func TestObserverSuite(t *testing.T) {
	suite.Run(t, new(ObserverSuite))
}

// withIdentity simulates the auth middleware for the routes under test.
func withIdentity(userID string, role rbac.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := middleware.WithIdentity(r.Context(), middleware.Identity{UserID: userID, Role: role})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func (s *ObserverSuite) entries() []*models.Entry {
	s.T().Helper()
	entries, err := s.store.List(context.Background(), models.Filter{}, 0, 0)
	s.Require().NoError(err)
	return entries
}

func (s *ObserverSuite) gatedOp() authz.Operation {
	return authz.Operation{Resource: rbac.ResourceConsent, Action: rbac.ActionRead}
}

func (s *ObserverSuite) TestSuccessRecorded() {
	r := chi.NewRouter()
	r.Use(withIdentity("user-1", rbac.RoleClient))
	r.With(s.observer.Observe(s.gatedOp())).Get("/consent/my", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest("GET", "/consent/my?page=2", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.9")
	req.Header.Set("User-Agent", "test-agent")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	entries := s.entries()
	s.Require().Len(entries, 1)
	entry := entries[0]
	s.Equal("user-1", entry.UserID)
	s.Equal(models.ActionRead, entry.Action)
	s.Equal(rbac.ResourceConsent, entry.Entity)
	s.Empty(entry.EntityID)

	var details map[string]any
	s.Require().NoError(json.Unmarshal([]byte(entry.Details), &details))
	s.Equal("GET", details["method"])
	s.Equal("/consent/my?page=2", details["url"])
	s.Equal("203.0.113.0", details["ip"], "stored IP is anonymized")
	s.Equal("test-agent", details["user_agent"])
	s.Equal(true, details["success"])
	s.NotContains(details, "error")
}

func (s *ObserverSuite) TestFailureRecordsErrorMessage() {
	r := chi.NewRouter()
	r.Use(withIdentity("user-1", rbac.RoleClient))
	r.With(s.observer.Observe(s.gatedOp())).Get("/consent/my", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":"forbidden","error_description":"insufficient role"}`))
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/consent/my", nil))

	entries := s.entries()
	s.Require().Len(entries, 1)

	var details map[string]any
	s.Require().NoError(json.Unmarshal([]byte(entries[0].Details), &details))
	s.Equal(false, details["success"])
	s.Equal("insufficient role", details["error"])
}

func (s *ObserverSuite) TestFailureWithoutEnvelopeUsesStatusText() {
	r := chi.NewRouter()
	r.Use(withIdentity("user-1", rbac.RoleClient))
	r.With(s.observer.Observe(s.gatedOp())).Get("/consent/my", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/consent/my", nil))

	entries := s.entries()
	s.Require().Len(entries, 1)

	var details map[string]any
	s.Require().NoError(json.Unmarshal([]byte(entries[0].Details), &details))
	s.Equal(false, details["success"])
	s.Equal("Internal Server Error", details["error"])
}

func (s *ObserverSuite) TestBodySanitized() {
	r := chi.NewRouter()
	r.Use(withIdentity("user-1", rbac.RoleClient))
	op := authz.Operation{Resource: rbac.ResourceConsent, Action: rbac.ActionCreate}
	r.With(s.observer.Observe(op)).Post("/consent/give", func(w http.ResponseWriter, req *http.Request) {
		// The handler still sees the full body.
		raw, _ := io.ReadAll(req.Body)
		assert.Contains(s.T(), string(raw), "hunter2")
		w.WriteHeader(http.StatusOK)
	})

	body := `{"consent_type":"marketing","password":"hunter2"}`
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("POST", "/consent/give", strings.NewReader(body)))

	entries := s.entries()
	s.Require().Len(entries, 1)
	s.Equal(models.ActionCreate, entries[0].Action)
	s.Contains(entries[0].Details, `"password":"[REDACTED]"`)
	s.Contains(entries[0].Details, `"consent_type":"marketing"`)
	s.NotContains(entries[0].Details, "hunter2")
}

func (s *ObserverSuite) TestOversizedBodyReachesHandlerIntact() {
	r := chi.NewRouter()
	r.Use(withIdentity("user-1", rbac.RoleClient))
	op := authz.Operation{Resource: rbac.ResourceConsent, Action: rbac.ActionCreate}

	var seen int
	r.With(s.observer.Observe(op)).Post("/consent/give", func(w http.ResponseWriter, req *http.Request) {
		raw, err := io.ReadAll(req.Body)
		require.NoError(s.T(), err)
		seen = len(raw)
		w.WriteHeader(http.StatusOK)
	})

	// A valid JSON object comfortably past the snapshot bound.
	body := `{"consent_type":"marketing","details":"` + strings.Repeat("x", maxCapturedBody+10_000) + `"}`
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("POST", "/consent/give", strings.NewReader(body)))

	s.Require().Equal(http.StatusOK, rec.Code)
	s.Equal(len(body), seen, "handler reads the full body")

	entries := s.entries()
	s.Require().Len(entries, 1)
	s.NotContains(entries[0].Details, `"body"`, "oversized body is not snapshotted")
	s.Contains(entries[0].Details, `"success":true`)
}

func (s *ObserverSuite) TestRouteParamsCaptured() {
	r := chi.NewRouter()
	r.Use(withIdentity("user-1", rbac.RoleAdmin))
	op := authz.Operation{Resource: rbac.ResourceAudit, Action: rbac.ActionRead}
	r.With(s.observer.Observe(op)).Get("/audit/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/audit/entry-42", nil))

	entries := s.entries()
	s.Require().Len(entries, 1)
	s.Equal("entry-42", entries[0].EntityID)

	var details map[string]any
	s.Require().NoError(json.Unmarshal([]byte(entries[0].Details), &details))
	params := details["params"].(map[string]any)
	s.Equal("entry-42", params["id"])
}

func (s *ObserverSuite) TestNonGatedOperationSkipped() {
	r := chi.NewRouter()
	r.Use(withIdentity("user-1", rbac.RoleClient))
	r.With(s.observer.Observe(authz.Operation{})).Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))

	s.Empty(s.entries())
}

func (s *ObserverSuite) TestUnauthenticatedSkipped() {
	r := chi.NewRouter()
	r.With(s.observer.Observe(s.gatedOp())).Get("/consent/my", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/consent/my", nil))

	s.Empty(s.entries())
}

func (s *ObserverSuite) TestExactlyOnePerRequest() {
	r := chi.NewRouter()
	r.Use(withIdentity("user-1", rbac.RoleClient))
	r.With(s.observer.Observe(s.gatedOp())).Get("/consent/my", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest("GET", "/consent/my", nil))
	}

	s.Len(s.entries(), 3)
}

func TestPanicStillRecorded(t *testing.T) {
	store := auditstore.NewInMemory()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	obs := New(auditservice.NewRecorder(store, logger), logger)

	r := chi.NewRouter()
	r.Use(withIdentity("user-1", rbac.RoleClient))
	op := authz.Operation{Resource: rbac.ResourceConsent, Action: rbac.ActionRead}
	r.With(obs.Observe(op)).Get("/consent/my", func(http.ResponseWriter, *http.Request) {
		panic("handler exploded")
	})

	rec := httptest.NewRecorder()
	assert.PanicsWithValue(t, "handler exploded", func() {
		r.ServeHTTP(rec, httptest.NewRequest("GET", "/consent/my", nil))
	})

	entries, err := store.List(context.Background(), models.Filter{}, 0, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	var details map[string]any
	require.NoError(t, json.Unmarshal([]byte(entries[0].Details), &details))
	assert.Equal(t, false, details["success"])
	assert.Equal(t, "panic: handler exploded", details["error"])
}
