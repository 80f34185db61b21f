package httptransport

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	auditHandler "aegis/internal/audit/handler"
	auditmodels "aegis/internal/audit/models"
	"aegis/internal/audit/observer"
	auditService "aegis/internal/audit/service"
	auditStore "aegis/internal/audit/store"
	"aegis/internal/authz"
	consentHandler "aegis/internal/consent/handler"
	consentService "aegis/internal/consent/service"
	consentStore "aegis/internal/consent/store"
	identityHandler "aegis/internal/identity/handler"
	identityService "aegis/internal/identity/service"
	identityStore "aegis/internal/identity/store"
	jwttoken "aegis/internal/jwt_token"
	"aegis/internal/platform/health"
	"aegis/internal/rbac"
	"aegis/internal/seeder"
)

// RouterSuite exercises the assembled HTTP surface: auth middleware, gate,
// audit interceptor, and handlers wired exactly as in main.
type RouterSuite struct {
	suite.Suite
	router     http.Handler
	tokens     *jwttoken.Service
	users      *identityStore.InMemoryStore
	auditTrail *auditStore.InMemoryStore
}

func (s *RouterSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	s.users = identityStore.NewInMemory()
	s.auditTrail = auditStore.NewInMemory()
	consents := consentStore.NewInMemory()

	s.Require().NoError(seeder.New(s.users, logger).Run(context.Background()))

	s.tokens = jwttoken.NewService("router-test-key", 15*time.Minute)
	recorder := auditService.NewRecorder(s.auditTrail, logger)
	consent := consentService.NewService(consents, recorder, logger)
	identity := identityService.New(s.users, s.tokens, logger)

	s.router = NewRouter(Deps{
		Identity:  identityHandler.New(identity, logger),
		Audit:     auditHandler.New(recorder, logger),
		Consent:   consentHandler.New(consent, logger),
		Health:    health.New("test"),
		Gate:      authz.NewGate(rbac.NewEngine(nil), logger),
		Observer:  observer.New(recorder, logger),
		Validator: s.tokens,
		Logger:    logger,
	})
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) tokenFor(email string) string {
	s.T().Helper()
	user, err := s.users.FindByEmail(context.Background(), email)
	s.Require().NoError(err)
	token, err := s.tokens.Generate(user.ID, user.Role)
	s.Require().NoError(err)
	return token
}

func (s *RouterSuite) do(method, path, token, body string) *httptest.ResponseRecorder {
	s.T().Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	r := httptest.NewRequest(method, path, reader)
	r.Header.Set("Content-Type", "application/json")
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, r)
	return rec
}

func (s *RouterSuite) TestHealthIsPublic() {
	rec := s.do("GET", "/health/live", "", "")
	s.Equal(http.StatusOK, rec.Code)
}

func (s *RouterSuite) TestMetricsExposed() {
	rec := s.do("GET", "/metrics", "", "")
	s.Equal(http.StatusOK, rec.Code)
}

func (s *RouterSuite) TestLoginFlow() {
	rec := s.do("POST", "/auth/login", "", `{"email":"client@aegis.local","password":"client-password"}`)
	s.Require().Equal(http.StatusOK, rec.Code)

	var resp struct {
		AccessToken string `json:"access_token"`
	}
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	s.NotEmpty(resp.AccessToken)

	me := s.do("GET", "/auth/me", resp.AccessToken, "")
	s.Equal(http.StatusOK, me.Code)
	s.Contains(me.Body.String(), "client@aegis.local")
}

func (s *RouterSuite) TestProtectedRoutesRequireToken() {
	for _, path := range []string{"/audit", "/audit/stats", "/consent/my", "/auth/me"} {
		rec := s.do("GET", path, "", "")
		s.Equal(http.StatusUnauthorized, rec.Code, path)
	}
}

func (s *RouterSuite) TestConsentGrantIsAudited() {
	token := s.tokenFor("client@aegis.local")

	rec := s.do("POST", "/consent/give", token, `{"consent_type":"marketing"}`)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	entries, err := s.auditTrail.List(context.Background(), auditmodels.Filter{}, 0, 0)
	s.Require().NoError(err)
	// One entry from the grant itself, one from the observed POST.
	s.Require().Len(entries, 2)
	for _, e := range entries {
		s.Equal(rbac.ResourceConsent, e.Entity)
	}
}

func (s *RouterSuite) TestAuditListVisibleToClient() {
	token := s.tokenFor("client@aegis.local")

	s.do("POST", "/consent/give", token, `{"consent_type":"cookies"}`)

	rec := s.do("GET", "/audit", token, "")
	s.Require().Equal(http.StatusOK, rec.Code)

	var page struct {
		Total int `json:"total"`
	}
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &page))
	s.GreaterOrEqual(page.Total, 1)
}

func (s *RouterSuite) TestAdminOnlyConsentRoutes() {
	clientToken := s.tokenFor("client@aegis.local")
	adminToken := s.tokenFor("admin@aegis.local")

	rec := s.do("GET", "/consent/all", clientToken, "")
	s.Equal(http.StatusForbidden, rec.Code)

	rec = s.do("GET", "/consent/stats", clientToken, "")
	s.Equal(http.StatusForbidden, rec.Code)

	rec = s.do("GET", "/consent/all", adminToken, "")
	s.Equal(http.StatusOK, rec.Code)

	rec = s.do("GET", "/consent/stats", adminToken, "")
	s.Equal(http.StatusOK, rec.Code)
}

func (s *RouterSuite) TestGateDenialIsObserved() {
	clientToken := s.tokenFor("client@aegis.local")

	rec := s.do("GET", "/consent/all", clientToken, "")
	s.Require().Equal(http.StatusForbidden, rec.Code)

	entries, err := s.auditTrail.List(context.Background(), auditmodels.Filter{}, 0, 0)
	s.Require().NoError(err)
	s.Require().Len(entries, 1)
	s.Contains(entries[0].Details, `"success":false`)
	s.Contains(entries[0].Details, "insufficient role")
}

func (s *RouterSuite) TestConsentCheck() {
	token := s.tokenFor("candidate@aegis.local")

	rec := s.do("GET", "/consent/check/marketing", token, "")
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), `"granted":false`)

	s.do("POST", "/consent/give", token, `{"consent_type":"marketing"}`)

	rec = s.do("GET", "/consent/check/marketing", token, "")
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), `"granted":true`)
}

func (s *RouterSuite) TestUnknownRouteIs404() {
	rec := s.do("GET", "/nope", "", "")
	s.Equal(http.StatusNotFound, rec.Code)
}
