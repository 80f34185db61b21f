package handler

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

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aegis/internal/identity/models"
	"aegis/internal/platform/middleware"
	"aegis/internal/rbac"
	dErrors "aegis/pkg/domain-errors"
)

type fakeService struct {
	loginErr error
}

func (f *fakeService) Login(_ context.Context, email, _ string) (string, *models.User, error) {
	if f.loginErr != nil {
		return "", nil, f.loginErr
	}
	return "signed-token", &models.User{ID: "user-1", Email: email, Role: rbac.RoleClient, CreatedAt: time.Now().UTC()}, nil
}

func (f *fakeService) GetUser(_ context.Context, id string) (*models.User, error) {
	return &models.User{ID: id, Email: "alice@example.com", Role: rbac.RoleClient}, nil
}

func newHandler() (*Handler, *fakeService) {
	svc := &fakeService{}
	return New(svc, slog.New(slog.NewTextHandler(io.Discard, nil))), svc
}

func TestHandleLogin(t *testing.T) {
	h, _ := newHandler()

	body := `{"email":"alice@example.com","password":"correct-horse"}`
	rec := httptest.NewRecorder()
	h.HandleLogin(rec, httptest.NewRequest("POST", "/auth/login", strings.NewReader(body)))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "signed-token", resp.AccessToken)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.Equal(t, "user-1", resp.User.ID)
	assert.NotContains(t, rec.Body.String(), "password_hash")
}

func TestHandleLogin_BadRequests(t *testing.T) {
	h, _ := newHandler()

	tests := []struct {
		name string
		body string
	}{
		{"not json", "{{{"},
		{"missing password", `{"email":"alice@example.com"}`},
		{"invalid email", `{"email":"not-an-email","password":"x"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.HandleLogin(rec, httptest.NewRequest("POST", "/auth/login", strings.NewReader(tt.body)))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestHandleLogin_InvalidCredentials(t *testing.T) {
	h, svc := newHandler()
	svc.loginErr = dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")

	body := `{"email":"alice@example.com","password":"wrong"}`
	rec := httptest.NewRecorder()
	h.HandleLogin(rec, httptest.NewRequest("POST", "/auth/login", strings.NewReader(body)))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandleMe(t *testing.T) {
	h, _ := newHandler()

	r := httptest.NewRequest("GET", "/auth/me", nil)
	ctx := middleware.WithIdentity(r.Context(), middleware.Identity{UserID: "user-1", Role: rbac.RoleClient})
	rec := httptest.NewRecorder()
	h.HandleMe(rec, r.WithContext(ctx))

	require.Equal(t, http.StatusOK, rec.Code)

	var public models.Public
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &public))
	assert.Equal(t, "user-1", public.ID)
	assert.Equal(t, "alice@example.com", public.Email)
}

func TestHandleMe_Unauthenticated(t *testing.T) {
	h, _ := newHandler()

	rec := httptest.NewRecorder()
	h.HandleMe(rec, httptest.NewRequest("GET", "/auth/me", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
