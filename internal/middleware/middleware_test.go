package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"clinic-backend/internal/apperr"
	"clinic-backend/internal/auth"
	"clinic-backend/internal/config"
	"clinic-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeUsers map[int]*models.User

func (f fakeUsers) Get(ctx context.Context, id int) (*models.User, error) {
	if u, ok := f[id]; ok {
		return u, nil
	}
	return nil, apperr.NotFound("user", id)
}

func newAuth(t *testing.T) (*AuthMiddleware, *auth.JWTManager) {
	t.Helper()
	cfg := &config.Config{}
	cfg.JWT.Secret = "middleware-secret"
	cfg.JWT.Issuer = "clinic-backend"
	cfg.JWT.ExpirationHours = 1
	jwt := auth.NewJWTManager(cfg)

	users := fakeUsers{
		1: {ID: 1, Name: "Recepção", Role: models.RoleReception, IsActive: true},
		2: {ID: 2, Name: "Inativo", Role: models.RoleReception, IsActive: false},
		3: {ID: 3, Name: "Admin", Role: models.RoleAdmin, IsActive: true},
	}
	return NewAuthMiddleware(jwt, users), jwt
}

func token(t *testing.T, jwt *auth.JWTManager, id int, role string) string {
	t.Helper()
	tok, err := jwt.GenerateToken(&models.User{ID: id, Role: role})
	require.NoError(t, err)
	return "Bearer " + tok
}

func TestAuthenticate(t *testing.T) {
	m, jwt := newAuth(t)
	var actor *int
	h := m.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor = ActorFromContext(r.Context())
	}))

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"bad scheme", "Token abc", http.StatusUnauthorized},
		{"garbage token", "Bearer abc", http.StatusUnauthorized},
		{"inactive user", token(t, jwt, 2, models.RoleReception), http.StatusForbidden},
		{"unknown user", token(t, jwt, 9, models.RoleReception), http.StatusUnauthorized},
		{"valid", token(t, jwt, 1, models.RoleReception), http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/agenda", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code)
		})
	}
	require.NotNil(t, actor)
	assert.Equal(t, 1, *actor)
}

func TestRequireRole(t *testing.T) {
	m, _ := newAuth(t)
	h := m.RequireRole(models.RoleFinance)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	for role, status := range map[string]int{
		models.RoleFinance:   http.StatusOK,
		models.RoleAdmin:     http.StatusOK,
		models.RoleReception: http.StatusForbidden,
	} {
		req := httptest.NewRequest(http.MethodGet, "/api/cash", nil)
		req = req.WithContext(WithUser(req.Context(), &models.User{ID: 5, Role: role}))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, status, rec.Code, role)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/cash", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPanicRecovery(t *testing.T) {
	h := PanicRecovery(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error": "Internal server error"}`, rec.Body.String())
}

func TestRequestLoggerSetsRequestID(t *testing.T) {
	var seen string
	h := RequestLogger(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestIDFromContext(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/agenda", nil))
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))
	assert.Equal(t, http.StatusTeapot, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/agenda", nil)
	req.Header.Set(RequestIDHeader, "desk-2-42")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "desk-2-42", seen)
}
