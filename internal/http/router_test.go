package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"clinic-backend/internal/apperr"
	"clinic-backend/internal/auth"
	"clinic-backend/internal/config"
	"clinic-backend/internal/handlers"
	"clinic-backend/internal/health"
	"clinic-backend/internal/middleware"
	"clinic-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staff map[int]*models.User

func (s staff) Get(ctx context.Context, id int) (*models.User, error) {
	if u, ok := s[id]; ok {
		return u, nil
	}
	return nil, apperr.NotFound("user", id)
}

type okChecker struct{}

func (okChecker) CheckBasic(ctx context.Context) health.HealthStatus {
	return health.HealthStatus{Status: "healthy"}
}

type emptyAudit struct{}

func (emptyAudit) List(ctx context.Context, filter models.AuditLogFilter) ([]*models.AuditLog, error) {
	return []*models.AuditLog{}, nil
}

func newTestRouter(t *testing.T) (http.Handler, *auth.JWTManager) {
	t.Helper()
	cfg := &config.Config{}
	cfg.JWT.Secret = "router-secret"
	cfg.JWT.Issuer = "clinic-backend"
	cfg.JWT.ExpirationHours = 1
	jwt := auth.NewJWTManager(cfg)

	users := staff{
		1: {ID: 1, Role: models.RoleReception, IsActive: true},
		2: {ID: 2, Role: models.RoleAdmin, IsActive: true},
	}

	r := NewRouter(Handlers{
		Auth:        handlers.NewAuthHandler(nil),
		Appointment: handlers.NewAppointmentHandler(nil),
		Invoice:     handlers.NewInvoiceHandler(nil, nil),
		Cash:        handlers.NewCashHandler(nil),
		Product:     handlers.NewProductHandler(nil),
		Audit:       handlers.NewAuditHandler(emptyAudit{}),
		Report:      handlers.NewReportHandler(nil),
		Health:      handlers.NewHealthHandler(okChecker{}),
		Agenda:      http.NotFoundHandler(),
	}, middleware.NewAuthMiddleware(jwt, users))
	return r, jwt
}

func bearer(t *testing.T, jwt *auth.JWTManager, user *models.User) string {
	t.Helper()
	tok, err := jwt.GenerateToken(user)
	require.NoError(t, err)
	return "Bearer " + tok
}

func TestRouter_PublicRoutes(t *testing.T) {
	r, _ := newTestRouter(t)

	for _, path := range []string{"/health", "/health/ready", "/metrics"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestRouter_APIRequiresToken(t *testing.T) {
	r, _ := newTestRouter(t)

	for _, path := range []string{"/api/appointments", "/api/invoices", "/api/cash/summary", "/api/audit", "/ws/agenda"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}
}

func TestRouter_RolePolicy(t *testing.T) {
	r, jwt := newTestRouter(t)
	reception := bearer(t, jwt, &models.User{ID: 1, Role: models.RoleReception})
	admin := bearer(t, jwt, &models.User{ID: 2, Role: models.RoleAdmin})

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		status int
	}{
		{"reception cannot read audit", http.MethodGet, "/api/audit", reception, http.StatusForbidden},
		{"admin reads audit", http.MethodGet, "/api/audit", admin, http.StatusOK},
		{"reception cannot export reports", http.MethodGet, "/api/reports/invoices.csv", reception, http.StatusForbidden},
		{"reception cannot restock", http.MethodPost, "/api/products/3/restock", reception, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			req.Header.Set("Authorization", tt.token)
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}
