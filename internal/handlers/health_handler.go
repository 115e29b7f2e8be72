package handlers

import (
	"context"
	"net/http"

	"clinic-backend/internal/health"
	"clinic-backend/pkg/utils"
)

type HealthChecker interface {
	CheckBasic(ctx context.Context) health.HealthStatus
}

type HealthHandler struct {
	checker HealthChecker
}

func NewHealthHandler(checker HealthChecker) *HealthHandler {
	return &HealthHandler{checker: checker}
}

// BasicHealth - for liveness probes
func (h *HealthHandler) BasicHealth(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ReadinessHealth - for readiness probes; a degraded cache still serves
func (h *HealthHandler) ReadinessHealth(w http.ResponseWriter, r *http.Request) {
	status := h.checker.CheckBasic(r.Context())

	code := http.StatusOK
	if status.Status == "unhealthy" {
		code = http.StatusServiceUnavailable
	}
	utils.RespondJSON(w, code, status)
}
