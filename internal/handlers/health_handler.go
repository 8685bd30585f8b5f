package handlers

import (
	"net/http"

	"wholesale-backend/internal/health"
	"wholesale-backend/pkg/utils"
)

type HealthHandler struct {
	checker *health.HealthChecker
}

func NewHealthHandler(checker *health.HealthChecker) *HealthHandler {
	return &HealthHandler{checker: checker}
}

// BasicHealth - for liveness probes
func (h *HealthHandler) BasicHealth(w http.ResponseWriter, r *http.Request) {
	utils.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ReadinessHealth - 503 until the database answers
func (h *HealthHandler) ReadinessHealth(w http.ResponseWriter, r *http.Request) {
	status := h.checker.CheckBasic(r.Context())
	if status.Status == "unhealthy" {
		utils.JSON(w, http.StatusServiceUnavailable, status)
		return
	}
	utils.JSON(w, http.StatusOK, status)
}
