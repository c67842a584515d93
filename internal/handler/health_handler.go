package handler

import (
	"net/http"
	"time"

	"auth-gateway/internal/container"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	container *container.Container
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(container *container.Container) *HealthHandler {
	return &HealthHandler{
		container: container,
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Service   string            `json:"service"`
	Checks    map[string]string `json:"checks"`
}

// Check handles GET /health, pinging both backing stores
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	log := h.container.GetLogger()
	ctx := r.Context()

	status := http.StatusOK
	checks := map[string]string{
		"database": "ok",
		"redis":    "ok",
	}

	if err := h.container.Database.Health(ctx); err != nil {
		log.WithError(err).Error("Database health check failed")
		checks["database"] = "unavailable"
		status = http.StatusServiceUnavailable
	}
	if err := h.container.RedisClient.Health(ctx); err != nil {
		log.WithError(err).Error("Redis health check failed")
		checks["redis"] = "unavailable"
		status = http.StatusServiceUnavailable
	}

	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Service:   "auth-gateway",
		Checks:    checks,
	}
	if status != http.StatusOK {
		response.Status = "degraded"
	}

	writeJSON(w, status, response, log)
}
