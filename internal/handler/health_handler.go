package handler

import (
	"context"
	"io"
	"net/http"
	"time"

	"pisces-api/internal/container"
	"pisces-api/pkg/errors"
)

const healthCheckTimeout = 3 * time.Second

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
	Version   string            `json:"version"`
	Service   string            `json:"service"`
	Checks    map[string]string `json:"checks"`
}

// Root handles GET /
func (h *HealthHandler) Root(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, "Hello Pisces!")
}

// Check handles GET /health. The store is required; Redis is reported but optional.
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	logger := h.container.GetLogger()

	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Version:   "1.0.0",
		Service:   "pisces-api",
		Checks:    map[string]string{},
	}
	status := http.StatusOK

	if err := h.container.GetUserRepository().Health(ctx); err != nil {
		logger.WithError(err).Warn("User store health check failed")
		response.Checks["store"] = err.Error()
		response.Status = "unhealthy"
		status = http.StatusServiceUnavailable
	} else {
		response.Checks["store"] = "ok"
	}

	switch {
	case !h.container.HasRedis():
		response.Checks["redis"] = "disabled"
	case h.container.GetRedisClient().Health(ctx) != nil:
		response.Checks["redis"] = "unavailable"
		if response.Status == "healthy" {
			response.Status = "degraded"
		}
	default:
		response.Checks["redis"] = "ok"
	}

	writeJSON(w, logger, status, response)
}

// NotFound answers unknown routes with a JSON error
func (h *HealthHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	appErr := errors.NewNotFoundError("not found")
	writeJSON(w, h.container.GetLogger(), appErr.StatusCode, map[string]string{"error": appErr.Message})
}

// MethodNotAllowed answers known routes hit with the wrong method
func (h *HealthHandler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	appErr := errors.NewMethodNotAllowedError("method not allowed")
	writeJSON(w, h.container.GetLogger(), appErr.StatusCode, map[string]string{"error": appErr.Message})
}
