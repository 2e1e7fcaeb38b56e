package handler

import (
	"net/http"

	"pisces-api/internal/container"
	"pisces-api/internal/domain"
)

// DiagnosticsHandler exposes a bounded view of persisted users
type DiagnosticsHandler struct {
	container *container.Container
}

// NewDiagnosticsHandler creates a new diagnostics handler
func NewDiagnosticsHandler(container *container.Container) *DiagnosticsHandler {
	return &DiagnosticsHandler{
		container: container,
	}
}

// FirestoreTest handles GET /api/firestore-test
func (h *DiagnosticsHandler) FirestoreTest(w http.ResponseWriter, r *http.Request) {
	logger := h.container.GetLogger()
	cfg := h.container.GetConfig()

	users, err := h.container.GetUserService().ListUsers(r.Context())
	if err != nil {
		logger.WithError(err).Error("Failed to list users")
		writeJSON(w, logger, http.StatusInternalServerError, map[string]interface{}{
			"ok":       false,
			"project":  cfg.FirestoreProjectID,
			"database": cfg.FirestoreDatabaseID,
			"error":    err.Error(),
		})
		return
	}

	if users == nil {
		users = []domain.UserDocument{}
	}

	writeJSON(w, logger, http.StatusOK, map[string]interface{}{
		"ok":          true,
		"project":     cfg.FirestoreProjectID,
		"database":    cfg.FirestoreDatabaseID,
		"users_count": len(users),
		"users":       users,
	})
}
