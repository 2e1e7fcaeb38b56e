package handler

import (
	"net/http"

	"pisces-api/internal/container"
	"pisces-api/internal/domain"
	"pisces-api/pkg/errors"
)

// AuthHandler handles Google sign-in requests
type AuthHandler struct {
	container *container.Container
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(container *container.Container) *AuthHandler {
	return &AuthHandler{
		container: container,
	}
}

// Google handles POST and OPTIONS /api/auth/google
func (h *AuthHandler) Google(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	logger := h.container.GetLogger()
	body := decodeJSONObject(r)

	user, err := h.container.GetUserService().AuthenticateGoogle(r.Context(), stringField(body, "credential"))
	if err != nil {
		h.writeErrorResponse(w, errors.AsAppError(err))
		return
	}

	writeJSON(w, logger, http.StatusOK, domain.AuthResult{OK: true, User: user})
}

// writeErrorResponse writes an {ok:false, error} response to the client
func (h *AuthHandler) writeErrorResponse(w http.ResponseWriter, appErr *errors.AppError) {
	logger := h.container.GetLogger()
	logger.WithField("error_type", string(appErr.Type)).Debug("Sign-in rejected")

	writeJSON(w, logger, appErr.StatusCode, domain.AuthResult{
		OK:    false,
		Error: appErr.Message,
	})
}
