package handler

import (
	"net/http"

	"pisces-api/internal/container"
	"pisces-api/internal/domain"
	"pisces-api/pkg/errors"
)

// ChatHandler relays chat messages to the generation provider
type ChatHandler struct {
	container *container.Container
}

// NewChatHandler creates a new chat handler
func NewChatHandler(container *container.Container) *ChatHandler {
	return &ChatHandler{
		container: container,
	}
}

// Chat handles POST and OPTIONS /api/chat
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	logger := h.container.GetLogger()
	body := decodeJSONObject(r)

	reply, err := h.container.GetChatService().Reply(r.Context(), stringField(body, "message"))
	if err != nil {
		appErr := errors.AsAppError(err)
		writeJSON(w, logger, appErr.StatusCode, domain.ChatReply{
			Error:  appErr.Message,
			Detail: appErr.Detail,
		})
		return
	}

	writeJSON(w, logger, http.StatusOK, domain.ChatReply{Reply: reply})
}
