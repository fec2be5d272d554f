package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/capitalize-ai/conversation-handoff/internal/media"
	"github.com/capitalize-ai/conversation-handoff/internal/middleware"
	"github.com/capitalize-ai/conversation-handoff/internal/model"
	"github.com/capitalize-ai/conversation-handoff/internal/service"
)

// MediaHandler serves the gated gallery and invoice panels.
type MediaHandler struct {
	sessions *service.SessionManager
}

// NewMediaHandler creates a new media handler.
func NewMediaHandler(sessions *service.SessionManager) *MediaHandler {
	return &MediaHandler{sessions: sessions}
}

// Gallery handles GET /api/v1/conversations/{id}/gallery
func (h *MediaHandler) Gallery(w http.ResponseWriter, r *http.Request) {
	conv, ok := h.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, media.Gallery(conv))
}

// Invoice handles GET /api/v1/conversations/{id}/invoice
func (h *MediaHandler) Invoice(w http.ResponseWriter, r *http.Request) {
	conv, ok := h.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, media.Invoice(conv))
}

func (h *MediaHandler) lookup(w http.ResponseWriter, r *http.Request) (model.Conversation, bool) {
	conversationID := chi.URLParam(r, "id")
	if err := middleware.ValidateConversationID(conversationID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return model.Conversation{}, false
	}

	conv, ok := session(h.sessions, r).Conversations.Get(conversationID)
	if !ok {
		writeError(w, http.StatusNotFound, "conversation not found")
		return model.Conversation{}, false
	}
	return conv, true
}
