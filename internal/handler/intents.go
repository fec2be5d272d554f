package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/capitalize-ai/conversation-handoff/internal/middleware"
	"github.com/capitalize-ai/conversation-handoff/internal/model"
	"github.com/capitalize-ai/conversation-handoff/internal/service"
	"github.com/capitalize-ai/conversation-handoff/pkg/logger"
)

// IntentHandler handles booking intent endpoints.
type IntentHandler struct {
	sessions *service.SessionManager
	logger   *logger.Logger
}

// NewIntentHandler creates a new intent handler.
func NewIntentHandler(sessions *service.SessionManager, log *logger.Logger) *IntentHandler {
	return &IntentHandler{sessions: sessions, logger: log}
}

// Record handles POST /api/v1/bookings/{counterpartyId}/intents
func (h *IntentHandler) Record(w http.ResponseWriter, r *http.Request) {
	counterpartyID := chi.URLParam(r, "counterpartyId")
	if err := middleware.ValidateCounterpartyID(counterpartyID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req model.RecordIntentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := middleware.ValidateMessageContent(req.Message); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	recorded, err := session(h.sessions, r).Intents.RecordIntent(counterpartyID, req.Message)
	if err != nil {
		h.logger.Error("failed to record intent",
			zap.String("counterparty_id", counterpartyID),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "failed to record intent")
		return
	}
	if !recorded {
		writeError(w, http.StatusBadRequest, "message cannot be empty")
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{
		"conversation_id": model.ConversationID(counterpartyID),
	})
}
