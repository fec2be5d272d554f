package handler

import (
	"encoding/json"
	"net/http"

	"github.com/capitalize-ai/conversation-handoff/internal/middleware"
	"github.com/capitalize-ai/conversation-handoff/internal/service"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{
		"error": message,
	})
}

// session returns the caller's session.
func session(sessions *service.SessionManager, r *http.Request) *service.Session {
	return sessions.For(middleware.GetUserID(r.Context()))
}
