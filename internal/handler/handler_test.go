package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitalize-ai/conversation-handoff/internal/durable"
	"github.com/capitalize-ai/conversation-handoff/internal/fixtures"
	"github.com/capitalize-ai/conversation-handoff/internal/media"
	"github.com/capitalize-ai/conversation-handoff/internal/model"
	"github.com/capitalize-ai/conversation-handoff/internal/service"
	"github.com/capitalize-ai/conversation-handoff/pkg/logger"
)

const testSecret = "handler-test-secret"

func newTestServer(t *testing.T) http.Handler {
	t.Helper()

	seed, err := fixtures.Default()
	require.NoError(t, err)

	hub := durable.NewHub(nil)
	sessions := service.NewSessionManager(func(userID string) durable.Store {
		return durable.Namespace(hub.Context(), "user/"+userID+"/")
	}, seed, nil)

	return NewRouter(RouterConfig{
		Sessions:  sessions,
		Health:    NewHealthHandler("memory", nil),
		Logger:    logger.Nop(),
		JWTSecret: testSecret,
	})
}

func bearer(t *testing.T, user string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   user,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	s, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return "Bearer " + s
}

func do(t *testing.T, srv http.Handler, method, target, user string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	if user != "" {
		req.Header.Set("Authorization", bearer(t, user))
	}
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	return w
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)

	w := do(t, srv, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, srv, http.MethodGet, "/ready", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestReadyReportsBackendDown(t *testing.T) {
	h := NewHealthHandler("nats", func() bool { return false })
	w := httptest.NewRecorder()
	h.Ready(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestAPIRequiresAuth(t *testing.T) {
	srv := newTestServer(t)
	w := do(t, srv, http.MethodGet, "/api/v1/conversations", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestBookingHandoffOverHTTP(t *testing.T) {
	srv := newTestServer(t)

	w := do(t, srv, http.MethodPost, "/api/v1/bookings/42/intents", "alice",
		model.RecordIntentRequest{Message: "Hi, I'd like to book Package X"})
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())

	target := "/api/v1/conversations/conv-42?displayName=Lumi%C3%A8re%20Studio&role=Photographer"
	for i := 0; i < 2; i++ {
		w = do(t, srv, http.MethodGet, target, "alice", nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var conv model.Conversation
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &conv))
		require.Len(t, conv.Messages, 1)
		assert.Equal(t, "Hi, I'd like to book Package X", conv.Messages[0].Content)
		assert.Equal(t, "Lumière Studio", conv.DisplayName)
		assert.Equal(t, 0, conv.UnreadCount)
	}

	w = do(t, srv, http.MethodGet, "/api/v1/conversations/conv-42", "bob", nil)
	var other model.Conversation
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &other))
	assert.Empty(t, other.Messages)
	assert.Equal(t, "Provider 42", other.DisplayName)
}

func TestGetEmptyCounterpartyResolvesPlaceholder(t *testing.T) {
	srv := newTestServer(t)

	w := do(t, srv, http.MethodGet, "/api/v1/conversations/conv-", "alice", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var conv model.Conversation
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &conv))
	assert.Equal(t, "conv-unknown", conv.ID)
	assert.Equal(t, service.PlaceholderCounterparty, conv.CounterpartyID)

	w = do(t, srv, http.MethodPost, "/api/v1/conversations/conv-/messages", "alice", model.SendMessageRequest{Content: "hi"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRecordIntentValidation(t *testing.T) {
	srv := newTestServer(t)

	w := do(t, srv, http.MethodPost, "/api/v1/bookings/42/intents", "alice", model.RecordIntentRequest{Message: "   "})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings/42/intents", bytes.NewBufferString("{"))
	req.Header.Set("Authorization", bearer(t, "alice"))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSendAndMarkRead(t *testing.T) {
	srv := newTestServer(t)

	w := do(t, srv, http.MethodPost, "/api/v1/conversations/conv-101/messages", "alice",
		model.SendMessageRequest{Content: "Love the photos!"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp model.SendMessageResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, model.DeliverySent, resp.Message.DeliveryState)
	assert.Equal(t, "alice", resp.Message.SenderID)

	w = do(t, srv, http.MethodPost, "/api/v1/conversations/conv-999/messages", "alice",
		model.SendMessageRequest{Content: "anyone?"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, srv, http.MethodPost, "/api/v1/conversations/conv-101/messages", "alice",
		model.SendMessageRequest{Content: ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, srv, http.MethodPost, "/api/v1/conversations/conv-101/read", "alice", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, srv, http.MethodGet, "/api/v1/conversations?q=WED-2024-001", "alice", nil)
	var list model.ListConversationsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Equal(t, 1, list.Total)
	assert.Equal(t, 0, list.Conversations[0].UnreadCount)
	assert.Equal(t, "Love the photos!", list.Conversations[0].LastMessage)
}

func TestListSearch(t *testing.T) {
	srv := newTestServer(t)

	w := do(t, srv, http.MethodGet, "/api/v1/conversations?q=wed", "alice", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list model.ListConversationsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Equal(t, 2, list.Total)

	w = do(t, srv, http.MethodGet, "/api/v1/conversations", "alice", nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Equal(t, 3, list.Total)
	assert.Equal(t, "conv-101", list.Conversations[0].ID)
}

func TestMediaGates(t *testing.T) {
	srv := newTestServer(t)

	w := do(t, srv, http.MethodGet, "/api/v1/conversations/conv-101/gallery", "alice", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var gallery media.GalleryView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &gallery))
	require.False(t, gallery.Locked)
	assert.Equal(t, "ph-2", gallery.Photos[0].ID)

	w = do(t, srv, http.MethodGet, "/api/v1/conversations/conv-101/invoice", "alice", nil)
	var invoice media.InvoiceView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &invoice))
	require.False(t, invoice.Locked)
	assert.Equal(t, "2450.00", invoice.Invoice.Amount)

	w = do(t, srv, http.MethodGet, "/api/v1/conversations/conv-103/gallery", "alice", nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &gallery))
	assert.True(t, gallery.Locked)

	w = do(t, srv, http.MethodGet, "/api/v1/conversations/conv-103/invoice", "alice", nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &invoice))
	assert.True(t, invoice.Locked)

	w = do(t, srv, http.MethodGet, "/api/v1/conversations/conv-555/gallery", "alice", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, srv, http.MethodGet, "/api/v1/conversations/bogus/gallery", "alice", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
