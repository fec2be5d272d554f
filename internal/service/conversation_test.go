package service

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitalize-ai/conversation-handoff/internal/model"
)

func seededStore(t *testing.T) *ConversationStore {
	t.Helper()
	s := NewConversationStore("me", nil)
	s.Seed([]model.Conversation{
		{ID: "conv-1", CounterpartyID: "1", DisplayName: "Alpha", UnreadCount: 3},
		{ID: "conv-2", CounterpartyID: "2", DisplayName: "Beta"},
	})
	return s
}

func TestSendAppendsAndUpdatesSummary(t *testing.T) {
	s := seededStore(t)
	at := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)
	s.now = func() time.Time { return at }

	msg, err := s.Send("conv-1", "See you Saturday")
	require.NoError(t, err)
	assert.Equal(t, model.DeliverySent, msg.DeliveryState)
	assert.Equal(t, "me", msg.SenderID)
	assert.NotEmpty(t, msg.ID)

	conv, ok := s.Get("conv-1")
	require.True(t, ok)
	require.Len(t, conv.Messages, 1)
	assert.Equal(t, "See you Saturday", conv.LastMessage)
	assert.Equal(t, at, conv.LastActivity)
}

func TestSendValidation(t *testing.T) {
	s := seededStore(t)

	_, err := s.Send("conv-1", "   ")
	assert.True(t, errors.Is(err, ErrEmptyContent))

	_, err = s.Send("conv-404", "hello")
	assert.True(t, errors.Is(err, ErrConversationNotFound))

	conv, _ := s.Get("conv-1")
	assert.Empty(t, conv.Messages)
}

func TestSendPreservesInsertionOrder(t *testing.T) {
	s := seededStore(t)
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	times := []time.Time{base.Add(time.Hour), base}
	i := 0
	s.now = func() time.Time { next := times[i]; i++; return next }

	_, _ = s.Send("conv-1", "later timestamp")
	_, _ = s.Send("conv-1", "earlier timestamp")

	conv, _ := s.Get("conv-1")
	assert.Equal(t, "later timestamp", conv.Messages[0].Content)
	assert.Equal(t, "earlier timestamp", conv.Messages[1].Content)
}

func TestReceiveBumpsUnreadAndMarkAsReadClears(t *testing.T) {
	s := seededStore(t)

	msg, err := s.Receive("conv-2", "Deposit received")
	require.NoError(t, err)
	assert.Equal(t, "2", msg.SenderID)

	conv, _ := s.Get("conv-2")
	assert.Equal(t, 1, conv.UnreadCount)

	s.MarkAsRead("conv-2")
	s.MarkAsRead("conv-404")
	conv, _ = s.Get("conv-2")
	assert.Equal(t, 0, conv.UnreadCount)
}

func TestSnapshotIsOrderedCopy(t *testing.T) {
	s := seededStore(t)
	_, _ = s.Send("conv-2", "hi")

	snap := s.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, "conv-1", snap[0].ID)
	assert.Equal(t, "conv-2", snap[1].ID)

	snap[1].Messages[0].Content = "tampered"
	snap[0].DisplayName = "tampered"

	conv, _ := s.Get("conv-2")
	assert.Equal(t, "hi", conv.Messages[0].Content)
	conv, _ = s.Get("conv-1")
	assert.Equal(t, "Alpha", conv.DisplayName)
}
