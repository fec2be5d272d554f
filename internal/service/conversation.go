// Package service provides the conversation handoff business logic.
package service

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/capitalize-ai/conversation-handoff/internal/model"
	"github.com/capitalize-ai/conversation-handoff/pkg/logger"
	"github.com/capitalize-ai/conversation-handoff/pkg/metrics"
)

// ConversationStore is the authoritative in-memory collection of
// conversations for one execution context.
type ConversationStore struct {
	localUserID string
	logger      *logger.Logger
	now         func() time.Time

	mu            sync.RWMutex
	conversations map[string]*model.Conversation
	order         []string
}

// NewConversationStore creates an empty store owned by localUserID.
func NewConversationStore(localUserID string, log *logger.Logger) *ConversationStore {
	if log == nil {
		log = logger.Nop()
	}
	return &ConversationStore{
		localUserID:   localUserID,
		logger:        log,
		now:           time.Now,
		conversations: make(map[string]*model.Conversation),
	}
}

// LocalUserID returns the sender ID used for the local user's messages.
func (s *ConversationStore) LocalUserID() string {
	return s.localUserID
}

// Seed loads fixture conversations. Existing IDs are replaced in place.
func (s *ConversationStore) Seed(convs []model.Conversation) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range convs {
		conv := convs[i].Clone()
		s.putLocked(&conv)
	}
}

// Get returns a copy of the conversation with the given ID.
func (s *ConversationStore) Get(conversationID string) (model.Conversation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conv, ok := s.conversations[conversationID]
	if !ok {
		return model.Conversation{}, false
	}
	return conv.Clone(), true
}

// Send appends a message from the local user.
func (s *ConversationStore) Send(conversationID, content string) (*model.Message, error) {
	return s.appendMessage(conversationID, s.localUserID, content, false)
}

// Receive appends a message from the counterparty and bumps the unread count.
func (s *ConversationStore) Receive(conversationID, content string) (*model.Message, error) {
	return s.appendMessage(conversationID, "", content, true)
}

func (s *ConversationStore) appendMessage(conversationID, senderID, content string, incoming bool) (*model.Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[conversationID]
	if !ok {
		return nil, ErrConversationNotFound
	}

	msg := model.Message{
		ID:            uuid.Must(uuid.NewV7()).String(),
		SenderID:      senderID,
		Content:       content,
		SentAt:        s.now(),
		Kind:          model.KindText,
		DeliveryState: model.DeliverySent,
	}
	label := "user"
	if incoming {
		msg.SenderID = conv.CounterpartyID
		msg.DeliveryState = model.DeliveryDelivered
		conv.UnreadCount++
		label = "counterparty"
	}
	conv.Append(msg)

	metrics.MessagesTotal.WithLabelValues(label).Inc()
	s.logger.Debug("message appended",
		zap.String("conversation_id", conversationID),
		zap.String("message_id", msg.ID),
		zap.String("sender", label),
	)

	return &msg, nil
}

// MarkAsRead clears the unread count. Unknown IDs are ignored.
func (s *ConversationStore) MarkAsRead(conversationID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if conv, ok := s.conversations[conversationID]; ok {
		conv.UnreadCount = 0
	}
}

// Snapshot returns copies of every conversation in insertion order.
func (s *ConversationStore) Snapshot() []model.Conversation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Conversation, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.conversations[id].Clone())
	}
	return out
}

// mutate runs fn under the write lock with the current conversation (nil
// when absent) and stores whatever fn returns.
func (s *ConversationStore) mutate(conversationID string, fn func(existing *model.Conversation) *model.Conversation) model.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv := fn(s.conversations[conversationID])
	s.putLocked(conv)
	return conv.Clone()
}

func (s *ConversationStore) putLocked(conv *model.Conversation) {
	if _, exists := s.conversations[conv.ID]; !exists {
		s.order = append(s.order, conv.ID)
	}
	s.conversations[conv.ID] = conv
}
