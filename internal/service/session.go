package service

import (
	"sync"

	"go.uber.org/zap"

	"github.com/capitalize-ai/conversation-handoff/internal/durable"
	"github.com/capitalize-ai/conversation-handoff/internal/model"
	"github.com/capitalize-ai/conversation-handoff/pkg/logger"
)

// Session bundles the per-user services of one execution context.
type Session struct {
	UserID        string
	Conversations *ConversationStore
	Resolver      *Resolver
	Intents       *IntentWriter

	logger  *logger.Logger
	mu      sync.Mutex
	watches map[string]func()
}

// Open resolves conversationID and keeps it current: pending intents that
// other contexts record for it afterwards are merged as they are written.
func (s *Session) Open(conversationID string, hint *model.ConversationHint) model.Conversation {
	conv := s.Resolver.Resolve(conversationID, hint)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.watches == nil {
		s.watches = make(map[string]func())
	}
	if _, ok := s.watches[conv.ID]; !ok {
		s.watches[conv.ID] = s.Resolver.Watch(conv.ID, nil, func(updated model.Conversation) {
			s.logger.Debug("conversation updated by another context",
				zap.String("conversation_id", updated.ID),
				zap.Int("messages", len(updated.Messages)),
			)
		})
	}
	return conv
}

// Watching reports how many conversations the session keeps current.
func (s *Session) Watching() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.watches)
}

// Close stops every watch started by Open.
func (s *Session) Close() {
	s.mu.Lock()
	watches := s.watches
	s.watches = nil
	s.mu.Unlock()

	for _, stop := range watches {
		stop()
	}
}

// OpenStoreFunc returns the durable store for a user.
type OpenStoreFunc func(userID string) durable.Store

// SessionManager lazily creates one Session per user.
type SessionManager struct {
	open   OpenStoreFunc
	seed   []model.Conversation
	logger *logger.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewSessionManager creates a manager. Every new session is seeded with seed.
func NewSessionManager(open OpenStoreFunc, seed []model.Conversation, log *logger.Logger) *SessionManager {
	if log == nil {
		log = logger.Nop()
	}
	return &SessionManager{
		open:     open,
		seed:     seed,
		logger:   log,
		sessions: make(map[string]*Session),
	}
}

// For returns the session of userID, creating it on first use.
func (m *SessionManager) For(userID string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[userID]; ok {
		return s
	}

	store := m.open(userID)
	log := m.logger.With(zap.String("user_id", userID))

	conversations := NewConversationStore(userID, log)
	conversations.Seed(m.seed)

	s := &Session{
		UserID:        userID,
		Conversations: conversations,
		Resolver:      NewResolver(conversations, store, log),
		Intents:       NewIntentWriter(store, log),
		logger:        log,
	}
	m.sessions[userID] = s

	log.Info("session opened", zap.Int("seeded", len(m.seed)))
	return s
}

// Close closes every session. Later calls to For open fresh sessions.
func (m *SessionManager) Close() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}
