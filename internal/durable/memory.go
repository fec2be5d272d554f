package durable

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/capitalize-ai/conversation-handoff/pkg/logger"
)

const backendMemory = "memory"

// Hub is an in-memory backend shared by several contexts.
type Hub struct {
	logger *logger.Logger
	bc     *broadcaster

	mu      sync.RWMutex
	data    map[string][]byte
	nextCtx uint64
}

// NewHub creates an empty in-memory backend.
func NewHub(log *logger.Logger) *Hub {
	if log == nil {
		log = logger.Nop()
	}
	return &Hub{
		logger: log,
		bc:     newBroadcaster(backendMemory),
		data:   make(map[string][]byte),
	}
}

// Context opens a new execution context on the hub.
func (h *Hub) Context() *MemoryStore {
	h.mu.Lock()
	h.nextCtx++
	id := h.nextCtx
	h.mu.Unlock()
	return &MemoryStore{hub: h, id: id}
}

// PutRaw stores raw bytes under key without validation, as a write from
// outside every context. Used to seed values and simulate corruption.
func (h *Hub) PutRaw(key string, raw []byte) {
	h.mu.Lock()
	h.data[key] = append([]byte(nil), raw...)
	h.mu.Unlock()

	value, ok := validate(backendMemory, key, raw, h.logger)
	if !ok {
		value = nil
	}
	h.bc.publish(0, key, value)
}

// Subscribers reports how many handlers are registered for key.
func (h *Hub) Subscribers(key string) int {
	return h.bc.count(key)
}

// MemoryStore is one context's view of a Hub.
type MemoryStore struct {
	hub *Hub
	id  uint64
}

// Get implements Store.
func (s *MemoryStore) Get(key string) (json.RawMessage, bool) {
	s.hub.mu.RLock()
	raw, ok := s.hub.data[key]
	s.hub.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return validate(backendMemory, key, raw, s.hub.logger)
}

// Set implements Store.
func (s *MemoryStore) Set(key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal %q: %w", key, err)
	}

	s.hub.mu.Lock()
	s.hub.data[key] = raw
	s.hub.mu.Unlock()

	s.hub.bc.publish(s.id, key, raw)
	return nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(key string) error {
	s.hub.mu.Lock()
	_, existed := s.hub.data[key]
	delete(s.hub.data, key)
	s.hub.mu.Unlock()

	if existed {
		s.hub.bc.publish(s.id, key, nil)
	}
	return nil
}

// OnExternalChange implements Store.
func (s *MemoryStore) OnExternalChange(key string, handler ChangeHandler) func() {
	return s.hub.bc.subscribe(s.id, key, handler)
}
