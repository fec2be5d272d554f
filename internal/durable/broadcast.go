package durable

import (
	"encoding/json"
	"sync"

	"github.com/capitalize-ai/conversation-handoff/pkg/metrics"
)

type subscription struct {
	origin  uint64
	handler ChangeHandler
}

// broadcaster fans key changes out to subscribers of other contexts.
type broadcaster struct {
	backend string

	mu     sync.Mutex
	subs   map[string]map[uint64]subscription
	nextID uint64
}

func newBroadcaster(backend string) *broadcaster {
	return &broadcaster{
		backend: backend,
		subs:    make(map[string]map[uint64]subscription),
	}
}

func (b *broadcaster) subscribe(origin uint64, key string, handler ChangeHandler) func() {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	if b.subs[key] == nil {
		b.subs[key] = make(map[uint64]subscription)
	}
	b.subs[key][id] = subscription{origin: origin, handler: handler}
	b.mu.Unlock()

	metrics.WatchersActive.WithLabelValues(b.backend).Inc()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs[key], id)
			if len(b.subs[key]) == 0 {
				delete(b.subs, key)
			}
			b.mu.Unlock()
			metrics.WatchersActive.WithLabelValues(b.backend).Dec()
		})
	}
}

// publish calls every handler on key not owned by origin. Handlers run on
// the caller's goroutine after the lock is released.
func (b *broadcaster) publish(origin uint64, key string, value json.RawMessage) {
	b.mu.Lock()
	var handlers []ChangeHandler
	for _, sub := range b.subs[key] {
		if sub.origin != origin {
			handlers = append(handlers, sub.handler)
		}
	}
	b.mu.Unlock()

	for _, h := range handlers {
		metrics.ExternalChangesTotal.WithLabelValues(b.backend).Inc()
		h(key, value)
	}
}

func (b *broadcaster) count(key string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[key])
}
