// Package durable provides the key/value persistence port shared by the
// booking flow and the chat views, plus in-process backends for it.
//
// A Store is bound to one execution context (a tab, a window, a process).
// Writes made through one context are visible to every context sharing the
// same backend, and OnExternalChange handlers fire only for writes that came
// from a different context.
package durable

import (
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"github.com/capitalize-ai/conversation-handoff/pkg/logger"
	"github.com/capitalize-ai/conversation-handoff/pkg/metrics"
)

// PendingPrefix prefixes the per-counterparty pending intent log.
const PendingPrefix = "pending:"

// PendingKey returns the key holding pending intents for a counterparty.
func PendingKey(counterpartyID string) string {
	return PendingPrefix + counterpartyID
}

// ChangeHandler receives a key changed by another context. value is nil when
// the key was deleted or the new value is corrupt.
type ChangeHandler func(key string, value json.RawMessage)

// Store is the durable key/value port.
type Store interface {
	// Get returns the JSON stored under key. Missing and corrupt values both
	// report false.
	Get(key string) (json.RawMessage, bool)

	// Set marshals value and replaces whatever is stored under key.
	Set(key string, value any) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(key string) error

	// OnExternalChange registers handler for writes to key made by other
	// contexts. The returned func deregisters it and is safe to call twice.
	OnExternalChange(key string, handler ChangeHandler) (cancel func())
}

// GetJSON decodes the value under key into v. A value of the wrong shape is
// treated like a missing one.
func GetJSON(s Store, key string, v any) bool {
	raw, ok := s.Get(key)
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, v); err != nil {
		metrics.CorruptReadsTotal.WithLabelValues("decode").Inc()
		logger.Global().Debug("durable value has unexpected shape",
			zap.String("key", key),
			zap.Error(err),
		)
		return false
	}
	return true
}

// validate checks that raw is JSON, counting and logging it when not.
func validate(backend, key string, raw []byte, log *logger.Logger) (json.RawMessage, bool) {
	if !json.Valid(raw) {
		metrics.CorruptReadsTotal.WithLabelValues(backend).Inc()
		log.Debug("durable value is not valid JSON, treating as absent",
			zap.String("backend", backend),
			zap.String("key", key),
		)
		return nil, false
	}
	out := make(json.RawMessage, len(raw))
	copy(out, raw)
	return out, true
}

// Namespace scopes every key of s under prefix. Handlers see unprefixed keys.
func Namespace(s Store, prefix string) Store {
	return &namespaced{inner: s, prefix: prefix}
}

type namespaced struct {
	inner  Store
	prefix string
}

func (n *namespaced) Get(key string) (json.RawMessage, bool) {
	return n.inner.Get(n.prefix + key)
}

func (n *namespaced) Set(key string, value any) error {
	return n.inner.Set(n.prefix+key, value)
}

func (n *namespaced) Delete(key string) error {
	return n.inner.Delete(n.prefix + key)
}

func (n *namespaced) OnExternalChange(key string, handler ChangeHandler) func() {
	return n.inner.OnExternalChange(n.prefix+key, func(k string, v json.RawMessage) {
		handler(strings.TrimPrefix(k, n.prefix), v)
	})
}
