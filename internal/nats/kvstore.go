package nats

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"

	"github.com/capitalize-ai/conversation-handoff/internal/durable"
	"github.com/capitalize-ai/conversation-handoff/pkg/logger"
	"github.com/capitalize-ai/conversation-handoff/pkg/metrics"
)

const (
	// DefaultBucket is the KeyValue bucket holding durable state.
	DefaultBucket = "HANDOFF"

	backendNATS = "nats"

	// ownRevisionWindow bounds how many self-written revisions are remembered.
	ownRevisionWindow = 1024
)

// KVStore implements durable.Store on a JetStream KeyValue bucket. Every
// KVStore is its own execution context: watch updates carrying revisions
// it wrote are not delivered to its handlers.
type KVStore struct {
	kv      jetstream.KeyValue
	logger  *logger.Logger
	timeout time.Duration

	// writeMu is held across Put and Delete so a watcher cannot observe a
	// change before it is recorded as ours.
	writeMu      sync.Mutex
	ownRevisions map[uint64]struct{}
	maxRevision  uint64
	watches      map[string]map[*keyWatch]struct{}
}

// keyWatch is one OnExternalChange registration. Delete markers carry no
// revision we can learn from the client, so each watch counts the deletes
// it still has to skip.
type keyWatch struct {
	key        string
	ownDeletes int
}

var _ durable.Store = (*KVStore)(nil)

// EnsureBucket returns the bucket, creating it when missing.
func EnsureBucket(ctx context.Context, client *Client, bucket string) (jetstream.KeyValue, error) {
	js := client.JetStream()

	kv, err := js.KeyValue(ctx, bucket)
	if err == nil {
		return kv, nil
	}

	kv, err = js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      bucket,
		Description: "Pending booking intents and other durable client state",
		History:     1,
		Storage:     jetstream.FileStorage,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create bucket: %w", err)
	}
	return kv, nil
}

// NewKVStore wraps kv. timeout bounds every blocking call.
func NewKVStore(kv jetstream.KeyValue, timeout time.Duration, log *logger.Logger) *KVStore {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	if log == nil {
		log = logger.Nop()
	}
	return &KVStore{
		kv:           kv,
		logger:       log,
		timeout:      timeout,
		ownRevisions: make(map[uint64]struct{}),
		watches:      make(map[string]map[*keyWatch]struct{}),
	}
}

// EncodeKey maps an arbitrary key onto the KV key alphabet.
func EncodeKey(key string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(key))
}

// DecodeKey reverses EncodeKey.
func DecodeKey(encoded string) (string, error) {
	b, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Get implements durable.Store.
func (s *KVStore) Get(key string) (json.RawMessage, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	entry, err := s.kv.Get(ctx, EncodeKey(key))
	if err != nil {
		if !errors.Is(err, jetstream.ErrKeyNotFound) {
			s.logger.Warn("KV read failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	return s.decode(key, entry.Value())
}

// Set implements durable.Store.
func (s *KVStore) Set(key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal %q: %w", key, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	rev, err := s.kv.Put(ctx, EncodeKey(key), raw)
	if err != nil {
		return fmt.Errorf("failed to put %q: %w", key, err)
	}
	s.rememberLocked(rev)
	return nil
}

// Delete implements durable.Store.
func (s *KVStore) Delete(key string) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.kv.Delete(ctx, EncodeKey(key)); err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return nil
		}
		return fmt.Errorf("failed to delete %q: %w", key, err)
	}
	s.noteDeleteLocked(key)
	return nil
}

// OnExternalChange implements durable.Store. Updates are delivered on a
// dedicated goroutine; cancel blocks until it has exited.
func (s *KVStore) OnExternalChange(key string, handler durable.ChangeHandler) func() {
	ctx, cancel := context.WithCancel(context.Background())

	// The watch starts and registers under writeMu, so every own delete it
	// will see is counted and none it will not see is.
	s.writeMu.Lock()
	watcher, err := s.kv.Watch(ctx, EncodeKey(key), jetstream.UpdatesOnly())
	var w *keyWatch
	if err == nil {
		w = s.addWatchLocked(key)
	}
	s.writeMu.Unlock()
	if err != nil {
		cancel()
		s.logger.Warn("KV watch failed", zap.String("key", key), zap.Error(err))
		return func() {}
	}
	metrics.WatchersActive.WithLabelValues(backendNATS).Inc()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				return
			case entry, ok := <-watcher.Updates():
				if !ok {
					return
				}
				if entry == nil || s.isOwn(w, entry) {
					continue
				}
				var value json.RawMessage
				if entry.Operation() == jetstream.KeyValuePut {
					value, _ = s.decode(key, entry.Value())
				}
				metrics.ExternalChangesTotal.WithLabelValues(backendNATS).Inc()
				handler(key, value)
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			if err := watcher.Stop(); err != nil {
				s.logger.Debug("KV watcher stop", zap.Error(err))
			}
			<-done
			s.removeWatch(w)
			metrics.WatchersActive.WithLabelValues(backendNATS).Dec()
		})
	}
}

func (s *KVStore) decode(key string, raw []byte) (json.RawMessage, bool) {
	if !json.Valid(raw) {
		metrics.CorruptReadsTotal.WithLabelValues(backendNATS).Inc()
		s.logger.Debug("KV value is not valid JSON, treating as absent", zap.String("key", key))
		return nil, false
	}
	return json.RawMessage(append([]byte(nil), raw...)), true
}

func (s *KVStore) rememberLocked(rev uint64) {
	s.ownRevisions[rev] = struct{}{}
	if rev > s.maxRevision {
		s.maxRevision = rev
	}
	if len(s.ownRevisions) > ownRevisionWindow {
		for r := range s.ownRevisions {
			if r+ownRevisionWindow < s.maxRevision {
				delete(s.ownRevisions, r)
			}
		}
	}
}

func (s *KVStore) addWatchLocked(key string) *keyWatch {
	w := &keyWatch{key: key}
	if s.watches[key] == nil {
		s.watches[key] = make(map[*keyWatch]struct{})
	}
	s.watches[key][w] = struct{}{}
	return w
}

func (s *KVStore) removeWatch(w *keyWatch) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	delete(s.watches[w.key], w)
	if len(s.watches[w.key]) == 0 {
		delete(s.watches, w.key)
	}
}

// noteDeleteLocked charges an own delete of key to every active watch on it.
func (s *KVStore) noteDeleteLocked(key string) {
	for w := range s.watches[key] {
		w.ownDeletes++
	}
}

func (s *KVStore) isOwn(w *keyWatch, entry jetstream.KeyValueEntry) bool {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if entry.Operation() != jetstream.KeyValuePut {
		if w.ownDeletes > 0 {
			w.ownDeletes--
			return true
		}
		return false
	}
	_, ok := s.ownRevisions[entry.Revision()]
	return ok
}
