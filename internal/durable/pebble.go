package durable

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/cockroachdb/pebble"

	"github.com/capitalize-ai/conversation-handoff/pkg/logger"
)

const backendPebble = "pebble"

// PebbleStore is a file-backed backend. Contexts opened on the same
// PebbleStore notify each other of writes.
type PebbleStore struct {
	db      *pebble.DB
	logger  *logger.Logger
	bc      *broadcaster
	nextCtx atomic.Uint64
}

// OpenPebble opens (or creates) a pebble database at path. opts may be nil.
func OpenPebble(path string, opts *pebble.Options, log *logger.Logger) (*PebbleStore, error) {
	if log == nil {
		log = logger.Nop()
	}
	if opts == nil {
		opts = &pebble.Options{}
	}
	if opts.FS == nil {
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
	}
	if opts.Logger == nil {
		opts.Logger = log.Named("pebble").Sugar()
	}

	db, err := pebble.Open(path, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open pebble store: %w", err)
	}

	return &PebbleStore{
		db:     db,
		logger: log,
		bc:     newBroadcaster(backendPebble),
	}, nil
}

// Close closes the database.
func (p *PebbleStore) Close() error {
	if p == nil || p.db == nil {
		return nil
	}
	return p.db.Close()
}

// Context opens a new execution context on the store.
func (p *PebbleStore) Context() *PebbleContext {
	return &PebbleContext{store: p, id: p.nextCtx.Add(1)}
}

// Healthy reports whether the database is open and readable.
func (p *PebbleStore) Healthy() bool {
	if p == nil || p.db == nil {
		return false
	}
	_, closer, err := p.db.Get([]byte("\x00health"))
	if closer != nil {
		closer.Close()
	}
	return err == nil || errors.Is(err, pebble.ErrNotFound)
}

// PebbleContext is one context's view of a PebbleStore.
type PebbleContext struct {
	store *PebbleStore
	id    uint64
}

// Get implements Store.
func (c *PebbleContext) Get(key string) (json.RawMessage, bool) {
	v, closer, err := c.store.db.Get([]byte(key))
	if err != nil {
		if !errors.Is(err, pebble.ErrNotFound) {
			c.store.logger.Sugar().Warnw("pebble read failed", "key", key, "error", err)
		}
		return nil, false
	}
	defer closer.Close()
	return validate(backendPebble, key, v, c.store.logger)
}

// Set implements Store.
func (c *PebbleContext) Set(key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal %q: %w", key, err)
	}
	if err := c.store.db.Set([]byte(key), raw, pebble.Sync); err != nil {
		return fmt.Errorf("failed to write %q: %w", key, err)
	}
	c.store.bc.publish(c.id, key, raw)
	return nil
}

// Delete implements Store.
func (c *PebbleContext) Delete(key string) error {
	if err := c.store.db.Delete([]byte(key), pebble.Sync); err != nil {
		return fmt.Errorf("failed to delete %q: %w", key, err)
	}
	c.store.bc.publish(c.id, key, nil)
	return nil
}

// OnExternalChange implements Store.
func (c *PebbleContext) OnExternalChange(key string, handler ChangeHandler) func() {
	return c.store.bc.subscribe(c.id, key, handler)
}

// putRaw writes bytes without validation; tests use it to plant corrupt values.
func (p *PebbleStore) putRaw(key string, raw []byte) error {
	return p.db.Set([]byte(key), raw, pebble.Sync)
}
