package nats

import (
	"testing"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitalize-ai/conversation-handoff/pkg/logger"
)

type fakeEntry struct {
	key string
	rev uint64
	op  jetstream.KeyValueOp
	val []byte
}

func (e fakeEntry) Bucket() string                  { return DefaultBucket }
func (e fakeEntry) Key() string                     { return e.key }
func (e fakeEntry) Value() []byte                   { return e.val }
func (e fakeEntry) Revision() uint64                { return e.rev }
func (e fakeEntry) Created() time.Time              { return time.Time{} }
func (e fakeEntry) Delta() uint64                   { return 0 }
func (e fakeEntry) Operation() jetstream.KeyValueOp { return e.op }

func TestEncodeKeyRoundTrip(t *testing.T) {
	for _, key := range []string{"pending:42", "u/alice/pending:conv x", ""} {
		encoded := EncodeKey(key)
		assert.Regexp(t, `^[-_A-Za-z0-9]*$`, encoded)

		decoded, err := DecodeKey(encoded)
		require.NoError(t, err)
		assert.Equal(t, key, decoded)
	}
}

func TestIsOwnFiltersRecordedRevisions(t *testing.T) {
	s := NewKVStore(nil, 0, logger.Nop())
	w := s.addWatchLocked("k")
	s.rememberLocked(7)

	assert.True(t, s.isOwn(w, fakeEntry{key: "k", rev: 7, op: jetstream.KeyValuePut}))
	assert.False(t, s.isOwn(w, fakeEntry{key: "k", rev: 8, op: jetstream.KeyValuePut}))
}

func TestIsOwnConsumesDeletes(t *testing.T) {
	s := NewKVStore(nil, 0, logger.Nop())
	w := s.addWatchLocked("k")
	s.noteDeleteLocked("k")

	del := fakeEntry{key: "k", rev: 3, op: jetstream.KeyValueDelete}
	assert.True(t, s.isOwn(w, del))
	assert.False(t, s.isOwn(w, del))
}

func TestDeleteBeforeWatchIsNotCharged(t *testing.T) {
	s := NewKVStore(nil, 0, logger.Nop())
	s.noteDeleteLocked("k")
	s.noteDeleteLocked("k")

	w := s.addWatchLocked("k")
	assert.False(t, s.isOwn(w, fakeEntry{key: "k", rev: 5, op: jetstream.KeyValueDelete}))
}

func TestEachWatchSkipsOwnDelete(t *testing.T) {
	s := NewKVStore(nil, 0, logger.Nop())
	first := s.addWatchLocked("k")
	second := s.addWatchLocked("k")
	other := s.addWatchLocked("other")
	s.noteDeleteLocked("k")

	del := fakeEntry{key: "k", rev: 4, op: jetstream.KeyValueDelete}
	assert.True(t, s.isOwn(first, del))
	assert.True(t, s.isOwn(second, del))
	assert.False(t, s.isOwn(first, del))
	assert.False(t, s.isOwn(other, fakeEntry{key: "other", rev: 5, op: jetstream.KeyValueDelete}))
}

func TestRemoveWatchStopsCharging(t *testing.T) {
	s := NewKVStore(nil, 0, logger.Nop())
	w := s.addWatchLocked("k")
	s.removeWatch(w)
	s.noteDeleteLocked("k")

	assert.Zero(t, w.ownDeletes)
	assert.Empty(t, s.watches)
}

func TestRememberPrunesOldRevisions(t *testing.T) {
	s := NewKVStore(nil, 0, logger.Nop())
	for rev := uint64(1); rev <= ownRevisionWindow+10; rev++ {
		s.rememberLocked(rev)
	}

	_, kept := s.ownRevisions[ownRevisionWindow+10]
	assert.True(t, kept)
	assert.LessOrEqual(t, len(s.ownRevisions), ownRevisionWindow+1)
}

func TestDecodeRejectsCorruptValues(t *testing.T) {
	s := NewKVStore(nil, 0, logger.Nop())

	_, ok := s.decode("k", []byte("{oops"))
	assert.False(t, ok)

	raw, ok := s.decode("k", []byte(`[1]`))
	require.True(t, ok)
	assert.Equal(t, "[1]", string(raw))
}
