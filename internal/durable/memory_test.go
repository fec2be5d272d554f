package durable

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	hub := NewHub(nil)
	store := hub.Context()

	_, ok := store.Get("missing")
	assert.False(t, ok)

	require.NoError(t, store.Set("k", []string{"a", "b"}))
	raw, ok := store.Get("k")
	require.True(t, ok)
	assert.JSONEq(t, `["a","b"]`, string(raw))

	require.NoError(t, store.Delete("k"))
	_, ok = store.Get("k")
	assert.False(t, ok)

	assert.NoError(t, store.Delete("k"), "deleting a missing key")
}

func TestMemoryStoreCorruptValueIsAbsent(t *testing.T) {
	hub := NewHub(nil)
	hub.PutRaw("pending:7", []byte(`[{"author":"user",`))

	_, ok := hub.Context().Get("pending:7")
	assert.False(t, ok)
}

func TestExternalChangeSkipsOwnWrites(t *testing.T) {
	hub := NewHub(nil)
	profileTab := hub.Context()
	chatTab := hub.Context()

	var chatSeen, profileSeen []string
	stopChat := chatTab.OnExternalChange("pending:42", func(key string, value json.RawMessage) {
		chatSeen = append(chatSeen, string(value))
	})
	defer stopChat()
	stopProfile := profileTab.OnExternalChange("pending:42", func(key string, value json.RawMessage) {
		profileSeen = append(profileSeen, string(value))
	})
	defer stopProfile()

	require.NoError(t, profileTab.Set("pending:42", []int{1}))
	require.NoError(t, profileTab.Set("other", []int{2}))

	assert.Equal(t, []string{"[1]"}, chatSeen)
	assert.Empty(t, profileSeen)
}

func TestExternalChangeDelete(t *testing.T) {
	hub := NewHub(nil)
	a, b := hub.Context(), hub.Context()
	require.NoError(t, a.Set("k", 1))

	var got json.RawMessage = json.RawMessage("sentinel")
	stop := b.OnExternalChange("k", func(_ string, value json.RawMessage) { got = value })
	defer stop()

	require.NoError(t, a.Delete("k"))
	assert.Nil(t, got)
}

func TestCancelDeregisters(t *testing.T) {
	hub := NewHub(nil)
	a, b := hub.Context(), hub.Context()

	calls := 0
	stop := b.OnExternalChange("k", func(string, json.RawMessage) { calls++ })
	assert.Equal(t, 1, hub.Subscribers("k"))

	stop()
	stop()
	assert.Equal(t, 0, hub.Subscribers("k"))

	require.NoError(t, a.Set("k", 1))
	assert.Zero(t, calls)
}
