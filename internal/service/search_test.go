package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/capitalize-ai/conversation-handoff/internal/model"
)

func searchSnapshot() []model.Conversation {
	return []model.Conversation{
		{ID: "conv-1", DisplayName: "Golden Hour Photo", Role: "Photographer", BookingRef: "WED-2024-001"},
		{ID: "conv-2", DisplayName: "Bloom & Vine", Role: "Florist", BookingRef: "BK-2"},
		{ID: "conv-3", DisplayName: "Sound Wave", Role: "DJ", BookingRef: "WED-2024-014"},
	}
}

func TestFilterMatchesBookingRefCaseInsensitively(t *testing.T) {
	got := Filter(searchSnapshot(), "wed")
	assert.Equal(t, []string{"conv-1", "conv-3"}, ids(got))

	got = Filter(searchSnapshot(), "WED")
	assert.Equal(t, []string{"conv-1", "conv-3"}, ids(got))
}

func TestFilterAnyField(t *testing.T) {
	assert.Equal(t, []string{"conv-2"}, ids(Filter(searchSnapshot(), "florist")))
	assert.Equal(t, []string{"conv-1"}, ids(Filter(searchSnapshot(), "golden")))
	assert.Empty(t, Filter(searchSnapshot(), "caterer"))
}

func TestFilterEmptyQueryReturnsSnapshot(t *testing.T) {
	snap := searchSnapshot()
	assert.Equal(t, snap, Filter(snap, ""))
	assert.Equal(t, snap, Filter(snap, "   "))
}

func ids(convs []model.Conversation) []string {
	out := make([]string, len(convs))
	for i, c := range convs {
		out[i] = c.ID
	}
	return out
}
