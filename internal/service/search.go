package service

import (
	"strings"

	"github.com/capitalize-ai/conversation-handoff/internal/model"
)

// Filter returns the conversations whose display name, role or booking
// reference contains query, ignoring case. A blank query returns snapshot
// as is.
func Filter(snapshot []model.Conversation, query string) []model.Conversation {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return snapshot
	}

	out := make([]model.Conversation, 0, len(snapshot))
	for _, conv := range snapshot {
		if strings.Contains(strings.ToLower(conv.DisplayName), q) ||
			strings.Contains(strings.ToLower(conv.Role), q) ||
			strings.Contains(strings.ToLower(conv.BookingRef), q) {
			out = append(out, conv)
		}
	}
	return out
}
