// Package model defines data structures for the conversation handoff service.
package model

import (
	"strings"
	"time"
)

// ConversationIDPrefix prefixes every conversation ID derived from a counterparty.
const ConversationIDPrefix = "conv-"

// Conversation represents a chat thread with one counterparty.
type Conversation struct {
	ID             string    `json:"id" yaml:"id"`
	CounterpartyID string    `json:"counterparty_id" yaml:"counterparty_id"`
	DisplayName    string    `json:"display_name" yaml:"display_name"`
	Role           string    `json:"role" yaml:"role"`
	AvatarURL      string    `json:"avatar_url" yaml:"avatar_url"`
	BookingRef     string    `json:"booking_ref" yaml:"booking_ref"`
	Messages       []Message `json:"messages" yaml:"messages"`
	UnreadCount    int       `json:"unread_count" yaml:"unread_count"`

	// Display summary, refreshed on every append.
	LastMessage  string    `json:"last_message,omitempty" yaml:"last_message,omitempty"`
	LastActivity time.Time `json:"last_activity,omitempty" yaml:"last_activity,omitempty"`

	// Gallery and Invoice are nil while the feature is locked.
	Gallery []GalleryPhoto `json:"gallery,omitempty" yaml:"gallery,omitempty"`
	Invoice *Invoice       `json:"invoice,omitempty" yaml:"invoice,omitempty"`

	// MergedIntents counts pending intent records already merged into Messages.
	// MergedTail holds the most recent of them, used to realign the count when
	// the pending log is rewritten underneath it.
	MergedIntents int                   `json:"-" yaml:"-"`
	MergedTail    []PendingIntentRecord `json:"-" yaml:"-"`
}

// Append adds msg to the end of the log and refreshes the display summary.
func (c *Conversation) Append(msg Message) {
	c.Messages = append(c.Messages, msg)
	c.LastMessage = msg.Content
	c.LastActivity = msg.SentAt
}

// Clone returns a deep copy safe to hand to readers.
func (c *Conversation) Clone() Conversation {
	out := *c
	if c.Messages != nil {
		out.Messages = make([]Message, len(c.Messages))
		for i, m := range c.Messages {
			out.Messages[i] = m
			if m.Attachments != nil {
				out.Messages[i].Attachments = append([]Attachment(nil), m.Attachments...)
			}
		}
	}
	if c.MergedTail != nil {
		out.MergedTail = append([]PendingIntentRecord(nil), c.MergedTail...)
	}
	if c.Gallery != nil {
		out.Gallery = append([]GalleryPhoto(nil), c.Gallery...)
	}
	if c.Invoice != nil {
		inv := *c.Invoice
		inv.LineItems = append([]string(nil), c.Invoice.LineItems...)
		out.Invoice = &inv
	}
	return out
}

// ConversationID returns the conversation ID for a counterparty.
func ConversationID(counterpartyID string) string {
	return ConversationIDPrefix + counterpartyID
}

// CounterpartyID recovers the counterparty ID from a conversation ID.
// IDs without the prefix are returned unchanged.
func CounterpartyID(conversationID string) string {
	return strings.TrimPrefix(conversationID, ConversationIDPrefix)
}

// ConversationHint carries navigation-supplied metadata for a conversation
// that has not been resolved yet.
type ConversationHint struct {
	DisplayName string `json:"display_name,omitempty"`
	Role        string `json:"role,omitempty"`
	AvatarURL   string `json:"avatar_url,omitempty"`
}

// ListConversationsResponse is the response for listing conversations.
type ListConversationsResponse struct {
	Conversations []Conversation `json:"conversations"`
	Total         int            `json:"total"`
}
