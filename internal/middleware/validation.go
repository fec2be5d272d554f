package middleware

import (
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/capitalize-ai/conversation-handoff/internal/model"
)

const (
	maxContentLength = 10000
	maxIDLength      = 128
)

// ValidateMessageContent validates message content.
func ValidateMessageContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return errors.New("content cannot be empty")
	}
	if len(content) > maxContentLength {
		return errors.New("content exceeds maximum length")
	}
	if !utf8.ValidString(content) {
		return errors.New("content must be valid UTF-8")
	}
	return nil
}

// ValidateConversationID validates a conversation ID of the form conv-{counterpartyId}.
func ValidateConversationID(id string) error {
	if !strings.HasPrefix(id, model.ConversationIDPrefix) {
		return errors.New("invalid conversation ID format")
	}
	return ValidateCounterpartyID(model.CounterpartyID(id))
}

// ValidateResolvableConversationID is ValidateConversationID that also
// accepts a bare prefix, which the resolver maps to a placeholder.
func ValidateResolvableConversationID(id string) error {
	if id == model.ConversationIDPrefix {
		return nil
	}
	return ValidateConversationID(id)
}

// ValidateCounterpartyID validates a counterparty ID.
func ValidateCounterpartyID(id string) error {
	if id == "" {
		return errors.New("counterparty ID cannot be empty")
	}
	if len(id) > maxIDLength {
		return errors.New("counterparty ID exceeds maximum length")
	}
	if !utf8.ValidString(id) || strings.ContainsAny(id, "/ \t\n") {
		return errors.New("invalid counterparty ID")
	}
	return nil
}
