package service

import "errors"

var (
	// ErrConversationNotFound is returned when a conversation ID is unknown.
	ErrConversationNotFound = errors.New("conversation not found")

	// ErrEmptyContent is returned when a message is empty after trimming.
	ErrEmptyContent = errors.New("content cannot be empty")
)
