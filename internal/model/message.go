package model

import (
	"time"
)

// MessageKind distinguishes plain text from file messages.
type MessageKind string

const (
	KindText MessageKind = "text"
	KindFile MessageKind = "file"
)

// DeliveryState tracks how far a message has travelled.
type DeliveryState string

const (
	DeliverySent      DeliveryState = "sent"
	DeliveryDelivered DeliveryState = "delivered"
	DeliveryRead      DeliveryState = "read"
)

// Message represents a single chat message.
type Message struct {
	ID            string        `json:"id" yaml:"id"`
	SenderID      string        `json:"sender_id" yaml:"sender_id"`
	Content       string        `json:"content" yaml:"content"`
	SentAt        time.Time     `json:"sent_at" yaml:"sent_at"`
	Kind          MessageKind   `json:"kind" yaml:"kind"`
	DeliveryState DeliveryState `json:"delivery_state" yaml:"delivery_state"`
	Attachments   []Attachment  `json:"attachments,omitempty" yaml:"attachments,omitempty"`
}

// Timestamp formats SentAt for display in a message bubble.
func (m Message) Timestamp() string {
	if m.SentAt.IsZero() {
		return ""
	}
	return m.SentAt.Local().Format("15:04")
}

// Attachment is a file carried by a file message.
type Attachment struct {
	Name string `json:"name" yaml:"name"`
	URL  string `json:"url" yaml:"url"`
	Size int64  `json:"size,omitempty" yaml:"size,omitempty"`
}

// SendMessageRequest is the request to send a new message.
type SendMessageRequest struct {
	Content string `json:"content"`
}

// SendMessageResponse is the response after sending a message.
type SendMessageResponse struct {
	Message *Message `json:"message"`
}
