package model

// Author is the closed set of pending intent authors.
type Author int

const (
	AuthorCounterparty Author = iota
	AuthorUser
)

// authorUserTag is the persisted value of the author field for the local user.
const authorUserTag = "user"

// PendingIntentRecord is one queued outgoing message in the durable store.
// Author is kept as the loose persisted string; use Kind at the translation boundary.
type PendingIntentRecord struct {
	Author  string `json:"author"`
	Content string `json:"content"`
	SentAt  string `json:"sentAt"`
}

// Kind maps the persisted author value onto the closed Author variant.
// Anything other than "user" is attributed to the counterparty.
func (r PendingIntentRecord) Kind() Author {
	if r.Author == authorUserTag {
		return AuthorUser
	}
	return AuthorCounterparty
}

// NewUserIntent builds a record authored by the local user.
func NewUserIntent(content, sentAt string) PendingIntentRecord {
	return PendingIntentRecord{Author: authorUserTag, Content: content, SentAt: sentAt}
}

// RecordIntentRequest is the request body for recording a booking intent.
type RecordIntentRequest struct {
	Message string `json:"message"`
}
