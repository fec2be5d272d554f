package service

import (
	"encoding/json"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/capitalize-ai/conversation-handoff/internal/durable"
	"github.com/capitalize-ai/conversation-handoff/internal/model"
	"github.com/capitalize-ai/conversation-handoff/pkg/logger"
	"github.com/capitalize-ai/conversation-handoff/pkg/metrics"
)

const (
	// PlaceholderCounterparty stands in for a missing counterparty ID.
	PlaceholderCounterparty = "unknown"

	// mergedTailSize bounds how many merged records a conversation remembers.
	mergedTailSize = 16

	fallbackRole      = "Service Provider"
	fallbackAvatarURL = "https://api.dicebear.com/7.x/initials/svg?seed="
)

// Resolver opens conversations by ID, synthesizing unknown ones and merging
// pending booking intents into them.
type Resolver struct {
	conversations *ConversationStore
	store         durable.Store
	logger        *logger.Logger
	now           func() time.Time
}

// NewResolver creates a resolver over the given stores.
func NewResolver(conversations *ConversationStore, store durable.Store, log *logger.Logger) *Resolver {
	if log == nil {
		log = logger.Nop()
	}
	return &Resolver{
		conversations: conversations,
		store:         store,
		logger:        log,
		now:           time.Now,
	}
}

// ParseHint extracts displayName, role and avatarUrl from a raw
// (still URL-encoded) query string. It returns nil when none is present.
func ParseHint(rawQuery string) *model.ConversationHint {
	values, err := url.ParseQuery(rawQuery)
	if err != nil && len(values) == 0 {
		return nil
	}
	hint := &model.ConversationHint{
		DisplayName: strings.TrimSpace(values.Get("displayName")),
		Role:        strings.TrimSpace(values.Get("role")),
		AvatarURL:   strings.TrimSpace(values.Get("avatarUrl")),
	}
	if *hint == (model.ConversationHint{}) {
		return nil
	}
	return hint
}

// Resolve returns the conversation for conversationID after merging any
// pending intents for its counterparty. Unknown conversations are created
// from hint, falling back to values derived from the counterparty ID.
//
// Merging is driven by a per-conversation cursor counting the records
// already merged, so resolving repeatedly without new intents is a no-op.
func (r *Resolver) Resolve(conversationID string, hint *model.ConversationHint) model.Conversation {
	counterpartyID := model.CounterpartyID(conversationID)
	if counterpartyID == "" {
		counterpartyID = PlaceholderCounterparty
		conversationID = model.ConversationID(counterpartyID)
	}

	records := r.pending(counterpartyID)

	outcome := "existing"
	merged := 0
	conv := r.conversations.mutate(conversationID, func(existing *model.Conversation) *model.Conversation {
		conv := existing
		if conv == nil {
			outcome = "synthesized"
			conv = r.synthesize(conversationID, counterpartyID, hint)
		}

		start := mergeStart(records, conv.MergedIntents, conv.MergedTail)
		if start != conv.MergedIntents {
			r.logger.Info("pending log rewritten, realigning merge cursor",
				zap.String("conversation_id", conversationID),
				zap.Int("cursor", conv.MergedIntents),
				zap.Int("start", start),
				zap.Int("pending", len(records)),
			)
		}
		for _, rec := range records[start:] {
			conv.Append(r.translate(rec, counterpartyID))
			merged++
		}
		conv.MergedIntents = len(records)
		if len(records) > 0 {
			conv.MergedTail = append([]model.PendingIntentRecord(nil), records[max(0, len(records)-mergedTailSize):]...)
		}
		return conv
	})

	metrics.RecordResolution(outcome, merged)
	r.logger.Debug("conversation resolved",
		zap.String("conversation_id", conversationID),
		zap.String("outcome", outcome),
		zap.Int("merged", merged),
	)
	return conv
}

// Watch re-resolves conversationID whenever another context rewrites its
// pending log, passing the result to onChange. The returned func stops it.
func (r *Resolver) Watch(conversationID string, hint *model.ConversationHint, onChange func(model.Conversation)) (stop func()) {
	counterpartyID := model.CounterpartyID(conversationID)
	if counterpartyID == "" {
		counterpartyID = PlaceholderCounterparty
	}

	return r.store.OnExternalChange(durable.PendingKey(counterpartyID), func(string, json.RawMessage) {
		conv := r.Resolve(conversationID, hint)
		if onChange != nil {
			onChange(conv)
		}
	})
}

// mergeStart returns the index of the first record in records not yet merged.
// The cursor is trusted while the record before it is still the last one
// merged. Otherwise the log was rewritten by another writer or replaced after
// corruption, and merging resumes after the latest record found in tail, or
// from the beginning when none survives.
func mergeStart(records []model.PendingIntentRecord, cursor int, tail []model.PendingIntentRecord) int {
	if cursor <= 0 || len(tail) == 0 {
		return 0
	}
	if cursor <= len(records) && records[cursor-1] == tail[len(tail)-1] {
		return cursor
	}
	for i := len(records) - 1; i >= 0; i-- {
		for _, seen := range tail {
			if records[i] == seen {
				return i + 1
			}
		}
	}
	return 0
}

func (r *Resolver) pending(counterpartyID string) []model.PendingIntentRecord {
	var records []model.PendingIntentRecord
	if !durable.GetJSON(r.store, durable.PendingKey(counterpartyID), &records) {
		return nil
	}
	return records
}

func (r *Resolver) translate(rec model.PendingIntentRecord, counterpartyID string) model.Message {
	msg := model.Message{
		ID:            uuid.Must(uuid.NewV7()).String(),
		Content:       rec.Content,
		Kind:          model.KindText,
		DeliveryState: model.DeliverySent,
	}

	switch rec.Kind() {
	case model.AuthorUser:
		msg.SenderID = r.conversations.LocalUserID()
	case model.AuthorCounterparty:
		msg.SenderID = counterpartyID
		msg.DeliveryState = model.DeliveryDelivered
	}

	sentAt, err := time.Parse(time.RFC3339Nano, rec.SentAt)
	if err != nil {
		sentAt = r.now()
	}
	msg.SentAt = sentAt

	return msg
}

func (r *Resolver) synthesize(conversationID, counterpartyID string, hint *model.ConversationHint) *model.Conversation {
	conv := &model.Conversation{
		ID:             conversationID,
		CounterpartyID: counterpartyID,
		DisplayName:    "Provider " + counterpartyID,
		Role:           fallbackRole,
		AvatarURL:      fallbackAvatarURL + url.QueryEscape(counterpartyID),
		BookingRef:     "BK-" + strings.ToUpper(counterpartyID),
	}
	if hint != nil {
		if hint.DisplayName != "" {
			conv.DisplayName = hint.DisplayName
		}
		if hint.Role != "" {
			conv.Role = hint.Role
		}
		if hint.AvatarURL != "" {
			conv.AvatarURL = hint.AvatarURL
		}
	}

	r.logger.Info("conversation synthesized",
		zap.String("conversation_id", conversationID),
		zap.Bool("hinted", hint != nil),
	)
	return conv
}
