package service

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/capitalize-ai/conversation-handoff/internal/durable"
	"github.com/capitalize-ai/conversation-handoff/internal/model"
	"github.com/capitalize-ai/conversation-handoff/pkg/logger"
	"github.com/capitalize-ai/conversation-handoff/pkg/metrics"
)

// IntentWriter queues booking messages for a conversation that may not be
// open yet.
type IntentWriter struct {
	store  durable.Store
	logger *logger.Logger
	now    func() time.Time
}

// NewIntentWriter creates a writer over store.
func NewIntentWriter(store durable.Store, log *logger.Logger) *IntentWriter {
	if log == nil {
		log = logger.Nop()
	}
	return &IntentWriter{store: store, logger: log, now: time.Now}
}

// RecordIntent appends message to the pending log of counterpartyID. It
// returns false without writing when either argument is blank. Callers are
// responsible for calling it once per confirmation; nothing is deduplicated.
func (w *IntentWriter) RecordIntent(counterpartyID, message string) (bool, error) {
	if counterpartyID == "" || strings.TrimSpace(message) == "" {
		return false, nil
	}

	key := durable.PendingKey(counterpartyID)

	var records []model.PendingIntentRecord
	if !durable.GetJSON(w.store, key, &records) {
		records = nil
	}

	records = append(records, model.NewUserIntent(message, w.now().UTC().Format(time.RFC3339Nano)))
	if err := w.store.Set(key, records); err != nil {
		return false, fmt.Errorf("failed to record intent: %w", err)
	}

	metrics.IntentsRecordedTotal.Inc()
	w.logger.Info("booking intent recorded",
		zap.String("counterparty_id", counterpartyID),
		zap.Int("pending", len(records)),
	)
	return true, nil
}
