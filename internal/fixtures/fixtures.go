// Package fixtures loads the seed conversations present at process start.
package fixtures

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/capitalize-ai/conversation-handoff/internal/model"
)

//go:embed seed.yaml
var defaultSeed []byte

type seedFile struct {
	Conversations []model.Conversation `yaml:"conversations"`
}

// Default returns the seed conversations built into the binary.
func Default() ([]model.Conversation, error) {
	return Parse(defaultSeed)
}

// Load reads seed conversations from path, or the built-in seed when path
// is empty.
func Load(path string) ([]model.Conversation, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML seed document and fills in derived fields.
func Parse(data []byte) ([]model.Conversation, error) {
	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse seed: %w", err)
	}

	seen := make(map[string]bool, len(f.Conversations))
	for i := range f.Conversations {
		conv := &f.Conversations[i]
		if conv.ID == "" {
			if conv.CounterpartyID == "" {
				return nil, fmt.Errorf("seed conversation %d has neither id nor counterparty_id", i)
			}
			conv.ID = model.ConversationID(conv.CounterpartyID)
		}
		if conv.CounterpartyID == "" {
			conv.CounterpartyID = model.CounterpartyID(conv.ID)
		}
		if seen[conv.ID] {
			return nil, fmt.Errorf("duplicate seed conversation %q", conv.ID)
		}
		seen[conv.ID] = true

		if n := len(conv.Messages); n > 0 && conv.LastMessage == "" {
			conv.LastMessage = conv.Messages[n-1].Content
			conv.LastActivity = conv.Messages[n-1].SentAt
		}
	}
	return f.Conversations, nil
}
