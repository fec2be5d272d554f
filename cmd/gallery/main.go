// Command gallery browses the gallery of a seeded conversation in the terminal.
package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"

	"github.com/capitalize-ai/conversation-handoff/internal/durable"
	"github.com/capitalize-ai/conversation-handoff/internal/fixtures"
	"github.com/capitalize-ai/conversation-handoff/internal/media"
	"github.com/capitalize-ai/conversation-handoff/internal/media/tui"
	"github.com/capitalize-ai/conversation-handoff/internal/service"
	"github.com/capitalize-ai/conversation-handoff/pkg/logger"
)

func main() {
	seedFile := pflag.StringP("seed", "s", "", "seed file (defaults to the built-in seed)")
	conversationID := pflag.StringP("conversation", "c", "conv-101", "conversation to open")
	start := pflag.IntP("start", "i", 0, "index of the first photo")
	pflag.Parse()

	if err := run(*seedFile, *conversationID, *start); err != nil {
		fmt.Fprintln(os.Stderr, "gallery:", err)
		os.Exit(1)
	}
}

func run(seedFile, conversationID string, start int) error {
	seed, err := fixtures.Load(seedFile)
	if err != nil {
		return err
	}

	conversations := service.NewConversationStore("me", logger.Nop())
	conversations.Seed(seed)
	resolver := service.NewResolver(conversations, durable.NewHub(nil).Context(), logger.Nop())

	conv := resolver.Resolve(conversationID, nil)
	view := media.Gallery(conv)
	if view.Locked {
		return fmt.Errorf("%s has no gallery yet", conv.DisplayName)
	}

	m, err := tui.New(conv.DisplayName, view.Photos, start)
	if err != nil {
		return err
	}

	_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
