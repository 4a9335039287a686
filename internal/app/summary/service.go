// Package summary generates the three-sentence consultation summary.
package summary

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dentaware/assistd/internal/adapters/llm"
	"github.com/dentaware/assistd/internal/chatstore"
	"github.com/dentaware/assistd/internal/domain"
)

// ErrNotEnoughMessages means the conversation is too short to summarize.
var ErrNotEnoughMessages = errors.New("not enough messages to generate a summary")

type Service struct {
	store  *chatstore.Store
	client domain.CompletionClient
}

func NewService(store *chatstore.Store, client domain.CompletionClient) *Service {
	return &Service{store: store, client: client}
}

// Summarize renders the chat's transcript and asks the completion API for a
// three-sentence summary. At least two non-system messages are required.
func (s *Service) Summarize(ctx context.Context, chatID domain.ChatID) (string, error) {
	chat, ok := s.store.Chat(chatID)
	if !ok {
		return "", fmt.Errorf("chat %s: %w", chatID, domain.ErrNotFound)
	}

	transcript := RenderTranscript(chat.Messages)
	if transcript == "" {
		return "", ErrNotEnoughMessages
	}

	completion, err := s.client.Complete(ctx, llm.SummaryMessages(transcript))
	if err != nil {
		return "", fmt.Errorf("generate summary: %w", err)
	}
	return completion.Content, nil
}

// RenderTranscript formats non-system messages as Patient/Assistant lines.
// It returns "" when fewer than two messages remain after filtering.
func RenderTranscript(messages []domain.Message) string {
	var lines []string
	for _, m := range messages {
		if m.Role == domain.RoleSystem {
			continue
		}
		speaker := "Assistant"
		if m.Role == domain.RoleUser {
			speaker = "Patient"
		}
		lines = append(lines, speaker+": "+m.Content)
	}
	if len(lines) < 2 {
		return ""
	}
	return strings.Join(lines, "\n\n")
}
