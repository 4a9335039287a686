// Package assistant implements the send-message flow: the user's message is
// appended locally before the completion call, so it is never lost to a
// network failure. A failed completion shows up in the transcript as an
// assistant-role error message.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dentaware/assistd/internal/adapters/llm"
	"github.com/dentaware/assistd/internal/chatstore"
	"github.com/dentaware/assistd/internal/domain"
	"github.com/dentaware/assistd/internal/observability"
)

var (
	ErrEmptyInput     = errors.New("message text is empty")
	ErrNoChatSelected = errors.New("no chat selected")
)

type Service struct {
	store  *chatstore.Store
	client domain.CompletionClient
	notify domain.Notifier
	now    func() time.Time
}

func NewService(store *chatstore.Store, client domain.CompletionClient, notify domain.Notifier) *Service {
	return &Service{
		store:  store,
		client: client,
		notify: notify,
		now:    time.Now,
	}
}

type SendOutput struct {
	UserMessage      domain.Message
	AssistantMessage domain.Message
}

// Send appends the user's message to the chat, requests a completion for the
// full conversation behind the fixed system instruction, and appends the
// reply. On completion failure the reply is a synthetic error message, the
// user's message stays, and the error is returned alongside the output.
func (s *Service) Send(ctx context.Context, chatID domain.ChatID, text string) (*SendOutput, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		s.notify.Error("Please enter a message")
		return nil, ErrEmptyInput
	}
	if chatID == "" {
		s.notify.Error("Please create or select a chat first")
		return nil, ErrNoChatSelected
	}

	log := observability.LoggerFromContext(ctx).With("chat_id", chatID)

	userMsg := domain.Message{
		Role:      domain.RoleUser,
		Content:   text,
		Timestamp: s.now(),
	}
	// Optimistic local-first append: applied and persisted before any
	// network call resolves.
	if err := s.store.AppendMessage(ctx, chatID, userMsg); err != nil {
		return nil, err
	}

	// The chat can disappear between the append and this read if a
	// concurrent delete lands in between.
	chat, ok := s.store.Chat(chatID)
	if !ok {
		return nil, fmt.Errorf("chat %s: %w", chatID, domain.ErrNotFound)
	}
	history := append([]domain.Message{llm.SystemMessage()}, chat.Messages...)

	completion, err := s.client.Complete(ctx, history)

	var reply domain.Message
	if err != nil {
		log.Error("completion failed", "error", err)
		reply = domain.Message{
			Role:      domain.RoleAssistant,
			Content:   "Error: " + err.Error(),
			Timestamp: s.now(),
		}
		s.notify.Error("API Error: " + err.Error())
	} else {
		reply = domain.Message{
			Role:      domain.RoleAssistant,
			Content:   completion.Content,
			Timestamp: s.now(),
		}
	}

	if appendErr := s.store.AppendMessage(ctx, chatID, reply); appendErr != nil {
		return nil, appendErr
	}

	return &SendOutput{UserMessage: userMsg, AssistantMessage: reply}, err
}
