package assistant_test

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/dentaware/assistd/internal/adapters/llm"
	"github.com/dentaware/assistd/internal/adapters/storage/memory"
	"github.com/dentaware/assistd/internal/app/assistant"
	"github.com/dentaware/assistd/internal/chatstore"
	"github.com/dentaware/assistd/internal/domain"
)

type nopNotifier struct{}

func (nopNotifier) Success(string) {}
func (nopNotifier) Info(string)    {}
func (nopNotifier) Error(string)   {}

type erroringClient struct {
	err error
}

func (c *erroringClient) Complete(ctx context.Context, messages []domain.Message) (*domain.Completion, error) {
	return nil, c.err
}

func newStore(t *testing.T) *chatstore.Store {
	t.Helper()
	return chatstore.New(memory.NewCache(), memory.NewRemoteStore(), nopNotifier{})
}

func TestSendAppendsUserAndAssistantMessages(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	svc := assistant.NewService(store, llm.NewMockClient(), nopNotifier{})

	id := store.CreateChat(ctx, "", "", "")
	out, err := svc.Send(ctx, id, "  My gums bleed when I floss  ")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if out.UserMessage.Content != "My gums bleed when I floss" {
		t.Fatalf("user message not trimmed: %q", out.UserMessage.Content)
	}
	if out.AssistantMessage.Role != domain.RoleAssistant {
		t.Fatalf("reply role = %s", out.AssistantMessage.Role)
	}

	chat, _ := store.Chat(id)
	if len(chat.Messages) != 2 {
		t.Fatalf("chat has %d messages, want 2", len(chat.Messages))
	}
	if chat.Messages[0].Role != domain.RoleUser || chat.Messages[1].Role != domain.RoleAssistant {
		t.Fatalf("unexpected roles: %s, %s", chat.Messages[0].Role, chat.Messages[1].Role)
	}
}

func TestSendKeepsUserMessageOnCompletionFailure(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	boom := errors.New("service unavailable")
	svc := assistant.NewService(store, &erroringClient{err: boom}, nopNotifier{})

	id := store.CreateChat(ctx, "", "", "")
	out, err := svc.Send(ctx, id, "Can I book for Tuesday?")
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
	if out == nil {
		t.Fatal("failed completion must still return the appended messages")
	}

	chat, _ := store.Chat(id)
	if len(chat.Messages) != 2 {
		t.Fatalf("chat has %d messages, want user message plus error reply", len(chat.Messages))
	}
	if chat.Messages[0].Content != "Can I book for Tuesday?" {
		t.Fatal("user message lost on completion failure")
	}
	reply := chat.Messages[1]
	if reply.Role != domain.RoleAssistant || !strings.HasPrefix(reply.Content, "Error: ") {
		t.Fatalf("error reply = %+v", reply)
	}
}

// deletingCache removes the target chat from its store during the persist
// step of the next mutation, landing a delete between the user-message append
// and the history read inside Send.
type deletingCache struct {
	*memory.Cache
	store  *chatstore.Store
	target domain.ChatID
	fired  atomic.Bool
}

func (c *deletingCache) Set(ctx context.Context, key string, value []byte) error {
	if c.store != nil && c.fired.CompareAndSwap(false, true) {
		_ = c.store.DeleteChat(ctx, c.target)
	}
	return c.Cache.Set(ctx, key, value)
}

func TestSendReportsChatDeletedMidFlight(t *testing.T) {
	ctx := context.Background()
	cache := &deletingCache{Cache: memory.NewCache()}
	store := chatstore.New(cache, memory.NewRemoteStore(), nopNotifier{})
	svc := assistant.NewService(store, llm.NewMockClient(), nopNotifier{})

	id := store.CreateChat(ctx, "", "", "")
	cache.store, cache.target = store, id

	if _, err := svc.Send(ctx, id, "hello"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound for a chat deleted mid-send", err)
	}
}

func TestSendRejectsEmptyInput(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	svc := assistant.NewService(store, llm.NewMockClient(), nopNotifier{})

	id := store.CreateChat(ctx, "", "", "")
	if _, err := svc.Send(ctx, id, "   "); !errors.Is(err, assistant.ErrEmptyInput) {
		t.Fatalf("err = %v, want ErrEmptyInput", err)
	}
	if _, err := svc.Send(ctx, "", "hello"); !errors.Is(err, assistant.ErrNoChatSelected) {
		t.Fatalf("err = %v, want ErrNoChatSelected", err)
	}

	chat, _ := store.Chat(id)
	if len(chat.Messages) != 0 {
		t.Fatalf("rejected input must not append messages, got %d", len(chat.Messages))
	}
}
