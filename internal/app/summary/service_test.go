package summary_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dentaware/assistd/internal/adapters/llm"
	"github.com/dentaware/assistd/internal/adapters/storage/memory"
	"github.com/dentaware/assistd/internal/app/summary"
	"github.com/dentaware/assistd/internal/chatstore"
	"github.com/dentaware/assistd/internal/domain"
)

type nopNotifier struct{}

func (nopNotifier) Success(string) {}
func (nopNotifier) Info(string)    {}
func (nopNotifier) Error(string)   {}

func TestSummarizeRequiresTwoMessages(t *testing.T) {
	ctx := context.Background()
	store := chatstore.New(memory.NewCache(), memory.NewRemoteStore(), nopNotifier{})
	svc := summary.NewService(store, llm.NewMockClient())

	id := store.CreateChat(ctx, "", "", "")
	if _, err := svc.Summarize(ctx, id); !errors.Is(err, summary.ErrNotEnoughMessages) {
		t.Fatalf("err = %v, want ErrNotEnoughMessages", err)
	}

	store.AppendMessage(ctx, id, domain.Message{Role: domain.RoleUser, Content: "hi", Timestamp: time.Now()})
	if _, err := svc.Summarize(ctx, id); !errors.Is(err, summary.ErrNotEnoughMessages) {
		t.Fatalf("err = %v, want ErrNotEnoughMessages with one message", err)
	}
}

func TestSummarizeMissingChat(t *testing.T) {
	store := chatstore.New(memory.NewCache(), memory.NewRemoteStore(), nopNotifier{})
	svc := summary.NewService(store, llm.NewMockClient())

	if _, err := svc.Summarize(context.Background(), "absent"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestSummarizeReturnsCompletion(t *testing.T) {
	ctx := context.Background()
	store := chatstore.New(memory.NewCache(), memory.NewRemoteStore(), nopNotifier{})
	svc := summary.NewService(store, llm.NewMockClient())

	id := store.CreateChat(ctx, "", "", "")
	store.AppendMessage(ctx, id, domain.Message{Role: domain.RoleUser, Content: "My crown fell off", Timestamp: time.Now()})
	store.AppendMessage(ctx, id, domain.Message{Role: domain.RoleAssistant, Content: "Keep it safe and come in today.", Timestamp: time.Now()})

	got, err := svc.Summarize(ctx, id)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if got == "" {
		t.Fatal("empty summary")
	}
}

func TestRenderTranscript(t *testing.T) {
	messages := []domain.Message{
		{Role: domain.RoleSystem, Content: "instruction"},
		{Role: domain.RoleUser, Content: "My crown fell off"},
		{Role: domain.RoleAssistant, Content: "Keep it safe and come in today."},
	}

	got := summary.RenderTranscript(messages)
	want := "Patient: My crown fell off\n\nAssistant: Keep it safe and come in today."
	if got != want {
		t.Fatalf("transcript = %q, want %q", got, want)
	}
	if strings.Contains(got, "instruction") {
		t.Fatal("system messages must not appear in the transcript")
	}
}
