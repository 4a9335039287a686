package chatstore_test

import (
	"context"
	"sync"
	"testing"

	"github.com/dentaware/assistd/internal/adapters/storage/memory"
	"github.com/dentaware/assistd/internal/chatstore"
	"github.com/dentaware/assistd/internal/domain"
)

// recordingNotifier captures notices so tests can assert on failure reporting.
type recordingNotifier struct {
	mu     sync.Mutex
	errors []string
	infos  []string
}

func (n *recordingNotifier) Success(msg string) {}

func (n *recordingNotifier) Info(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.infos = append(n.infos, msg)
}

func (n *recordingNotifier) Error(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.errors = append(n.errors, msg)
}

func (n *recordingNotifier) errorCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.errors)
}

// failingRemote wraps the memory remote and fails selected operations.
type failingRemote struct {
	*memory.RemoteStore
	saveChatErr error
}

func (f *failingRemote) SaveChat(ctx context.Context, scope domain.Scope, chat *domain.Chat) error {
	if f.saveChatErr != nil {
		return f.saveChatErr
	}
	return f.RemoteStore.SaveChat(ctx, scope, chat)
}

// gatedRemote blocks the first SaveChat until released, simulating a slow
// push holding its slot while other mutations land.
type gatedRemote struct {
	*memory.RemoteStore
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func newGatedRemote() *gatedRemote {
	return &gatedRemote{
		RemoteStore: memory.NewRemoteStore(),
		entered:     make(chan struct{}),
		release:     make(chan struct{}),
	}
}

func (g *gatedRemote) SaveChat(ctx context.Context, scope domain.Scope, chat *domain.Chat) error {
	g.once.Do(func() {
		close(g.entered)
		<-g.release
	})
	return g.RemoteStore.SaveChat(ctx, scope, chat)
}

func newTestStore(t *testing.T) (*chatstore.Store, *memory.Cache, *memory.RemoteStore, *recordingNotifier) {
	t.Helper()
	cache := memory.NewCache()
	remote := memory.NewRemoteStore()
	notify := &recordingNotifier{}
	return chatstore.New(cache, remote, notify), cache, remote, notify
}

// checkConsistent asserts the order list is a permutation of the chat map's
// keys: same length, no duplicates, every entry resolvable.
func checkConsistent(t *testing.T, s *chatstore.Store) {
	t.Helper()
	order := s.Order()
	if len(order) != s.Len() {
		t.Fatalf("order has %d entries, chat map has %d", len(order), s.Len())
	}
	seen := make(map[domain.ChatID]bool, len(order))
	for _, id := range order {
		if seen[id] {
			t.Fatalf("duplicate id %s in order", id)
		}
		seen[id] = true
		if _, ok := s.Chat(id); !ok {
			t.Fatalf("order references missing chat %s", id)
		}
	}
}
