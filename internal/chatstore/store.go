// Package chatstore owns the in-memory chat state and reconciles it with a
// local persistent cache and a remote document store. Local state is
// authoritative for the active session: every mutation is applied locally
// first, mirrored to the cache, and pushed to the remote store best-effort.
package chatstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/dentaware/assistd/internal/domain"
	"github.com/dentaware/assistd/internal/observability"
)

// Cache keys. Kept stable so state written by earlier versions loads back.
const (
	keyChats           = "dentalChats"
	keyCurrentChat     = "currentChatId"
	keyOrder           = "chatOrder"
	keyFolders         = "dentalFolders"
	keyDarkMode        = "isDarkMode"
	keyTypingAnimation = "useTypingAnimation"
)

// Store is the single authoritative holder of chats, chat order, folders and
// the current selection. All mutations go through it.
type Store struct {
	mu       sync.RWMutex
	chats    map[domain.ChatID]*domain.Chat
	order    []domain.ChatID
	folders  []domain.Folder
	current  domain.ChatID
	scope    domain.Scope
	attached bool

	selectedFolder domain.FolderID
	selectedTags   []string

	cache  domain.LocalCache
	remote domain.RemoteStore
	notify domain.Notifier
	now    func() time.Time

	// syncMu serializes remote pushes so a slow early push can never
	// overwrite the result of a fast later one.
	syncMu sync.Mutex
	wg     sync.WaitGroup
}

// New builds a store and loads whatever state the local cache holds.
// A corrupt or missing cache entry is reported and skipped; the store always
// comes up usable.
func New(cache domain.LocalCache, remote domain.RemoteStore, notify domain.Notifier) *Store {
	s := &Store{
		chats:  make(map[domain.ChatID]*domain.Chat),
		cache:  cache,
		remote: remote,
		notify: notify,
		now:    time.Now,
	}
	s.loadLocal(context.Background())
	return s
}

func (s *Store) loadLocal(ctx context.Context) {
	log := observability.Logger()

	if data, err := s.cache.Get(ctx, keyChats); err == nil {
		var chats map[domain.ChatID]*domain.Chat
		if err := json.Unmarshal(data, &chats); err != nil {
			s.notify.Error("Error loading saved chats: " + err.Error())
		} else {
			for id, c := range chats {
				if c == nil {
					continue
				}
				c.ID = id
				if c.Messages == nil {
					c.Messages = []domain.Message{}
				}
				s.chats[id] = c
			}
		}
	}

	if data, err := s.cache.Get(ctx, keyOrder); err == nil {
		var order []domain.ChatID
		if err := json.Unmarshal(data, &order); err != nil {
			s.notify.Error("Error loading chat order: " + err.Error())
		} else {
			s.order = order
		}
	}
	s.order = reconcileOrder(s.order, s.chats)

	if data, err := s.cache.Get(ctx, keyFolders); err == nil {
		var folders []domain.Folder
		if err := json.Unmarshal(data, &folders); err != nil {
			s.notify.Error("Error loading folders: " + err.Error())
		} else {
			s.folders = folders
		}
	}

	if data, err := s.cache.Get(ctx, keyCurrentChat); err == nil {
		id := domain.ChatID(data)
		if _, ok := s.chats[id]; ok {
			s.current = id
		}
	}

	log.Info("loaded local chat state",
		"chats", len(s.chats),
		"folders", len(s.folders),
		"current_chat", s.current)
}

// reconcileOrder returns a permutation in which every chat map key appears
// exactly once: stale ids are dropped, duplicates collapsed, and ids the
// order never saw are appended in id order (ids are time-based, so this
// keeps them chronological).
func reconcileOrder(order []domain.ChatID, chats map[domain.ChatID]*domain.Chat) []domain.ChatID {
	out := make([]domain.ChatID, 0, len(chats))
	seen := make(map[domain.ChatID]bool, len(chats))
	for _, id := range order {
		if _, ok := chats[id]; ok && !seen[id] {
			out = append(out, id)
			seen[id] = true
		}
	}
	var missing []domain.ChatID
	for id := range chats {
		if !seen[id] {
			missing = append(missing, id)
		}
	}
	slices.Sort(missing)
	return append(out, missing...)
}

// ─────────────────────────────────────────
// Session lifecycle
// ─────────────────────────────────────────

// AttachSession enables opportunistic remote pushes for the given scope.
func (s *Store) AttachSession(scope domain.Scope) {
	s.mu.Lock()
	s.scope = scope
	s.attached = true
	s.mu.Unlock()
}

// DetachSession stops issuing new remote calls. In-flight pushes complete
// or fail on their own without touching local state.
func (s *Store) DetachSession() {
	s.mu.Lock()
	s.attached = false
	s.scope = domain.Scope{}
	s.mu.Unlock()
}

// Close waits for outstanding background pushes to finish.
func (s *Store) Close() {
	s.wg.Wait()
}

// ─────────────────────────────────────────
// Mutations
// ─────────────────────────────────────────

// CreateChat builds an empty chat, prepends it to the order and selects it.
// It is a pure local operation and never fails.
func (s *Store) CreateChat(ctx context.Context, name, tag string, folderID domain.FolderID) domain.ChatID {
	s.mu.Lock()
	now := s.now()
	id := s.newChatID(now)
	if name == "" {
		name = fmt.Sprintf("Chat %d", len(s.chats)+1)
	}
	s.chats[id] = &domain.Chat{
		ID:          id,
		Name:        name,
		Tag:         tag,
		FolderID:    folderID,
		Messages:    []domain.Message{},
		CreatedAt:   now,
		LastUpdated: now,
	}
	s.order = append([]domain.ChatID{id}, s.order...)
	s.current = id
	s.mu.Unlock()

	s.notify.Success(fmt.Sprintf("Chat %q created", name))
	s.afterMutation(ctx)
	return id
}

// newChatID derives a time-based id, bumping by a nanosecond until it is
// unique among the held chats. Creation is user-paced, so collisions are
// rare and the loop terminates immediately in practice.
func (s *Store) newChatID(t time.Time) domain.ChatID {
	for {
		id := domain.ChatID(t.Format("20060102150405.000000000"))
		if _, exists := s.chats[id]; !exists {
			return id
		}
		t = t.Add(time.Nanosecond)
	}
}

func (s *Store) updateChat(ctx context.Context, id domain.ChatID, apply func(*domain.Chat)) error {
	s.mu.Lock()
	c, ok := s.chats[id]
	if !ok {
		s.mu.Unlock()
		s.notify.Error("Chat not found")
		return fmt.Errorf("chat %s: %w", id, domain.ErrNotFound)
	}
	apply(c)
	c.LastUpdated = s.now()
	s.mu.Unlock()

	s.afterMutation(ctx)
	return nil
}

// RenameChat changes the display label. Absent ids are reported, not fatal.
func (s *Store) RenameChat(ctx context.Context, id domain.ChatID, newName string) error {
	return s.updateChat(ctx, id, func(c *domain.Chat) { c.Name = newName })
}

// SetTag replaces the chat's free-text tag. An empty tag clears it.
func (s *Store) SetTag(ctx context.Context, id domain.ChatID, tag string) error {
	return s.updateChat(ctx, id, func(c *domain.Chat) { c.Tag = tag })
}

// MoveToFolder files the chat under folderID, or unfiles it when empty.
func (s *Store) MoveToFolder(ctx context.Context, id domain.ChatID, folderID domain.FolderID) error {
	return s.updateChat(ctx, id, func(c *domain.Chat) { c.FolderID = folderID })
}

// AppendMessage adds one turn to the conversation. The append is local-first:
// it completes before any network call, so the message survives a failed
// completion request.
func (s *Store) AppendMessage(ctx context.Context, id domain.ChatID, msg domain.Message) error {
	return s.updateChat(ctx, id, func(c *domain.Chat) { c.Messages = append(c.Messages, msg) })
}

// DeleteChat removes the chat locally and requests a best-effort remote
// delete. A remote failure is reported but never rolls the local delete back.
func (s *Store) DeleteChat(ctx context.Context, id domain.ChatID) error {
	s.mu.Lock()
	c, ok := s.chats[id]
	if !ok {
		s.mu.Unlock()
		s.notify.Error("Chat not found")
		return fmt.Errorf("chat %s: %w", id, domain.ErrNotFound)
	}
	name := c.Name
	delete(s.chats, id)
	s.order = slices.DeleteFunc(s.order, func(o domain.ChatID) bool { return o == id })
	if s.current == id {
		if len(s.order) > 0 {
			s.current = s.order[0]
		} else {
			s.current = ""
		}
	}
	attached, scope := s.attached, s.scope
	s.mu.Unlock()

	s.notify.Success(fmt.Sprintf("Chat %q deleted", name))

	if attached {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			// The delete takes the same push slot as SyncRemote. An earlier
			// push that snapshotted this chat before the local delete must
			// land before the delete runs, or the chat would be resurrected
			// remotely and pulled back on the next session start.
			s.syncMu.Lock()
			defer s.syncMu.Unlock()
			if err := s.remote.DeleteChat(context.Background(), scope, id); err != nil {
				s.notify.Error("Error deleting from cloud storage: " + err.Error())
			}
		}()
	}

	s.afterMutation(ctx)
	return nil
}

// CreateFolder adds a folder and returns its id.
func (s *Store) CreateFolder(ctx context.Context, name string) domain.FolderID {
	s.mu.Lock()
	id := s.newFolderID()
	s.folders = append(s.folders, domain.Folder{ID: id, Name: name})
	s.mu.Unlock()

	s.afterMutation(ctx)
	return id
}

func (s *Store) newFolderID() domain.FolderID {
	ms := s.now().UnixMilli()
	for {
		id := domain.FolderID(strconv.FormatInt(ms, 10))
		if !slices.ContainsFunc(s.folders, func(f domain.Folder) bool { return f.ID == id }) {
			return id
		}
		ms++
	}
}

// DeleteFolder removes the folder and unfiles every chat that referenced it.
// Both changes happen inside one critical section, so no reader can observe
// a chat pointing at a deleted folder.
func (s *Store) DeleteFolder(ctx context.Context, id domain.FolderID) {
	s.mu.Lock()
	s.folders = slices.DeleteFunc(s.folders, func(f domain.Folder) bool { return f.ID == id })
	if s.selectedFolder == id {
		s.selectedFolder = ""
	}
	now := s.now()
	for _, c := range s.chats {
		if c.FolderID == id {
			c.FolderID = ""
			c.LastUpdated = now
		}
	}
	s.mu.Unlock()

	s.afterMutation(ctx)
}

// Reorder moves the order entry at from to position to, shifting the entries
// between them. Bounds are caller-validated; out-of-range indices panic.
func (s *Store) Reorder(ctx context.Context, from, to int) {
	s.mu.Lock()
	id := s.order[from]
	s.order = slices.Delete(s.order, from, from+1)
	s.order = slices.Insert(s.order, to, id)
	s.mu.Unlock()

	s.afterMutation(ctx)
}

// SetCurrentChat selects the chat the next message goes to.
func (s *Store) SetCurrentChat(ctx context.Context, id domain.ChatID) error {
	s.mu.Lock()
	if _, ok := s.chats[id]; !ok {
		s.mu.Unlock()
		s.notify.Error("Chat not found")
		return fmt.Errorf("chat %s: %w", id, domain.ErrNotFound)
	}
	s.current = id
	s.mu.Unlock()

	s.afterMutation(ctx)
	return nil
}

// ─────────────────────────────────────────
// Read access
// ─────────────────────────────────────────

// Chat returns a copy of the chat, or false when the id is unknown.
func (s *Store) Chat(id domain.ChatID) (*domain.Chat, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.chats[id]
	if !ok {
		return nil, false
	}
	return c.Clone(), true
}

// CurrentChatID returns the selected chat id, or "" when none is selected.
func (s *Store) CurrentChatID() domain.ChatID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Order returns a copy of the display order.
func (s *Store) Order() []domain.ChatID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.order)
}

// Folders returns a copy of the folder list.
func (s *Store) Folders() []domain.Folder {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.folders)
}

// Len returns the number of chats held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chats)
}

// ─────────────────────────────────────────
// Persistence and replication
// ─────────────────────────────────────────

// afterMutation mirrors the new state to the local cache and, when a session
// is attached, schedules a remote push. Neither can fail the mutation.
func (s *Store) afterMutation(ctx context.Context) {
	_ = s.PersistLocal(ctx)
	s.scheduleSync()
}

// PersistLocal serializes chats, order, folders and the current selection to
// their cache keys. Serialization failures (for example capacity exceeded)
// are reported and do not roll back the in-memory change.
func (s *Store) PersistLocal(ctx context.Context) error {
	s.mu.RLock()
	chats, errChats := json.Marshal(s.chats)
	order, errOrder := json.Marshal(s.order)
	folders, errFolders := json.Marshal(s.folders)
	current := []byte(s.current)
	s.mu.RUnlock()

	err := errors.Join(errChats, errOrder, errFolders)
	if err == nil {
		err = errors.Join(
			s.cache.Set(ctx, keyChats, chats),
			s.cache.Set(ctx, keyOrder, order),
			s.cache.Set(ctx, keyFolders, folders),
			s.cache.Set(ctx, keyCurrentChat, current),
		)
	}
	if err != nil {
		s.notify.Error("Error saving chat data: " + err.Error())
		return fmt.Errorf("persist local state: %w", err)
	}
	return nil
}

func (s *Store) scheduleSync() {
	s.mu.RLock()
	attached, scope := s.attached, s.scope
	s.mu.RUnlock()
	if !attached {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		_ = s.SyncRemote(context.Background(), scope)
	}()
}

// SyncRemote pushes the full current state to the remote store, overwriting
// remote documents unconditionally per chat id. Pushes are serialized, and
// the snapshot is taken after the push slot is won, so the remote always
// converges on the state current at push time, never a stale capture.
func (s *Store) SyncRemote(ctx context.Context, scope domain.Scope) error {
	s.syncMu.Lock()
	defer s.syncMu.Unlock()

	s.mu.RLock()
	chats := make([]*domain.Chat, 0, len(s.chats))
	for _, id := range s.order {
		if c, ok := s.chats[id]; ok {
			chats = append(chats, c.Clone())
		}
	}
	settings := &domain.SyncSettings{
		Order:   slices.Clone(s.order),
		Folders: slices.Clone(s.folders),
	}
	s.mu.RUnlock()

	for _, c := range chats {
		if err := s.remote.SaveChat(ctx, scope, c); err != nil {
			s.notify.Error("Failed to sync chats to cloud: " + err.Error())
			return fmt.Errorf("push chat %s: %w", c.ID, err)
		}
	}
	if err := s.remote.SaveSettings(ctx, scope, settings); err != nil {
		s.notify.Error("Failed to sync chat settings to cloud: " + err.Error())
		return fmt.Errorf("push settings: %w", err)
	}

	observability.Logger().Info("synced chats to remote store",
		"scope_user", scope.UserID, "scope_org", scope.OrgID, "chats", len(chats))
	return nil
}

// PullRemote fetches the scope's stored order, folders and chat collection
// and replaces the in-memory state, but only when the remote collection is
// non-empty. An empty remote is "nothing to pull", never "clear local state",
// so a fresh session cannot wipe a populated cache.
func (s *Store) PullRemote(ctx context.Context, scope domain.Scope) error {
	settings, err := s.remote.LoadSettings(ctx, scope)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		s.notify.Error("Failed to load chats from cloud: " + err.Error())
		return fmt.Errorf("load settings: %w", err)
	}
	remoteChats, err := s.remote.ListChats(ctx, scope)
	if err != nil {
		s.notify.Error("Failed to load chats from cloud: " + err.Error())
		return fmt.Errorf("list chats: %w", err)
	}
	if len(remoteChats) == 0 {
		s.notify.Info("No chats found in cloud storage")
		return nil
	}

	chats := make(map[domain.ChatID]*domain.Chat, len(remoteChats))
	for _, c := range remoteChats {
		cp := c.Clone()
		if cp.Messages == nil {
			cp.Messages = []domain.Message{}
		}
		chats[cp.ID] = cp
	}
	var order []domain.ChatID
	var folders []domain.Folder
	if settings != nil {
		order = settings.Order
		folders = settings.Folders
	}
	order = reconcileOrder(order, chats)

	s.mu.Lock()
	s.chats = chats
	s.order = order
	s.folders = folders
	if _, ok := s.chats[s.current]; !ok {
		if len(order) > 0 {
			s.current = order[0]
		} else {
			s.current = ""
		}
	}
	s.mu.Unlock()

	s.notify.Success(fmt.Sprintf("Loaded %d chats from cloud storage", len(chats)))
	return s.PersistLocal(ctx)
}
