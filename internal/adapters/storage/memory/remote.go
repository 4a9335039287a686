// Package memory provides in-memory implementations of the storage ports,
// used by tests and by local development mode.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/dentaware/assistd/internal/domain"
)

type scopeKey struct {
	userID domain.UserID
	orgID  domain.OrgID
}

func keyFor(scope domain.Scope) scopeKey {
	if scope.Personal() {
		return scopeKey{userID: scope.UserID}
	}
	// Organization chats are shared: the user component is dropped so every
	// member of the org addresses the same collection.
	return scopeKey{orgID: scope.OrgID}
}

// RemoteStore implements domain.RemoteStore in memory.
type RemoteStore struct {
	mu          sync.RWMutex
	chats       map[scopeKey]map[domain.ChatID]*domain.Chat
	settings    map[scopeKey]*domain.SyncSettings
	profiles    map[domain.UserID]*domain.UserProfile
	orgs        map[domain.OrgID]*domain.Organization
	invitations map[string]*domain.Invitation
	shared      map[domain.ShareID]*domain.SharedChat
}

func NewRemoteStore() *RemoteStore {
	return &RemoteStore{
		chats:       make(map[scopeKey]map[domain.ChatID]*domain.Chat),
		settings:    make(map[scopeKey]*domain.SyncSettings),
		profiles:    make(map[domain.UserID]*domain.UserProfile),
		orgs:        make(map[domain.OrgID]*domain.Organization),
		invitations: make(map[string]*domain.Invitation),
		shared:      make(map[domain.ShareID]*domain.SharedChat),
	}
}

func (r *RemoteStore) SaveChat(ctx context.Context, scope domain.Scope, chat *domain.Chat) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := keyFor(scope)
	if r.chats[k] == nil {
		r.chats[k] = make(map[domain.ChatID]*domain.Chat)
	}
	r.chats[k][chat.ID] = chat.Clone()
	return nil
}

func (r *RemoteStore) DeleteChat(ctx context.Context, scope domain.Scope, id domain.ChatID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.chats[keyFor(scope)], id)
	return nil
}

func (r *RemoteStore) ListChats(ctx context.Context, scope domain.Scope) ([]*domain.Chat, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domain.Chat
	for _, c := range r.chats[keyFor(scope)] {
		out = append(out, c.Clone())
	}
	return out, nil
}

func (r *RemoteStore) SaveSettings(ctx context.Context, scope domain.Scope, settings *domain.SyncSettings) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *settings
	r.settings[keyFor(scope)] = &cp
	return nil
}

func (r *RemoteStore) LoadSettings(ctx context.Context, scope domain.Scope) (*domain.SyncSettings, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.settings[keyFor(scope)]
	if !ok {
		return nil, fmt.Errorf("settings for scope: %w", domain.ErrNotFound)
	}
	cp := *s
	return &cp, nil
}

func (r *RemoteStore) GetProfile(ctx context.Context, id domain.UserID) (*domain.UserProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.profiles[id]
	if !ok {
		return nil, fmt.Errorf("profile %s: %w", id, domain.ErrNotFound)
	}
	cp := *p
	return &cp, nil
}

func (r *RemoteStore) SaveProfile(ctx context.Context, profile *domain.UserProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *profile
	r.profiles[profile.ID] = &cp
	return nil
}

func (r *RemoteStore) ListProfilesByOrg(ctx context.Context, orgID domain.OrgID) ([]*domain.UserProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domain.UserProfile
	for _, p := range r.profiles {
		if p.OrganizationID == orgID {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *RemoteStore) GetOrganization(ctx context.Context, id domain.OrgID) (*domain.Organization, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.orgs[id]
	if !ok {
		return nil, fmt.Errorf("organization %s: %w", id, domain.ErrNotFound)
	}
	cp := *o
	return &cp, nil
}

func (r *RemoteStore) SaveOrganization(ctx context.Context, org *domain.Organization) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *org
	r.orgs[org.ID] = &cp
	return nil
}

func (r *RemoteStore) SaveInvitation(ctx context.Context, inv *domain.Invitation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *inv
	r.invitations[inv.ID] = &cp
	return nil
}

func (r *RemoteStore) PublishShared(ctx context.Context, shared *domain.SharedChat) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *shared
	cp.Chat = shared.Chat.Clone()
	r.shared[shared.ShareID] = &cp
	return nil
}

func (r *RemoteStore) GetShared(ctx context.Context, id domain.ShareID) (*domain.SharedChat, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.shared[id]
	if !ok {
		return nil, fmt.Errorf("shared chat %s: %w", id, domain.ErrNotFound)
	}
	cp := *s
	cp.Chat = s.Chat.Clone()
	return &cp, nil
}
