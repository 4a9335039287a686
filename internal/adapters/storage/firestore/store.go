// Package firestore is the remote document store adapter. Chats and sync
// settings live under the organization when the user belongs to one,
// otherwise under the user's personal space; shared snapshots live in a
// globally-addressable collection.
package firestore

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/dentaware/assistd/internal/domain"
)

type Store struct {
	client *firestore.Client
}

// NewStore creates a Firestore-backed remote store for the given project.
func NewStore(ctx context.Context, projectID string) (*Store, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID is required for Firestore store")
	}
	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}
	return &Store{client: client}, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

// ─────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────

func (s *Store) userDoc(id domain.UserID) *firestore.DocumentRef {
	return s.client.Collection("users").Doc(string(id))
}

func (s *Store) orgDoc(id domain.OrgID) *firestore.DocumentRef {
	return s.client.Collection("organizations").Doc(string(id))
}

func (s *Store) scopeDoc(scope domain.Scope) *firestore.DocumentRef {
	if scope.Personal() {
		return s.userDoc(scope.UserID)
	}
	return s.orgDoc(scope.OrgID)
}

func (s *Store) chatsCol(scope domain.Scope) *firestore.CollectionRef {
	return s.scopeDoc(scope).Collection("chats")
}

func (s *Store) settingsCol(scope domain.Scope) *firestore.CollectionRef {
	return s.scopeDoc(scope).Collection("settings")
}

func (s *Store) sharedDoc(id domain.ShareID) *firestore.DocumentRef {
	return s.client.Collection("shared").Doc(string(id))
}

func notFound(err error) bool {
	return status.Code(err) == codes.NotFound
}

// ─────────────────────────────────────────
// Firestore Types
// ─────────────────────────────────────────

type messageDoc struct {
	Role      string    `firestore:"role"`
	Content   string    `firestore:"content"`
	Timestamp time.Time `firestore:"timestamp"`
}

type chatDoc struct {
	Name        string       `firestore:"name"`
	Tag         string       `firestore:"tag"`
	FolderID    string       `firestore:"folder_id"`
	Messages    []messageDoc `firestore:"messages"`
	CreatedAt   time.Time    `firestore:"created_at"`
	LastUpdated time.Time    `firestore:"last_updated"`
	Shared      bool         `firestore:"shared"`
	ShareID     string       `firestore:"share_id"`
	OrgID       string       `firestore:"organization_id,omitempty"`
}

type settingsDoc struct {
	Order   []string    `firestore:"order"`
	Folders []folderDoc `firestore:"folders"`
}

type folderDoc struct {
	ID   string `firestore:"id"`
	Name string `firestore:"name"`
}

type profileDoc struct {
	Name      string    `firestore:"name"`
	Email     string    `firestore:"email"`
	Role      string    `firestore:"role"`
	Status    string    `firestore:"status"`
	OrgID     string    `firestore:"organization_id"`
	CreatedAt time.Time `firestore:"created_at"`
	UpdatedAt time.Time `firestore:"updated_at"`
	LastLogin time.Time `firestore:"last_login"`
}

type orgDoc struct {
	Name        string    `firestore:"name"`
	OwnerID     string    `firestore:"owner_id"`
	Email       string    `firestore:"email"`
	Type        string    `firestore:"type"`
	PlanType    string    `firestore:"plan_type"`
	Status      string    `firestore:"status"`
	MaxUsers    int       `firestore:"max_users"`
	Settings    orgCfgDoc `firestore:"settings"`
	CreatedAt   time.Time `firestore:"created_at"`
	UpdatedAt   time.Time `firestore:"updated_at"`
	TrialEndsAt time.Time `firestore:"trial_ends_at"`
}

type orgCfgDoc struct {
	Theme        string `firestore:"theme"`
	Model        string `firestore:"model"`
	ShareLinks   bool   `firestore:"share_links"`
	Templates    bool   `firestore:"templates"`
	VoiceInput   bool   `firestore:"voice_input"`
	ExportPDF    bool   `firestore:"export_pdf"`
	CustomAPIKey bool   `firestore:"custom_api_key"`
}

type invitationDoc struct {
	Email     string    `firestore:"email"`
	OrgID     string    `firestore:"organization_id"`
	Role      string    `firestore:"role"`
	Status    string    `firestore:"status"`
	CreatedAt time.Time `firestore:"created_at"`
	ExpiresAt time.Time `firestore:"expires_at"`
}

type sharedDoc struct {
	Chat      chatDoc   `firestore:"chat"`
	ChatID    string    `firestore:"chat_id"`
	CreatedBy string    `firestore:"created_by"`
	CreatedAt time.Time `firestore:"created_at"`
	ReadOnly  bool      `firestore:"read_only"`
}

func toChatDoc(c *domain.Chat, orgID domain.OrgID) chatDoc {
	msgs := make([]messageDoc, 0, len(c.Messages))
	for _, m := range c.Messages {
		msgs = append(msgs, messageDoc{
			Role:      string(m.Role),
			Content:   m.Content,
			Timestamp: m.Timestamp,
		})
	}
	return chatDoc{
		Name:        c.Name,
		Tag:         c.Tag,
		FolderID:    string(c.FolderID),
		Messages:    msgs,
		CreatedAt:   c.CreatedAt,
		LastUpdated: c.LastUpdated,
		Shared:      c.Shared,
		ShareID:     string(c.ShareID),
		OrgID:       string(orgID),
	}
}

func fromChatDoc(id domain.ChatID, d chatDoc) *domain.Chat {
	msgs := make([]domain.Message, 0, len(d.Messages))
	for _, m := range d.Messages {
		msgs = append(msgs, domain.Message{
			Role:      domain.Role(m.Role),
			Content:   m.Content,
			Timestamp: m.Timestamp,
		})
	}
	return &domain.Chat{
		ID:          id,
		Name:        d.Name,
		Tag:         d.Tag,
		FolderID:    domain.FolderID(d.FolderID),
		Messages:    msgs,
		CreatedAt:   d.CreatedAt,
		LastUpdated: d.LastUpdated,
		Shared:      d.Shared,
		ShareID:     domain.ShareID(d.ShareID),
	}
}

// ─────────────────────────────────────────
// Chats and settings
// ─────────────────────────────────────────

func (s *Store) SaveChat(ctx context.Context, scope domain.Scope, chat *domain.Chat) error {
	_, err := s.chatsCol(scope).Doc(string(chat.ID)).Set(ctx, toChatDoc(chat, scope.OrgID))
	if err != nil {
		return fmt.Errorf("firestore SaveChat: %w", err)
	}
	return nil
}

func (s *Store) DeleteChat(ctx context.Context, scope domain.Scope, id domain.ChatID) error {
	_, err := s.chatsCol(scope).Doc(string(id)).Delete(ctx)
	if err != nil {
		return fmt.Errorf("firestore DeleteChat: %w", err)
	}
	return nil
}

func (s *Store) ListChats(ctx context.Context, scope domain.Scope) ([]*domain.Chat, error) {
	iter := s.chatsCol(scope).Documents(ctx)
	defer iter.Stop()

	var out []*domain.Chat
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("firestore ListChats: %w", err)
		}
		var d chatDoc
		if err := snap.DataTo(&d); err != nil {
			return nil, fmt.Errorf("decode chatDoc: %w", err)
		}
		out = append(out, fromChatDoc(domain.ChatID(snap.Ref.ID), d))
	}
	return out, nil
}

// SaveSettings writes the order/folders documents. Organization scopes keep
// both in one "chats" settings doc; personal scopes keep the historical
// split layout (a "chatOrder" doc and a "folders" doc).
func (s *Store) SaveSettings(ctx context.Context, scope domain.Scope, settings *domain.SyncSettings) error {
	order := make([]string, 0, len(settings.Order))
	for _, id := range settings.Order {
		order = append(order, string(id))
	}
	folders := make([]folderDoc, 0, len(settings.Folders))
	for _, f := range settings.Folders {
		folders = append(folders, folderDoc{ID: string(f.ID), Name: f.Name})
	}

	if !scope.Personal() {
		_, err := s.settingsCol(scope).Doc("chats").Set(ctx, settingsDoc{Order: order, Folders: folders})
		if err != nil {
			return fmt.Errorf("firestore SaveSettings: %w", err)
		}
		return nil
	}

	if _, err := s.settingsCol(scope).Doc("chatOrder").Set(ctx, map[string]any{"order": order}); err != nil {
		return fmt.Errorf("firestore SaveSettings order: %w", err)
	}
	if _, err := s.settingsCol(scope).Doc("folders").Set(ctx, map[string]any{"folders": folders}); err != nil {
		return fmt.Errorf("firestore SaveSettings folders: %w", err)
	}
	return nil
}

func (s *Store) LoadSettings(ctx context.Context, scope domain.Scope) (*domain.SyncSettings, error) {
	var d settingsDoc
	if !scope.Personal() {
		snap, err := s.settingsCol(scope).Doc("chats").Get(ctx)
		if err != nil {
			if notFound(err) {
				return nil, fmt.Errorf("settings: %w", domain.ErrNotFound)
			}
			return nil, fmt.Errorf("firestore LoadSettings: %w", err)
		}
		if err := snap.DataTo(&d); err != nil {
			return nil, fmt.Errorf("decode settingsDoc: %w", err)
		}
	} else {
		orderSnap, err := s.settingsCol(scope).Doc("chatOrder").Get(ctx)
		switch {
		case err != nil && !notFound(err):
			return nil, fmt.Errorf("firestore LoadSettings order: %w", err)
		case err == nil:
			var od struct {
				Order []string `firestore:"order"`
			}
			if err := orderSnap.DataTo(&od); err != nil {
				return nil, fmt.Errorf("decode order doc: %w", err)
			}
			d.Order = od.Order
		}

		folderSnap, err := s.settingsCol(scope).Doc("folders").Get(ctx)
		switch {
		case err != nil && !notFound(err):
			return nil, fmt.Errorf("firestore LoadSettings folders: %w", err)
		case err == nil:
			var fd struct {
				Folders []folderDoc `firestore:"folders"`
			}
			if err := folderSnap.DataTo(&fd); err != nil {
				return nil, fmt.Errorf("decode folders doc: %w", err)
			}
			d.Folders = fd.Folders
		}

		if d.Order == nil && d.Folders == nil {
			return nil, fmt.Errorf("settings: %w", domain.ErrNotFound)
		}
	}

	out := &domain.SyncSettings{}
	for _, id := range d.Order {
		out.Order = append(out.Order, domain.ChatID(id))
	}
	for _, f := range d.Folders {
		out.Folders = append(out.Folders, domain.Folder{ID: domain.FolderID(f.ID), Name: f.Name})
	}
	return out, nil
}

// ─────────────────────────────────────────
// Profiles, organizations, invitations
// ─────────────────────────────────────────

func (s *Store) GetProfile(ctx context.Context, id domain.UserID) (*domain.UserProfile, error) {
	snap, err := s.userDoc(id).Get(ctx)
	if err != nil {
		if notFound(err) {
			return nil, fmt.Errorf("profile %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("firestore GetProfile: %w", err)
	}
	var d profileDoc
	if err := snap.DataTo(&d); err != nil {
		return nil, fmt.Errorf("decode profileDoc: %w", err)
	}
	return &domain.UserProfile{
		ID:             id,
		Name:           d.Name,
		Email:          d.Email,
		Role:           d.Role,
		Status:         d.Status,
		OrganizationID: domain.OrgID(d.OrgID),
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
		LastLogin:      d.LastLogin,
	}, nil
}

func (s *Store) SaveProfile(ctx context.Context, profile *domain.UserProfile) error {
	_, err := s.userDoc(profile.ID).Set(ctx, profileDoc{
		Name:      profile.Name,
		Email:     profile.Email,
		Role:      profile.Role,
		Status:    profile.Status,
		OrgID:     string(profile.OrganizationID),
		CreatedAt: profile.CreatedAt,
		UpdatedAt: profile.UpdatedAt,
		LastLogin: profile.LastLogin,
	})
	if err != nil {
		return fmt.Errorf("firestore SaveProfile: %w", err)
	}
	return nil
}

func (s *Store) ListProfilesByOrg(ctx context.Context, orgID domain.OrgID) ([]*domain.UserProfile, error) {
	q := s.client.Collection("users").Where("organization_id", "==", string(orgID))
	iter := q.Documents(ctx)
	defer iter.Stop()

	var out []*domain.UserProfile
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("firestore ListProfilesByOrg: %w", err)
		}
		var d profileDoc
		if err := snap.DataTo(&d); err != nil {
			return nil, fmt.Errorf("decode profileDoc: %w", err)
		}
		out = append(out, &domain.UserProfile{
			ID:             domain.UserID(snap.Ref.ID),
			Name:           d.Name,
			Email:          d.Email,
			Role:           d.Role,
			Status:         d.Status,
			OrganizationID: domain.OrgID(d.OrgID),
			CreatedAt:      d.CreatedAt,
			UpdatedAt:      d.UpdatedAt,
			LastLogin:      d.LastLogin,
		})
	}
	return out, nil
}

func (s *Store) GetOrganization(ctx context.Context, id domain.OrgID) (*domain.Organization, error) {
	snap, err := s.orgDoc(id).Get(ctx)
	if err != nil {
		if notFound(err) {
			return nil, fmt.Errorf("organization %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("firestore GetOrganization: %w", err)
	}
	var d orgDoc
	if err := snap.DataTo(&d); err != nil {
		return nil, fmt.Errorf("decode orgDoc: %w", err)
	}
	return &domain.Organization{
		ID:       id,
		Name:     d.Name,
		OwnerID:  domain.UserID(d.OwnerID),
		Email:    d.Email,
		Type:     domain.OrgType(d.Type),
		PlanType: domain.PlanType(d.PlanType),
		Status:   domain.OrgStatus(d.Status),
		MaxUsers: d.MaxUsers,
		Settings: domain.OrgSettings{
			Theme: d.Settings.Theme,
			Model: d.Settings.Model,
			Features: domain.OrgFeatures{
				ShareLinks:   d.Settings.ShareLinks,
				Templates:    d.Settings.Templates,
				VoiceInput:   d.Settings.VoiceInput,
				ExportPDF:    d.Settings.ExportPDF,
				CustomAPIKey: d.Settings.CustomAPIKey,
			},
		},
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
		TrialEndsAt: d.TrialEndsAt,
	}, nil
}

func (s *Store) SaveOrganization(ctx context.Context, org *domain.Organization) error {
	_, err := s.orgDoc(org.ID).Set(ctx, orgDoc{
		Name:     org.Name,
		OwnerID:  string(org.OwnerID),
		Email:    org.Email,
		Type:     string(org.Type),
		PlanType: string(org.PlanType),
		Status:   string(org.Status),
		MaxUsers: org.MaxUsers,
		Settings: orgCfgDoc{
			Theme:        org.Settings.Theme,
			Model:        org.Settings.Model,
			ShareLinks:   org.Settings.Features.ShareLinks,
			Templates:    org.Settings.Features.Templates,
			VoiceInput:   org.Settings.Features.VoiceInput,
			ExportPDF:    org.Settings.Features.ExportPDF,
			CustomAPIKey: org.Settings.Features.CustomAPIKey,
		},
		CreatedAt:   org.CreatedAt,
		UpdatedAt:   org.UpdatedAt,
		TrialEndsAt: org.TrialEndsAt,
	})
	if err != nil {
		return fmt.Errorf("firestore SaveOrganization: %w", err)
	}
	return nil
}

func (s *Store) SaveInvitation(ctx context.Context, inv *domain.Invitation) error {
	_, err := s.client.Collection("invitations").Doc(inv.ID).Set(ctx, invitationDoc{
		Email:     inv.Email,
		OrgID:     string(inv.OrganizationID),
		Role:      inv.Role,
		Status:    inv.Status,
		CreatedAt: inv.CreatedAt,
		ExpiresAt: inv.ExpiresAt,
	})
	if err != nil {
		return fmt.Errorf("firestore SaveInvitation: %w", err)
	}
	return nil
}

// ─────────────────────────────────────────
// Shared snapshots
// ─────────────────────────────────────────

func (s *Store) PublishShared(ctx context.Context, shared *domain.SharedChat) error {
	_, err := s.sharedDoc(shared.ShareID).Set(ctx, sharedDoc{
		Chat:      toChatDoc(shared.Chat, ""),
		ChatID:    string(shared.Chat.ID),
		CreatedBy: string(shared.CreatedBy),
		CreatedAt: shared.CreatedAt,
		ReadOnly:  shared.ReadOnly,
	})
	if err != nil {
		return fmt.Errorf("firestore PublishShared: %w", err)
	}
	return nil
}

func (s *Store) GetShared(ctx context.Context, id domain.ShareID) (*domain.SharedChat, error) {
	snap, err := s.sharedDoc(id).Get(ctx)
	if err != nil {
		if notFound(err) {
			return nil, fmt.Errorf("shared chat %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("firestore GetShared: %w", err)
	}
	var d sharedDoc
	if err := snap.DataTo(&d); err != nil {
		return nil, fmt.Errorf("decode sharedDoc: %w", err)
	}
	return &domain.SharedChat{
		ShareID:   id,
		Chat:      fromChatDoc(domain.ChatID(d.ChatID), d.Chat),
		CreatedBy: domain.UserID(d.CreatedBy),
		CreatedAt: d.CreatedAt,
		ReadOnly:  d.ReadOnly,
	}, nil
}
