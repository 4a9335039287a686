package chatstore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/dentaware/assistd/internal/domain"
)

// ShareChat marks the chat as shared and publishes a read-only snapshot to
// the globally-addressable shared collection. The local shared flag is kept
// even when publication fails; the next sync retries the chat document.
func (s *Store) ShareChat(ctx context.Context, id domain.ChatID, by domain.UserID) (domain.ShareID, error) {
	s.mu.Lock()
	c, ok := s.chats[id]
	if !ok {
		s.mu.Unlock()
		s.notify.Error("Chat not found")
		return "", fmt.Errorf("chat %s: %w", id, domain.ErrNotFound)
	}
	now := s.now()
	shareID := newShareID(id, now.UnixNano())
	c.Shared = true
	c.ShareID = shareID
	c.LastUpdated = now
	snapshot := c.Clone()
	s.mu.Unlock()

	shared := &domain.SharedChat{
		ShareID:   shareID,
		Chat:      snapshot,
		CreatedBy: by,
		CreatedAt: now,
		ReadOnly:  true,
	}
	if err := s.remote.PublishShared(ctx, shared); err != nil {
		s.notify.Error("Failed to share chat: " + err.Error())
		s.afterMutation(ctx)
		return shareID, fmt.Errorf("publish shared chat: %w", err)
	}

	s.notify.Success("Chat shared successfully")
	s.afterMutation(ctx)
	return shareID, nil
}

// newShareID derives an opaque 12-hex-char identifier from the chat id and
// the share time, matching the link format of previously issued shares.
func newShareID(id domain.ChatID, nanos int64) domain.ShareID {
	sum := sha256.Sum256([]byte(string(id) + strconv.FormatInt(nanos, 10)))
	return domain.ShareID(hex.EncodeToString(sum[:])[:12])
}

// ExportJSON serializes the full chat collection, keyed by chat id.
func (s *Store) ExportJSON() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, err := json.MarshalIndent(s.chats, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("export chats: %w", err)
	}
	return data, nil
}

// ImportJSON merges an exported chat collection into the store. Imported
// chats win on id collision; ids the order has not seen are appended.
func (s *Store) ImportJSON(ctx context.Context, data []byte) (int, error) {
	var imported map[domain.ChatID]*domain.Chat
	if err := json.Unmarshal(data, &imported); err != nil {
		s.notify.Error("Error importing chats, check the file format")
		return 0, fmt.Errorf("import chats: %w", err)
	}

	s.mu.Lock()
	for id, c := range imported {
		if c == nil || id == "" {
			continue
		}
		c.ID = id
		if c.Messages == nil {
			c.Messages = []domain.Message{}
		}
		if _, exists := s.chats[id]; !exists {
			s.order = append(s.order, id)
		}
		s.chats[id] = c
	}
	count := len(imported)
	s.mu.Unlock()

	s.notify.Success(fmt.Sprintf("Successfully imported %d chats", count))
	s.afterMutation(ctx)
	return count, nil
}
