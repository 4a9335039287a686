package domain

// Message is one turn in a conversation. Messages are only ever appended;
// they are never reordered or edited afterwards.
type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp Timestamp `json:"timestamp"`
}

// Chat is a conversation thread. The JSON field names match the persisted
// cache format, so records written before a restart load back unchanged.
type Chat struct {
	ID          ChatID    `json:"id"`
	Name        string    `json:"name"`
	Tag         string    `json:"tag,omitempty"`
	FolderID    FolderID  `json:"folderId,omitempty"`
	Messages    []Message `json:"messages"`
	CreatedAt   Timestamp `json:"createdAt"`
	LastUpdated Timestamp `json:"lastUpdated"`
	Shared      bool      `json:"shared,omitempty"`
	ShareID     ShareID   `json:"shareId,omitempty"`
}

// Clone returns a deep copy, safe to hand to another goroutine or serialize
// while the original keeps mutating.
func (c *Chat) Clone() *Chat {
	if c == nil {
		return nil
	}
	cp := *c
	cp.Messages = make([]Message, len(c.Messages))
	copy(cp.Messages, c.Messages)
	return &cp
}

// Folder is a user-defined grouping of chats.
type Folder struct {
	ID   FolderID `json:"id"`
	Name string   `json:"name"`
}

// SyncSettings is the per-scope settings document holding the display order
// of chats and the folder taxonomy.
type SyncSettings struct {
	Order   []ChatID `json:"order"`
	Folders []Folder `json:"folders"`
}

// SharedChat is the read-only snapshot published under an opaque share ID.
// It is globally addressable and never updated after publication.
type SharedChat struct {
	ShareID   ShareID   `json:"shareId"`
	Chat      *Chat     `json:"chat"`
	CreatedBy UserID    `json:"createdBy"`
	CreatedAt Timestamp `json:"createdAt"`
	ReadOnly  bool      `json:"readOnly"`
}
