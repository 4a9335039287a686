package domain

import "time"

type ChatID string
type FolderID string
type ShareID string
type UserID string
type OrgID string

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Timestamp = time.Time

// Scope identifies where a session's remote documents live: the organization
// when the user belongs to one, otherwise the user's personal space.
type Scope struct {
	UserID UserID
	OrgID  OrgID
}

func (s Scope) Personal() bool {
	return s.OrgID == ""
}
