package domain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotFound is returned by stores when a document does not exist.
var ErrNotFound = errors.New("not found")

// Completion is one reply from the hosted completion API. Raw carries the
// provider's response body untouched so the /chat proxy can pass it through.
type Completion struct {
	Content string
	Raw     json.RawMessage
}

// ProviderError is a non-success response from the completion provider.
// The HTTP proxy mirrors its status code back to the caller.
type ProviderError struct {
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider error (%d): %s", e.StatusCode, e.Message)
}

// CompletionClient defines how the application talks to the hosted
// completion API. Messages are sent exactly as given; callers are
// responsible for prepending whatever system instruction they need.
type CompletionClient interface {
	Complete(ctx context.Context, messages []Message) (*Completion, error)
}

// LocalCache is the flat key/document store the in-memory state is mirrored
// to on every change, for offline availability and reload.
type LocalCache interface {
	// Get returns the stored document, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Close() error
}

// RemoteStore is the hosted document database, consumed as an opaque
// hierarchical document store. Chat and settings documents are scoped per
// organization or per user; shared snapshots are globally addressable.
type RemoteStore interface {
	SaveChat(ctx context.Context, scope Scope, chat *Chat) error
	DeleteChat(ctx context.Context, scope Scope, id ChatID) error
	ListChats(ctx context.Context, scope Scope) ([]*Chat, error)
	SaveSettings(ctx context.Context, scope Scope, settings *SyncSettings) error
	LoadSettings(ctx context.Context, scope Scope) (*SyncSettings, error)

	GetProfile(ctx context.Context, id UserID) (*UserProfile, error)
	SaveProfile(ctx context.Context, profile *UserProfile) error
	ListProfilesByOrg(ctx context.Context, orgID OrgID) ([]*UserProfile, error)

	GetOrganization(ctx context.Context, id OrgID) (*Organization, error)
	SaveOrganization(ctx context.Context, org *Organization) error
	SaveInvitation(ctx context.Context, inv *Invitation) error

	PublishShared(ctx context.Context, shared *SharedChat) error
	GetShared(ctx context.Context, id ShareID) (*SharedChat, error)
}

// Notifier surfaces transient, dismissable notices to the user. Remote and
// serialization failures are reported here instead of propagating into the
// mutation path.
type Notifier interface {
	Success(msg string)
	Info(msg string)
	Error(msg string)
}
