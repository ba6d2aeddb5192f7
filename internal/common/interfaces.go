package common

import (
	"context"
	"encoding/json"
	"time"
)

// StreamHandle is one live server-push connection. Events carries raw inbound
// payloads; Done delivers exactly one terminal signal (nil for a deliberate
// close, the transport error otherwise) and is then closed. Close is
// idempotent.
type StreamHandle interface {
	Events() <-chan json.RawMessage
	Done() <-chan error
	Close()
}

// StreamOpener opens a push connection on behalf of an identity. Callers own
// the returned handle; at most one may be open per subscription at a time.
type StreamOpener interface {
	Open(ctx context.Context, identity Identity) (StreamHandle, error)
}

// IdentityResolver derives an identity from an opaque bearer credential.
// A malformed or empty credential yields nil, never an error.
type IdentityResolver interface {
	Resolve(credential string) *Identity
}

type NotificationRepository interface {
	Create(ctx context.Context, n *Notification) error
	ByRecipient(ctx context.Context, id Identity, limit, offset int) ([]Notification, error)
	MarkAsRead(ctx context.Context, notificationID uint64, id Identity) (time.Time, error)
	UnreadCount(ctx context.Context, id Identity) (int64, error)
}
