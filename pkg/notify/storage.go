package notify

import (
	"context"

	"github.com/ootdhub/pushkit/pkg/cursor"
)

// Store is the durable system of record for notifications. Live delivery
// is best effort on top of it; a client that misses a push catches up by
// replaying from the store.
type Store interface {
	// Save persists a new notification. It must complete before any
	// transport publish is attempted for the event.
	Save(ctx context.Context, n Notification) error

	// FindByRecipient returns the recipient's notifications strictly
	// after the given position, ascending by (CreatedAt, ID). The zero
	// position selects the full backlog. A limit of 0 means no limit.
	FindByRecipient(ctx context.Context, recipientID string, after cursor.Position, limit int) ([]Notification, error)

	// DeleteByID removes a single notification.
	DeleteByID(ctx context.Context, recipientID, id string) error

	// DeleteAllByRecipient clears a recipient's backlog.
	DeleteAllByRecipient(ctx context.Context, recipientID string) error
}

// Directory resolves recipient identities against the external user store.
type Directory interface {
	Exists(ctx context.Context, recipientID string) (bool, error)
}
