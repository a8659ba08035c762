package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ootdhub/pushkit/pkg/cursor"
	"github.com/ootdhub/pushkit/pkg/logger"
)

// Publisher pushes a serialized envelope towards the recipient's live
// connections. delivery.Strategy is the production implementation.
type Publisher interface {
	Publish(ctx context.Context, recipientID string, payload []byte) error
}

// NopPublisher discards every publish. Useful when real-time delivery is
// disabled and clients rely on replay alone.
type NopPublisher struct{}

func (NopPublisher) Publish(ctx context.Context, recipientID string, payload []byte) error {
	return nil
}

// Service is the sole producer-facing entry point. It owns the
// durability-before-visibility invariant: a notification is written to
// the store before any transport sees it, and a failed publish is
// logged and swallowed because the store remains authoritative.
type Service struct {
	store     Store
	directory Directory
	publisher Publisher
	logger    *slog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithServiceLogger sets the logger for the Service.
func WithServiceLogger(log *slog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = log
	}
}

// NewService creates a notification service. A nil publisher disables
// live delivery without affecting persistence.
func NewService(store Store, directory Directory, publisher Publisher, opts ...ServiceOption) *Service {
	if publisher == nil {
		publisher = NopPublisher{}
	}

	s := &Service{
		store:     store,
		directory: directory,
		publisher: publisher,
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Send creates, persists, and best-effort publishes one notification.
// A store failure is fatal for the call: nothing was created and nothing
// is published. A publish failure is not surfaced; the stored record is
// retrievable via replay on the recipient's next reconnect.
func (s *Service) Send(ctx context.Context, recipientID, title, body string, severity Severity) (Notification, error) {
	if recipientID == "" {
		return Notification{}, ErrEmptyRecipient
	}
	if !severity.Valid() {
		severity = SeverityInfo
	}

	ok, err := s.directory.Exists(ctx, recipientID)
	if err != nil {
		return Notification{}, fmt.Errorf("resolve recipient %s: %w", recipientID, err)
	}
	if !ok {
		return Notification{}, fmt.Errorf("%w: %s", ErrRecipientNotFound, recipientID)
	}

	n := Notification{
		ID:          newEventID(),
		RecipientID: recipientID,
		Title:       title,
		Body:        body,
		Severity:    severity,
		// Millisecond precision, matching the cursor encoding; finer
		// fractions would make stored rows compare after their own cursor.
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}

	// Durability precedes visibility.
	if err := s.store.Save(ctx, n); err != nil {
		return Notification{}, fmt.Errorf("store notification: %w", err)
	}

	payload, err := n.Envelope().Marshal()
	if err != nil {
		s.logger.LogAttrs(ctx, slog.LevelError, "failed to serialize notification envelope",
			slog.String("notification_id", n.ID),
			logger.UserID(n.RecipientID),
			logger.Error(err),
		)
		return n, nil
	}

	if err := s.publisher.Publish(ctx, recipientID, payload); err != nil {
		s.logger.LogAttrs(ctx, slog.LevelWarn, "failed to publish notification, stored for replay",
			slog.String("notification_id", n.ID),
			logger.UserID(n.RecipientID),
			logger.Error(err),
		)
	}

	return n, nil
}

// List returns the recipient's notifications after the supplied cursor.
// A malformed cursor is treated as absent, so the caller gets the full
// backlog rather than an error.
func (s *Service) List(ctx context.Context, recipientID, sinceCursor string, limit int) ([]Notification, error) {
	return s.store.FindByRecipient(ctx, recipientID, cursor.DecodeOrZero(sinceCursor), limit)
}

// Delete removes a single notification.
func (s *Service) Delete(ctx context.Context, recipientID, id string) error {
	return s.store.DeleteByID(ctx, recipientID, id)
}

// DeleteAll clears the recipient's backlog.
func (s *Service) DeleteAll(ctx context.Context, recipientID string) error {
	return s.store.DeleteAllByRecipient(ctx, recipientID)
}

// Store returns the underlying durable store.
func (s *Service) Store() Store {
	return s.store
}

// newEventID returns a time-ordered event ID. UUIDv7 keeps IDs sortable
// within a millisecond so (CreatedAt, ID) ordering stays stable.
func newEventID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}
