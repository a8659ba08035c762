package notify

import (
	"context"
	"sort"
	"sync"

	"github.com/ootdhub/pushkit/pkg/cursor"
)

// MemoryStore is an in-memory implementation of the Store interface.
// Suitable for development and testing.
type MemoryStore struct {
	notifications map[string][]Notification // recipientID -> notifications
	mu            sync.RWMutex
}

// NewMemoryStore creates a new in-memory notification store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		notifications: make(map[string][]Notification),
	}
}

func (s *MemoryStore) Save(ctx context.Context, n Notification) error {
	if n.RecipientID == "" {
		return ErrEmptyRecipient
	}
	if n.ID == "" {
		return ErrInvalidPayload
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.notifications[n.RecipientID] = append(s.notifications[n.RecipientID], n)
	return nil
}

func (s *MemoryStore) FindByRecipient(ctx context.Context, recipientID string, after cursor.Position, limit int) ([]Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.notifications[recipientID]

	// Exclusive lower bound: only events strictly after the cursor.
	filtered := make([]Notification, 0, len(stored))
	for _, n := range stored {
		if after.Less(n.Position()) {
			filtered = append(filtered, n)
		}
	}

	sort.Slice(filtered, func(i, j int) bool {
		return filtered[i].Position().Less(filtered[j].Position())
	})

	if limit > 0 && len(filtered) > limit {
		filtered = filtered[:limit]
	}

	return filtered, nil
}

func (s *MemoryStore) DeleteByID(ctx context.Context, recipientID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, exists := s.notifications[recipientID]
	if !exists {
		return nil
	}

	kept := stored[:0]
	for _, n := range stored {
		if n.ID != id {
			kept = append(kept, n)
		}
	}
	s.notifications[recipientID] = kept
	return nil
}

func (s *MemoryStore) DeleteAllByRecipient(ctx context.Context, recipientID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.notifications, recipientID)
	return nil
}
