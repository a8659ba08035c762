package notify

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ootdhub/pushkit/pkg/cursor"
)

// PgStore is a PostgreSQL-backed implementation of the Store interface.
// The notifications table is created by the migrations shipped with this
// module (see migrations/).
type PgStore struct {
	db *pgxpool.Pool
}

// NewPgStore creates a Postgres notification store on top of an existing
// connection pool. The pool's lifecycle stays with the caller.
func NewPgStore(db *pgxpool.Pool) *PgStore {
	return &PgStore{db: db}
}

func (s *PgStore) Save(ctx context.Context, n Notification) error {
	if n.RecipientID == "" {
		return ErrEmptyRecipient
	}

	const q = `
		INSERT INTO notifications (id, recipient_id, title, body, severity, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	if _, err := s.db.Exec(ctx, q, n.ID, n.RecipientID, n.Title, n.Body, string(n.Severity), n.CreatedAt); err != nil {
		return fmt.Errorf("insert notification %s: %w", n.ID, err)
	}
	return nil
}

func (s *PgStore) FindByRecipient(ctx context.Context, recipientID string, after cursor.Position, limit int) ([]Notification, error) {
	// Row-value comparison gives the exclusive (created_at, id) lower
	// bound in one index-friendly predicate. The zero position compares
	// below every stored row, selecting the full backlog.
	q := `
		SELECT id, recipient_id, title, body, severity, created_at
		FROM notifications
		WHERE recipient_id = $1 AND (created_at, id) > ($2, $3)
		ORDER BY created_at, id`
	args := []any{recipientID, after.At, after.ID}

	if limit > 0 {
		q += ` LIMIT $4`
		args = append(args, limit)
	}

	rows, err := s.db.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list notifications for %s: %w", recipientID, err)
	}
	defer rows.Close()

	var result []Notification
	for rows.Next() {
		var n Notification
		var severity string
		if err := rows.Scan(&n.ID, &n.RecipientID, &n.Title, &n.Body, &severity, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notification row: %w", err)
		}
		n.Severity = Severity(severity)
		n.CreatedAt = n.CreatedAt.UTC()
		result = append(result, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notification rows: %w", err)
	}

	return result, nil
}

func (s *PgStore) DeleteByID(ctx context.Context, recipientID, id string) error {
	const q = `DELETE FROM notifications WHERE recipient_id = $1 AND id = $2`

	if _, err := s.db.Exec(ctx, q, recipientID, id); err != nil {
		return fmt.Errorf("delete notification %s: %w", id, err)
	}
	return nil
}

func (s *PgStore) DeleteAllByRecipient(ctx context.Context, recipientID string) error {
	const q = `DELETE FROM notifications WHERE recipient_id = $1`

	if _, err := s.db.Exec(ctx, q, recipientID); err != nil {
		return fmt.Errorf("delete notifications for %s: %w", recipientID, err)
	}
	return nil
}
