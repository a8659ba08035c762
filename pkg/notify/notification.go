package notify

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/ootdhub/pushkit/pkg/cursor"
)

// Severity classifies how prominently a notification should be surfaced.
type Severity string

const (
	SeverityInfo  Severity = "info"
	SeverityWarn  Severity = "warn"
	SeverityError Severity = "error"
)

// Valid reports whether the severity is one of the known levels.
func (s Severity) Valid() bool {
	switch s {
	case SeverityInfo, SeverityWarn, SeverityError:
		return true
	}
	return false
}

// Notification is the immutable record of one server-generated event.
// It is persisted to the durable store before any transport publish is
// attempted; once created it is never mutated.
type Notification struct {
	ID          string    `json:"id"`
	RecipientID string    `json:"recipient_id"`
	Title       string    `json:"title"`
	Body        string    `json:"body"`
	Severity    Severity  `json:"severity"`
	CreatedAt   time.Time `json:"created_at"`
}

// Position returns the notification's point in its recipient's stream.
func (n Notification) Position() cursor.Position {
	return cursor.Position{At: n.CreatedAt, ID: n.ID}
}

// Envelope frames the notification for the wire, attaching the replay
// cursor clients echo back on reconnect.
func (n Notification) Envelope() Envelope {
	return Envelope{
		Cursor:      cursor.Encode(n.CreatedAt, n.ID),
		RecipientID: n.RecipientID,
		Title:       n.Title,
		Body:        n.Body,
		Severity:    n.Severity,
		CreatedAt:   n.CreatedAt,
	}
}

// Envelope is the serialized form published to transports and streamed
// to connected clients.
type Envelope struct {
	Cursor      string    `json:"cursor"`
	RecipientID string    `json:"recipient_id"`
	Title       string    `json:"title"`
	Body        string    `json:"body"`
	Severity    Severity  `json:"severity"`
	CreatedAt   time.Time `json:"created_at"`
}

// Marshal encodes the envelope as JSON.
func (e Envelope) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// DecodeEnvelope parses a wire payload back into an Envelope.
func DecodeEnvelope(payload []byte) (Envelope, error) {
	var e Envelope
	if err := json.Unmarshal(payload, &e); err != nil {
		return Envelope{}, errors.Join(ErrInvalidPayload, err)
	}
	if e.RecipientID == "" {
		return Envelope{}, ErrInvalidPayload
	}
	return e, nil
}
