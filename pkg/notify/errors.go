package notify

import "errors"

var (
	// ErrRecipientNotFound is returned when a notification targets a user
	// the directory does not know about. It surfaces to the producer; a
	// notification must never be created for a nonexistent recipient.
	ErrRecipientNotFound = errors.New("notify: recipient not found")

	// ErrInvalidPayload is returned when a transport payload cannot be
	// decoded into an Envelope.
	ErrInvalidPayload = errors.New("notify: invalid envelope payload")

	// ErrEmptyRecipient is returned when a notification is created or
	// stored without a recipient.
	ErrEmptyRecipient = errors.New("notify: recipient ID is required")
)
