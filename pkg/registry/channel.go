package registry

import (
	"sync"
	"time"

	"github.com/ootdhub/pushkit/pkg/notify"
)

// Channel is one live push connection for a recipient. The registry is
// its exclusive owner: it is created by Register, written to by
// DeliverLocal/Replay, and torn down on the first write failure, on
// Unregister, or on registry shutdown.
//
// Writes are non-blocking with a bounded queue; a full queue is treated
// as a dead client and fails the write, which tears the channel down.
type Channel struct {
	recipientID string
	createdAt   time.Time
	events      chan notify.Envelope
	done        chan struct{}
	closeOnce   sync.Once
}

func newChannel(recipientID string, buffer int) *Channel {
	return &Channel{
		recipientID: recipientID,
		createdAt:   time.Now().UTC(),
		events:      make(chan notify.Envelope, buffer),
		done:        make(chan struct{}),
	}
}

// RecipientID returns the identity this channel pushes to.
func (c *Channel) RecipientID() string {
	return c.recipientID
}

// CreatedAt returns when the connection was accepted.
func (c *Channel) CreatedAt() time.Time {
	return c.createdAt
}

// Events returns the outbound envelope queue. Consumers must also watch
// Done; the queue is never closed so buffered envelopes stay readable
// during teardown.
func (c *Channel) Events() <-chan notify.Envelope {
	return c.events
}

// Done is closed when the channel is torn down.
func (c *Channel) Done() <-chan struct{} {
	return c.done
}

// Close tears the channel down. Idempotent.
func (c *Channel) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

// send enqueues an envelope without blocking. It reports false when the
// channel is closed or its queue is full; either way the write failed.
func (c *Channel) send(env notify.Envelope) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.events <- env:
		return true
	case <-c.done:
		return false
	default:
		return false
	}
}
