package registry

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/ootdhub/pushkit/pkg/cursor"
	"github.com/ootdhub/pushkit/pkg/logger"
	"github.com/ootdhub/pushkit/pkg/notify"
)

// Registry tracks the live push channels of this process, keyed by
// recipient. A recipient may hold several channels at once (multiple
// tabs or devices); each is owned exclusively by the registry.
//
// The registry never raises to publishers: a failed channel write is
// logged and tears down that one channel only.
type Registry struct {
	store       notify.Store
	buffer      int
	replayBatch int
	logger      *slog.Logger

	mu    sync.RWMutex
	conns map[string][]*Channel

	// Presence hooks fire on the 0->1 and 1->0 connection-count
	// transitions for a recipient, under the registry lock so the
	// transitions are observed in order. The subscription manager uses
	// them to scope cross-process fanout to connected recipients.
	onFirst func(recipientID string)
	onLast  func(recipientID string)
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger for the Registry.
func WithLogger(log *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = log
	}
}

// WithBufferSize bounds each channel's outbound queue. A full queue on
// write marks the channel dead. Default is 256.
func WithBufferSize(n int) Option {
	return func(r *Registry) {
		if n > 0 {
			r.buffer = n
		}
	}
}

// WithReplayBatchSize sets how many events Replay reads from the store
// per page. Default is 100.
func WithReplayBatchSize(n int) Option {
	return func(r *Registry) {
		if n > 0 {
			r.replayBatch = n
		}
	}
}

// WithPresenceHooks registers callbacks for a recipient's first
// connection and last disconnection on this process. Hooks must not call
// back into the registry.
func WithPresenceHooks(onFirst, onLast func(recipientID string)) Option {
	return func(r *Registry) {
		r.onFirst = onFirst
		r.onLast = onLast
	}
}

// New creates a connection registry. The store is read during Replay;
// live delivery never touches it.
func New(store notify.Store, opts ...Option) *Registry {
	r := &Registry{
		store:       store,
		buffer:      256,
		replayBatch: 100,
		logger:      slog.Default(),
		conns:       make(map[string][]*Channel),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Register creates and tracks a new push channel for the recipient.
// It always succeeds; the caller hands the channel to its transport
// (e.g. an HTTP streaming response) and must Unregister it on disconnect.
func (r *Registry) Register(recipientID string) *Channel {
	ch := newChannel(recipientID, r.buffer)

	r.mu.Lock()
	defer r.mu.Unlock()

	r.conns[recipientID] = append(r.conns[recipientID], ch)
	if len(r.conns[recipientID]) == 1 && r.onFirst != nil {
		r.onFirst(recipientID)
	}

	return ch
}

// Unregister removes one channel and closes it. Removing the last
// channel for a recipient fires the onLast presence hook.
func (r *Registry) Unregister(recipientID string, ch *Channel) {
	ch.Close()

	r.mu.Lock()
	defer r.mu.Unlock()

	channels := r.conns[recipientID]
	idx := slices.Index(channels, ch)
	if idx < 0 {
		return
	}

	channels = slices.Delete(channels, idx, idx+1)
	if len(channels) == 0 {
		delete(r.conns, recipientID)
		if r.onLast != nil {
			r.onLast(recipientID)
		}
	} else {
		r.conns[recipientID] = channels
	}
}

// DeliverLocal writes the envelope to every live channel the recipient
// has on this process. No channels is a silent no-op: the durable store
// remains the system of record and the client catches up via replay.
// A write failure tears down only the failing channel.
func (r *Registry) DeliverLocal(recipientID string, env notify.Envelope) {
	r.mu.RLock()
	channels := slices.Clone(r.conns[recipientID])
	r.mu.RUnlock()

	for _, ch := range channels {
		if !ch.send(env) {
			r.logger.LogAttrs(context.Background(), slog.LevelWarn, "push channel write failed, tearing down",
				logger.UserID(recipientID),
				slog.Time("channel_created_at", ch.CreatedAt()),
			)
			r.Unregister(recipientID, ch)
		}
	}
}

// Replay writes every stored event after sinceCursor to the channel, in
// ascending order, paging through the durable store. A malformed or
// empty cursor selects the full backlog. Replay either completes or
// fails closed: any store error or write failure closes the channel so
// the client reconnects instead of resuming with a gap.
func (r *Registry) Replay(ctx context.Context, recipientID, sinceCursor string, ch *Channel) error {
	pos := cursor.DecodeOrZero(sinceCursor)

	for {
		batch, err := r.store.FindByRecipient(ctx, recipientID, pos, r.replayBatch)
		if err != nil {
			r.Unregister(recipientID, ch)
			return fmt.Errorf("replay for %s: %w", recipientID, err)
		}

		for _, n := range batch {
			if !ch.send(n.Envelope()) {
				r.Unregister(recipientID, ch)
				return ErrChannelClosed
			}
		}

		if len(batch) < r.replayBatch {
			return nil
		}
		pos = batch[len(batch)-1].Position()
	}
}

// Connections returns how many live channels the recipient has here.
func (r *Registry) Connections(recipientID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns[recipientID])
}

// Close tears down every channel. Presence hooks do not fire; shutdown
// of tier subscriptions is the subscription manager's own concern.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, channels := range r.conns {
		for _, ch := range channels {
			ch.Close()
		}
	}
	clear(r.conns)
}
