package delivery

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ootdhub/pushkit/pkg/logger"
	"github.com/ootdhub/pushkit/pkg/notify"
)

// PubSub is the port the subscription manager drives. RedisPubSub is
// the production implementation.
type PubSub interface {
	Subscribe(ctx context.Context, channel string) (Subscription, error)
}

// Subscription is one open listener on a recipient channel. Messages is
// closed when the subscription is closed.
type Subscription interface {
	Messages() <-chan []byte
	Close() error
}

// SubscriptionManager keeps this process subscribed to exactly the
// recipient channels it has local connections for. The registry's
// presence hooks drive it: first local connection subscribes, last
// disconnect unsubscribes, and repeated connects for the same recipient
// share the single subscription.
type SubscriptionManager struct {
	pubsub PubSub
	sink   LocalSink
	prefix string
	logger *slog.Logger

	mu     sync.Mutex
	subs   map[string]Subscription
	closed bool
	wg     sync.WaitGroup
}

// SubscriptionManagerOption configures a SubscriptionManager.
type SubscriptionManagerOption func(*SubscriptionManager)

// WithSubscriptionLogger sets the logger for the SubscriptionManager.
func WithSubscriptionLogger(log *slog.Logger) SubscriptionManagerOption {
	return func(m *SubscriptionManager) {
		m.logger = log
	}
}

// WithSubscriptionChannelPrefix overrides the channel-name prefix. It
// must match the publishing tier's PubSubConfig.
func WithSubscriptionChannelPrefix(prefix string) SubscriptionManagerOption {
	return func(m *SubscriptionManager) {
		if prefix != "" {
			m.prefix = prefix
		}
	}
}

// NewSubscriptionManager creates a manager forwarding inbound messages
// to the local sink.
func NewSubscriptionManager(pubsub PubSub, sink LocalSink, opts ...SubscriptionManagerOption) *SubscriptionManager {
	m := &SubscriptionManager{
		pubsub: pubsub,
		sink:   sink,
		prefix: "notify",
		logger: slog.Default(),
		subs:   make(map[string]Subscription),
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Subscribe opens the recipient's channel listener if none exists yet.
// Idempotent: concurrent connects for the same recipient end up with
// exactly one subscription.
func (m *SubscriptionManager) Subscribe(recipientID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrManagerClosed
	}
	if _, exists := m.subs[recipientID]; exists {
		return nil
	}

	sub, err := m.pubsub.Subscribe(context.Background(), channelName(m.prefix, recipientID))
	if err != nil {
		return fmt.Errorf("subscribe recipient %s: %w", recipientID, err)
	}

	m.subs[recipientID] = sub
	m.wg.Add(1)
	go m.forward(recipientID, sub)

	return nil
}

// Unsubscribe drops the recipient's listener if present. Idempotent;
// called when the registry tears down the recipient's last local
// channel.
func (m *SubscriptionManager) Unsubscribe(recipientID string) {
	m.mu.Lock()
	sub, exists := m.subs[recipientID]
	delete(m.subs, recipientID)
	m.mu.Unlock()

	if exists {
		_ = sub.Close()
	}
}

// Subscribed reports whether the recipient currently has a listener on
// this process.
func (m *SubscriptionManager) Subscribed(recipientID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, exists := m.subs[recipientID]
	return exists
}

// SubscribeHook adapts Subscribe to the registry's presence-hook
// signature; a failed subscribe is logged, never raised, because the
// durable store still covers the recipient via replay.
func (m *SubscriptionManager) SubscribeHook() func(recipientID string) {
	return func(recipientID string) {
		if err := m.Subscribe(recipientID); err != nil {
			m.logger.LogAttrs(context.Background(), slog.LevelError, "failed to open recipient subscription",
				logger.UserID(recipientID),
				logger.Error(err),
			)
		}
	}
}

// UnsubscribeHook adapts Unsubscribe to the registry's presence-hook
// signature.
func (m *SubscriptionManager) UnsubscribeHook() func(recipientID string) {
	return m.Unsubscribe
}

// Close drops every subscription and waits for the forwarders to drain.
func (m *SubscriptionManager) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	subs := make([]Subscription, 0, len(m.subs))
	for _, sub := range m.subs {
		subs = append(subs, sub)
	}
	clear(m.subs)
	m.mu.Unlock()

	for _, sub := range subs {
		_ = sub.Close()
	}

	m.wg.Wait()
	return nil
}

// forward pumps one subscription into the local sink until it closes.
// Undecodable payloads are logged and skipped.
func (m *SubscriptionManager) forward(recipientID string, sub Subscription) {
	defer m.wg.Done()

	for payload := range sub.Messages() {
		env, err := notify.DecodeEnvelope(payload)
		if err != nil {
			m.logger.LogAttrs(context.Background(), slog.LevelWarn, "skipping undecodable pubsub message",
				logger.UserID(recipientID),
				logger.Error(err),
			)
			continue
		}
		m.sink.DeliverLocal(env.RecipientID, env)
	}
}
