package delivery

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// PubSubConfig configures the keyed-broadcast tier.
type PubSubConfig struct {
	ChannelPrefix string `env:"NOTIFY_CHANNEL_PREFIX" envDefault:"notify"` // Prefix for per-recipient channel names.
}

// channelName derives the deterministic per-recipient channel name used
// by both the publishing tier and the subscription manager.
func channelName(prefix, recipientID string) string {
	return prefix + ":" + recipientID
}

// PubSubTier publishes through a keyed channel broadcast backed by
// Redis. Availability is a cheap PING probed on every publish call
// rather than cached, so a transiently recovered server is used again
// immediately.
type PubSubTier struct {
	client redis.UniversalClient
	prefix string
	logger *slog.Logger
}

// PubSubTierOption configures a PubSubTier.
type PubSubTierOption func(*PubSubTier)

// WithPubSubTierLogger sets the logger for the PubSubTier.
func WithPubSubTierLogger(log *slog.Logger) PubSubTierOption {
	return func(t *PubSubTier) {
		t.logger = log
	}
}

// NewPubSubTier creates the pub/sub tier. A nil client leaves the tier
// unavailable, as in deployments running without Redis.
func NewPubSubTier(client redis.UniversalClient, cfg PubSubConfig, opts ...PubSubTierOption) *PubSubTier {
	t := &PubSubTier{
		client: client,
		prefix: cfg.ChannelPrefix,
		logger: slog.Default(),
	}
	if t.prefix == "" {
		t.prefix = "notify"
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

func (t *PubSubTier) Name() string { return "pubsub" }

// Available probes the backing server with a PING. A probe failure only
// marks this publish attempt; the next call probes again.
func (t *PubSubTier) Available(ctx context.Context) bool {
	if t.client == nil {
		return false
	}
	return t.client.Ping(ctx).Err() == nil
}

// Publish broadcasts the payload on the recipient's channel. Processes
// holding a subscription for the recipient pick it up; everyone else
// never sees it.
func (t *PubSubTier) Publish(ctx context.Context, recipientID string, payload []byte) error {
	if t.client == nil {
		return ErrTierUnavailable
	}
	if err := t.client.Publish(ctx, channelName(t.prefix, recipientID), payload).Err(); err != nil {
		return fmt.Errorf("pubsub publish for %s: %w", recipientID, err)
	}
	return nil
}

// RedisPubSub adapts a go-redis client to the PubSub port used by the
// SubscriptionManager.
type RedisPubSub struct {
	client redis.UniversalClient
}

// NewRedisPubSub creates the adapter. The client's lifecycle stays with
// the caller.
func NewRedisPubSub(client redis.UniversalClient) *RedisPubSub {
	return &RedisPubSub{client: client}
}

// Subscribe opens one subscription on the channel and confirms it with
// the server before returning, so a successful return means messages
// published afterwards will be observed.
func (p *RedisPubSub) Subscribe(ctx context.Context, channel string) (Subscription, error) {
	ps := p.client.Subscribe(ctx, channel)

	// Wait for the server's subscription confirmation.
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("subscribe %s: %w", channel, err)
	}

	sub := &redisSubscription{
		ps:       ps,
		messages: make(chan []byte),
	}
	go sub.pump()

	return sub, nil
}

type redisSubscription struct {
	ps       *redis.PubSub
	messages chan []byte
}

// pump converts go-redis messages into raw payloads. It exits, closing
// the message channel, when the underlying subscription is closed.
func (s *redisSubscription) pump() {
	defer close(s.messages)
	for msg := range s.ps.Channel() {
		s.messages <- []byte(msg.Payload)
	}
}

func (s *redisSubscription) Messages() <-chan []byte {
	return s.messages
}

func (s *redisSubscription) Close() error {
	return s.ps.Close()
}
