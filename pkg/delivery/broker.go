package delivery

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

// BrokerConfig configures the Kafka-backed broker tier and its inbound
// relay.
type BrokerConfig struct {
	Brokers      []string      `env:"KAFKA_BROKERS" envSeparator:","`                                // Broker addresses; empty leaves the tier unconfigured and therefore unavailable.
	Topic        string        `env:"KAFKA_NOTIFICATIONS_TOPIC" envDefault:"notification-events"`    // Topic carrying notification envelopes.
	WriteTimeout time.Duration `env:"KAFKA_WRITE_TIMEOUT" envDefault:"5s"`                           // Upper bound on one publish attempt before the strategy falls back.
	GroupPrefix  string        `env:"KAFKA_RELAY_GROUP_PREFIX" envDefault:"pushkit-relay"`           // Prefix for the relay's per-process consumer group.
}

// BrokerTier publishes through a distributed log. Messages are keyed by
// recipient so the hash balancer keeps each recipient's events on one
// partition, preserving their relative order end to end.
type BrokerTier struct {
	writer *kafka.Writer
	logger *slog.Logger
}

// BrokerTierOption configures a BrokerTier.
type BrokerTierOption func(*BrokerTier)

// WithBrokerTierLogger sets the logger for the BrokerTier.
func WithBrokerTierLogger(log *slog.Logger) BrokerTierOption {
	return func(t *BrokerTier) {
		t.logger = log
	}
}

// NewBrokerTier creates the broker tier. With no broker addresses
// configured the tier is permanently unavailable and the strategy skips
// it, which is how deployments without Kafka run.
func NewBrokerTier(cfg BrokerConfig, opts ...BrokerTierOption) *BrokerTier {
	t := &BrokerTier{
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(t)
	}

	if len(cfg.Brokers) > 0 {
		t.writer = &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        cfg.Topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			WriteTimeout: cfg.WriteTimeout,
		}
	}

	return t
}

func (t *BrokerTier) Name() string { return "broker" }

// Available reports whether a client handle is configured. Send errors
// are surfaced by Publish itself; there is no cheaper probe for a
// distributed log than attempting the write.
func (t *BrokerTier) Available(ctx context.Context) bool {
	return t.writer != nil
}

// Publish writes one message keyed by recipient and waits for the
// broker's acceptance within the configured write timeout. A reported
// failure triggers strategy fallback.
func (t *BrokerTier) Publish(ctx context.Context, recipientID string, payload []byte) error {
	if t.writer == nil {
		return ErrTierUnavailable
	}

	msg := kafka.Message{
		Key:   []byte(recipientID),
		Value: payload,
	}
	if err := t.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("broker publish for %s: %w", recipientID, err)
	}
	return nil
}

// Close releases the underlying writer.
func (t *BrokerTier) Close() error {
	if t.writer == nil {
		return nil
	}
	return t.writer.Close()
}
