package delivery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/ootdhub/pushkit/pkg/logger"
	"github.com/ootdhub/pushkit/pkg/notify"
)

// BrokerRelay consumes the notification topic and forwards each event
// to this process's local sink. Every process runs its own relay under
// a unique consumer group, so the broker fans each event out to all
// processes and the sink drops events whose recipient has no local
// connection here.
type BrokerRelay struct {
	reader *kafka.Reader
	sink   LocalSink
	logger *slog.Logger
}

// BrokerRelayOption configures a BrokerRelay.
type BrokerRelayOption func(*BrokerRelay)

// WithBrokerRelayLogger sets the logger for the BrokerRelay.
func WithBrokerRelayLogger(log *slog.Logger) BrokerRelayOption {
	return func(r *BrokerRelay) {
		r.logger = log
	}
}

// NewBrokerRelay creates the inbound relay for the broker tier. The
// consumer group ID is suffixed with a fresh UUID: group semantics give
// per-recipient ordering within a partition while the unique suffix
// keeps processes from splitting the stream between themselves.
func NewBrokerRelay(cfg BrokerConfig, sink LocalSink, opts ...BrokerRelayOption) *BrokerRelay {
	r := &BrokerRelay{
		sink:   sink,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(r)
	}

	if len(cfg.Brokers) > 0 {
		r.reader = kafka.NewReader(kafka.ReaderConfig{
			Brokers:  cfg.Brokers,
			Topic:    cfg.Topic,
			GroupID:  fmt.Sprintf("%s-%s", cfg.GroupPrefix, uuid.NewString()),
			MinBytes: 1,
			MaxBytes: 10 << 20,
		})
	}

	return r
}

// Run consumes until the context is cancelled. An undecodable message
// is logged and skipped; it must not wedge the relay. Returns nil on
// clean shutdown.
func (r *BrokerRelay) Run(ctx context.Context) error {
	if r.reader == nil {
		<-ctx.Done()
		return nil
	}

	for {
		msg, err := r.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, kafka.ErrGroupClosed) {
				return nil
			}
			return fmt.Errorf("broker relay read: %w", err)
		}

		env, err := notify.DecodeEnvelope(msg.Value)
		if err != nil {
			r.logger.LogAttrs(ctx, slog.LevelWarn, "broker relay skipping undecodable message",
				slog.String("key", string(msg.Key)),
				logger.Error(err),
			)
			continue
		}

		r.sink.DeliverLocal(env.RecipientID, env)
	}
}

// Close releases the underlying reader.
func (r *BrokerRelay) Close() error {
	if r.reader == nil {
		return nil
	}
	return r.reader.Close()
}
