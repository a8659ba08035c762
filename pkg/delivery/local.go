package delivery

import (
	"context"
	"log/slog"

	"github.com/ootdhub/pushkit/pkg/logger"
	"github.com/ootdhub/pushkit/pkg/notify"
)

// LocalTier delivers within the current process only. It is the
// terminal fallback of the strategy chain: always available, and its
// Publish never returns an error. Any internal failure is logged and
// absorbed because nothing sits behind it to fall back to.
type LocalTier struct {
	sink   LocalSink
	logger *slog.Logger
}

// LocalTierOption configures a LocalTier.
type LocalTierOption func(*LocalTier)

// WithLocalTierLogger sets the logger for the LocalTier.
func WithLocalTierLogger(log *slog.Logger) LocalTierOption {
	return func(t *LocalTier) {
		t.logger = log
	}
}

// NewLocalTier creates the in-process tier over the local sink.
func NewLocalTier(sink LocalSink, opts ...LocalTierOption) *LocalTier {
	t := &LocalTier{
		sink:   sink,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

func (t *LocalTier) Name() string { return "local" }

func (t *LocalTier) Available(ctx context.Context) bool { return true }

// Publish decodes the envelope and hands it straight to the local sink.
// The nil return is unconditional; the last line of defense must not
// fail.
func (t *LocalTier) Publish(ctx context.Context, recipientID string, payload []byte) error {
	defer func() {
		if rec := recover(); rec != nil {
			t.logger.LogAttrs(ctx, slog.LevelError, "local tier panicked during delivery",
				logger.UserID(recipientID),
				slog.Any("panic", rec),
			)
		}
	}()

	env, err := notify.DecodeEnvelope(payload)
	if err != nil {
		t.logger.LogAttrs(ctx, slog.LevelError, "local tier received undecodable payload",
			logger.UserID(recipientID),
			logger.Error(err),
		)
		return nil
	}

	t.sink.DeliverLocal(recipientID, env)
	return nil
}
