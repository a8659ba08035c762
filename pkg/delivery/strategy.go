package delivery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ootdhub/pushkit/pkg/logger"
)

// Strategy picks exactly one transport tier per publish call. Tiers are
// tried in the configured order; a tier that reports unavailable or
// fails its single publish attempt is skipped and the next tier gets the
// event. No tier is retried within one call, and availability is probed
// fresh every time so a recovered tier is picked up immediately.
type Strategy struct {
	tiers  []Tier
	logger *slog.Logger
}

// StrategyOption configures a Strategy.
type StrategyOption func(*Strategy)

// WithStrategyLogger sets the logger for the Strategy.
func WithStrategyLogger(log *slog.Logger) StrategyOption {
	return func(s *Strategy) {
		s.logger = log
	}
}

// NewStrategy creates a delivery strategy over an ordered tier chain.
// Conventionally the chain is broker, pub/sub, local, with the local
// tier last so the chain degrades to single-process delivery instead of
// losing the notification path entirely.
func NewStrategy(tiers []Tier, opts ...StrategyOption) *Strategy {
	s := &Strategy{
		tiers:  tiers,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Publish hands the payload to the first tier that accepts it. The
// returned error is non-nil only if every tier refused; callers that
// include a terminal local tier can treat it as diagnostic.
func (s *Strategy) Publish(ctx context.Context, recipientID string, payload []byte) error {
	var errs []error

	for _, tier := range s.tiers {
		if !tier.Available(ctx) {
			s.logger.LogAttrs(ctx, slog.LevelDebug, "transport tier unavailable, falling back",
				slog.String("tier", tier.Name()),
				logger.UserID(recipientID),
			)
			errs = append(errs, fmt.Errorf("%s: %w", tier.Name(), ErrTierUnavailable))
			continue
		}

		if err := tier.Publish(ctx, recipientID, payload); err != nil {
			s.logger.LogAttrs(ctx, slog.LevelWarn, "transport tier publish failed, falling back",
				slog.String("tier", tier.Name()),
				logger.UserID(recipientID),
				logger.Error(err),
			)
			errs = append(errs, fmt.Errorf("%s: %w", tier.Name(), err))
			continue
		}

		s.logger.LogAttrs(ctx, slog.LevelDebug, "notification published",
			slog.String("tier", tier.Name()),
			logger.UserID(recipientID),
		)
		return nil
	}

	return errors.Join(ErrNoTierAccepted, errors.Join(errs...))
}
