package delivery

import (
	"context"

	"github.com/ootdhub/pushkit/pkg/notify"
)

// Tier is one candidate transport for cross-process event fanout.
// Implementations publish a serialized envelope towards a recipient and
// report their own availability; the Strategy probes and picks exactly
// one tier per publish call.
type Tier interface {
	// Name identifies the tier in logs.
	Name() string

	// Available reports whether the tier can accept a publish right
	// now. It is probed fresh on every publish call; implementations
	// must not assume the answer stays valid between calls.
	Available(ctx context.Context) bool

	// Publish sends the payload towards the recipient. An error means
	// the event was definitively not accepted and the caller should
	// fall back to the next tier.
	Publish(ctx context.Context, recipientID string, payload []byte) error
}

// LocalSink receives events that have arrived on this process, either
// straight from the local tier or via an inbound relay. registry.Registry
// is the production implementation.
type LocalSink interface {
	DeliverLocal(recipientID string, env notify.Envelope)
}

// LocalSinkFunc adapts a plain function to the LocalSink interface.
// Handy at composition time when the sink must be bound after the
// consumer is constructed.
type LocalSinkFunc func(recipientID string, env notify.Envelope)

func (f LocalSinkFunc) DeliverLocal(recipientID string, env notify.Envelope) {
	f(recipientID, env)
}
