package delivery

import "errors"

var (
	// ErrTierUnavailable is returned by a tier whose backing
	// infrastructure is not configured or failed its liveness probe.
	// The strategy recovers by falling back to the next tier.
	ErrTierUnavailable = errors.New("delivery: transport tier unavailable")

	// ErrNoTierAccepted is returned when every configured tier refused
	// the event. With a terminal local tier in the chain this should
	// never happen.
	ErrNoTierAccepted = errors.New("delivery: no transport tier accepted the event")

	// ErrManagerClosed is returned when subscribing after shutdown.
	ErrManagerClosed = errors.New("delivery: subscription manager is closed")
)
