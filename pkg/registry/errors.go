package registry

import "errors"

var (
	// ErrChannelClosed is returned when a replay target is torn down
	// before the backlog could be written to it.
	ErrChannelClosed = errors.New("registry: channel closed")
)
