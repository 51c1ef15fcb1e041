package server

import "context"

// Poller defines the minimal warmer behavior needed by the server.
type Poller interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Ready() bool
}
