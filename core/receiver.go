package core

import "context"

// Receiver pulls inbound events from the platform until ctx is cancelled.
type Receiver interface {
	Start(ctx context.Context) error
}
