package output

import "context"

// FactStream is a long-lived server push channel. Each message is one raw
// JSON envelope.
type FactStream interface {
	// Open starts the channel. Messages are delivered until ctx is
	// cancelled or the transport fails; the error channel then receives at
	// most one error and both channels are closed.
	Open(ctx context.Context) (<-chan []byte, <-chan error, error)
	Close() error
}
