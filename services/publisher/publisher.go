package publisher

import "context"

// Publisher mirrors reported batches to a message stream
type Publisher interface {
	// Publish appends a message to the stream under key
	Publish(ctx context.Context, key string, message []byte) error

	// TrimStreams trims the stream to the configured maximum length
	TrimStreams(ctx context.Context) error

	// Close closes the publisher connection
	Close() error
}
