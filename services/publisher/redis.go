package publisher

import (
	"context"

	apperrors "droqsdb/overseasreporter/pkg/errors"

	"github.com/redis/go-redis/v9"
)

// RedisPublisher implements Publisher using a Redis stream
type RedisPublisher struct {
	client          *redis.Client
	stream          string
	streamMaxLength int
}

// NewRedisPublisher creates a new Redis publisher writing to stream
func NewRedisPublisher(client *redis.Client, stream string, streamMaxLength int) *RedisPublisher {
	return &RedisPublisher{
		client:          client,
		stream:          stream,
		streamMaxLength: streamMaxLength,
	}
}

// Publish appends the message to the stream with key as its field name.
// The stream is capped approximately on every append.
func (p *RedisPublisher) Publish(ctx context.Context, key string, message []byte) error {
	args := &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]interface{}{
			key: message,
		},
	}
	if p.streamMaxLength > 0 {
		args.MaxLen = int64(p.streamMaxLength)
		args.Approx = true
	}
	if err := p.client.XAdd(ctx, args).Err(); err != nil {
		return apperrors.NewPublisher("redis", "stream append failed", err)
	}
	return nil
}

// TrimStreams trims the stream to exactly the configured maximum length
func (p *RedisPublisher) TrimStreams(ctx context.Context) error {
	if p.streamMaxLength <= 0 {
		return nil
	}
	if err := p.client.XTrimMaxLen(ctx, p.stream, int64(p.streamMaxLength)).Err(); err != nil {
		return apperrors.NewPublisher("redis", "stream trim failed", err)
	}
	return nil
}

// Close closes the Redis connection
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
