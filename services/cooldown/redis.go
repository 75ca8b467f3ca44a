package cooldown

import (
	"context"
	"time"

	"droqsdb/overseasreporter/internal/extract"
	apperrors "droqsdb/overseasreporter/pkg/errors"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps marks as expiring redis keys
type RedisStore struct {
	client   *redis.Client
	prefix   string
	interval time.Duration
}

// NewRedisStore creates a redis-backed store. Keys are namespaced by prefix.
func NewRedisStore(client *redis.Client, prefix string, interval time.Duration) *RedisStore {
	return &RedisStore{client: client, prefix: prefix, interval: interval}
}

func (s *RedisStore) key(loc extract.Location) string {
	return s.prefix + key(loc)
}

// Recent reports whether the key for loc still exists
func (s *RedisStore) Recent(ctx context.Context, loc extract.Location) (bool, error) {
	n, err := s.client.Exists(ctx, s.key(loc)).Result()
	if err != nil {
		return false, apperrors.NewCooldown("redis", "lookup failed", err)
	}
	return n > 0, nil
}

// Mark sets the key for loc with the interval as its TTL
func (s *RedisStore) Mark(ctx context.Context, loc extract.Location) error {
	if s.interval <= 0 {
		return nil
	}
	if err := s.client.Set(ctx, s.key(loc), time.Now().Unix(), s.interval).Err(); err != nil {
		return apperrors.NewCooldown("redis", "mark failed", err)
	}
	return nil
}
