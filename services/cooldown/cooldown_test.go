package cooldown

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"droqsdb/overseasreporter/internal/extract"
	"droqsdb/overseasreporter/services/cache"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s := NewMemoryStore(30 * time.Second)
	s.now = func() time.Time { return now }

	recent, err := s.Recent(ctx, "Mexico")
	require.NoError(t, err)
	assert.False(t, recent)

	require.NoError(t, s.Mark(ctx, "Mexico"))

	now = now.Add(29 * time.Second)
	recent, _ = s.Recent(ctx, "Mexico")
	assert.True(t, recent)
	recent, _ = s.Recent(ctx, "Canada")
	assert.False(t, recent, "cooldown is per location")

	now = now.Add(time.Second)
	recent, _ = s.Recent(ctx, "Mexico")
	assert.False(t, recent)
}

// MockCache implements cache.CacheService in memory
type MockCache struct {
	mu     sync.Mutex
	values map[string][]byte
	ttls   map[string]time.Duration
	err    error
}

var _ cache.CacheService = (*MockCache)(nil)

func NewMockCache() *MockCache {
	return &MockCache{values: make(map[string][]byte), ttls: make(map[string]time.Duration)}
}

func (m *MockCache) Get(key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	v, ok := m.values[key]
	if !ok {
		return nil, cache.ErrMiss
	}
	return v, nil
}

func (m *MockCache) Set(key string, value []byte, expiration time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.values[key] = value
	m.ttls[key] = expiration
	return nil
}

func (m *MockCache) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

func TestCacheStore(t *testing.T) {
	ctx := context.Background()
	mc := NewMockCache()
	s := NewCacheStore(mc, 30*time.Second)

	recent, err := s.Recent(ctx, "United Kingdom")
	require.NoError(t, err)
	assert.False(t, recent)

	require.NoError(t, s.Mark(ctx, "United Kingdom"))
	assert.Equal(t, 30*time.Second, mc.ttls["cooldown:United Kingdom"])

	recent, err = s.Recent(ctx, "United Kingdom")
	require.NoError(t, err)
	assert.True(t, recent)

	// Expiry is the cache's job
	require.NoError(t, mc.Delete("cooldown:United Kingdom"))
	recent, _ = s.Recent(ctx, "United Kingdom")
	assert.False(t, recent)
}

func TestCacheStoreErrors(t *testing.T) {
	ctx := context.Background()
	mc := NewMockCache()
	mc.err = errors.New("connection refused")
	s := NewCacheStore(mc, 30*time.Second)

	_, err := s.Recent(ctx, "China")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")

	assert.Error(t, s.Mark(ctx, "China"))
}

func TestCacheStoreZeroInterval(t *testing.T) {
	ctx := context.Background()
	mc := NewMockCache()
	s := NewCacheStore(mc, 0)

	require.NoError(t, s.Mark(ctx, "China"))
	recent, _ := s.Recent(ctx, "China")
	assert.False(t, recent)
}

// This test requires a running redis instance
// If redis is not available, the test will be skipped
func TestRedisStore(t *testing.T) {
	ctx := context.Background()
	client := redis.NewClient(&redis.Options{Addr: "localhost:6379", DB: 0})
	defer client.Close()

	if _, err := client.Ping(ctx).Result(); err != nil {
		t.Skip("Redis is not available, skipping test")
	}

	var loc extract.Location = "Argentina"
	s := NewRedisStore(client, "overseas_test:", time.Second)
	client.Del(ctx, s.key(loc))

	recent, err := s.Recent(ctx, loc)
	require.NoError(t, err)
	assert.False(t, recent)

	require.NoError(t, s.Mark(ctx, loc))
	recent, err = s.Recent(ctx, loc)
	require.NoError(t, err)
	assert.True(t, recent)

	ttl, err := client.TTL(ctx, s.key(loc)).Result()
	require.NoError(t, err)
	assert.True(t, ttl > 0 && ttl <= time.Second)

	client.Del(ctx, s.key(loc))
}
