package cache

import (
	"errors"
	"strings"
	"time"
	"unicode"

	"github.com/bradfitz/gomemcache/memcache"
)

// MemcacheService implements CacheService using memcache
type MemcacheService struct {
	client *memcache.Client
	prefix string
}

// NewMemcacheService creates a new memcache service. Every key is stored
// under prefix.
func NewMemcacheService(serverAddr, prefix string) *MemcacheService {
	client := memcache.New(serverAddr)
	client.Timeout = 2 * time.Second
	return &MemcacheService{
		client: client,
		prefix: prefix,
	}
}

// key maps an arbitrary key onto memcache's key alphabet, which excludes
// whitespace and control characters.
func (m *MemcacheService) key(k string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return '_'
		}
		return r
	}, m.prefix+k)
}

// Get retrieves a value from memcache
func (m *MemcacheService) Get(key string) ([]byte, error) {
	item, err := m.client.Get(m.key(key))
	if errors.Is(err, memcache.ErrCacheMiss) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, err
	}
	return item.Value, nil
}

// Set stores a value in memcache with an expiration time. Memcache counts
// whole seconds, so any positive expiration lasts at least one.
func (m *MemcacheService) Set(key string, value []byte, expiration time.Duration) error {
	seconds := int32(expiration / time.Second)
	if expiration > 0 && seconds == 0 {
		seconds = 1
	}
	return m.client.Set(&memcache.Item{
		Key:        m.key(key),
		Value:      value,
		Expiration: seconds,
	})
}

// Delete removes a value from memcache
func (m *MemcacheService) Delete(key string) error {
	err := m.client.Delete(m.key(key))
	if errors.Is(err, memcache.ErrCacheMiss) {
		return nil
	}
	return err
}

// Ping checks that the memcache server is reachable
func (m *MemcacheService) Ping() error {
	return m.client.Ping()
}
