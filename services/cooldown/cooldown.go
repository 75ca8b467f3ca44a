// Package cooldown remembers when each location was last reported, so a
// location is not uploaded again within the cooldown interval.
package cooldown

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"droqsdb/overseasreporter/internal/extract"
	apperrors "droqsdb/overseasreporter/pkg/errors"
	"droqsdb/overseasreporter/services/cache"
)

const keyPrefix = "cooldown:"

// Store records successful reports per location
type Store interface {
	// Recent reports whether loc was marked within the cooldown interval
	Recent(ctx context.Context, loc extract.Location) (bool, error)

	// Mark records a successful report for loc now
	Mark(ctx context.Context, loc extract.Location) error
}

func key(loc extract.Location) string {
	return keyPrefix + string(loc)
}

// MemoryStore keeps marks in process memory
type MemoryStore struct {
	mu       sync.Mutex
	interval time.Duration
	marks    map[extract.Location]time.Time
	now      func() time.Time
}

// NewMemoryStore creates an in-process store
func NewMemoryStore(interval time.Duration) *MemoryStore {
	return &MemoryStore{
		interval: interval,
		marks:    make(map[extract.Location]time.Time),
		now:      time.Now,
	}
}

// Recent reports whether loc was marked within the interval
func (s *MemoryStore) Recent(_ context.Context, loc extract.Location) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	at, ok := s.marks[loc]
	if !ok {
		return false, nil
	}
	if s.now().Sub(at) >= s.interval {
		delete(s.marks, loc)
		return false, nil
	}
	return true, nil
}

// Mark records a report for loc
func (s *MemoryStore) Mark(_ context.Context, loc extract.Location) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.marks[loc] = s.now()
	return nil
}

// CacheStore keeps marks in a CacheService and lets its expiry end the
// cooldown
type CacheStore struct {
	cache    cache.CacheService
	interval time.Duration
}

// NewCacheStore creates a store on top of a cache service
func NewCacheStore(c cache.CacheService, interval time.Duration) *CacheStore {
	return &CacheStore{cache: c, interval: interval}
}

// Recent reports whether the mark for loc is still cached
func (s *CacheStore) Recent(_ context.Context, loc extract.Location) (bool, error) {
	_, err := s.cache.Get(key(loc))
	if errors.Is(err, cache.ErrMiss) {
		return false, nil
	}
	if err != nil {
		return false, apperrors.NewCooldown("cache", "lookup failed", err)
	}
	return true, nil
}

// Mark caches a mark for loc that expires after the interval
func (s *CacheStore) Mark(_ context.Context, loc extract.Location) error {
	if s.interval <= 0 {
		return nil
	}
	value := []byte(strconv.FormatInt(time.Now().Unix(), 10))
	if err := s.cache.Set(key(loc), value, s.interval); err != nil {
		return apperrors.NewCooldown("cache", "mark failed", err)
	}
	return nil
}
