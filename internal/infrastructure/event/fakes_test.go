package event

import (
	"context"
	"sync"
	"time"
)

func nowDate() time.Time {
	now := time.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// fakeIdempotencyStore is a map-backed store without TTL handling
type fakeIdempotencyStore struct {
	mu   sync.Mutex
	seen map[string]bool
	err  error
}

func newFakeIdempotencyStore() *fakeIdempotencyStore {
	return &fakeIdempotencyStore{seen: make(map[string]bool)}
}

func (s *fakeIdempotencyStore) MarkProcessed(_ context.Context, key string, _ time.Duration) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seen[key] {
		return false, nil
	}
	s.seen[key] = true
	return true, nil
}

func (s *fakeIdempotencyStore) IsProcessed(_ context.Context, key string) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seen[key], nil
}

func (s *fakeIdempotencyStore) Close() error {
	return nil
}
