package memory

import (
	"context"
	"sync"
	"time"

	"github.com/vietddude/schedrecovery/internal/infra/storage"
)

type entry struct {
	value     string
	expiresAt time.Time
}

// KVStore is a process-local KVRepository with lazy expiry.
type KVStore struct {
	entries map[string]entry
	now     func() time.Time
	mu      sync.RWMutex
}

var (
	_ storage.KVRepository  = (*KVStore)(nil)
	_ storage.ExpiredPruner = (*KVStore)(nil)
	_ storage.Pinger        = (*KVStore)(nil)
)

func NewKVStore() *KVStore {
	return &KVStore{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// WithClock overrides the time source, used by tests.
func (s *KVStore) WithClock(now func() time.Time) *KVStore {
	s.now = now
	return s
}

func (s *KVStore) Get(ctx context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[key]
	if !ok || !s.now().Before(e.expiresAt) {
		return "", false, nil
	}
	return e.value, true, nil
}

func (s *KVStore) Put(ctx context.Context, key, value string, ttl time.Duration) error {
	if ttl <= 0 {
		return storage.ErrInvalidTTL
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = entry{value: value, expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *KVStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

func (s *KVStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for k, e := range s.entries {
		if !now.Before(e.expiresAt) {
			delete(s.entries, k)
			n++
		}
	}
	return n, nil
}

func (s *KVStore) Ping(ctx context.Context) error {
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (s *KVStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
