package storage

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a key doesn't exist or has expired
	ErrNotFound = errors.New("key not found")

	// ErrInvalidTTL is returned when a write carries a non-positive TTL
	ErrInvalidTTL = errors.New("ttl must be positive")
)

// KVRepository is the persistent key-value store behind the recovery caches.
// Every write carries its TTL explicitly.
type KVRepository interface {
	// Get returns the value for key. ok is false when the key is absent or expired.
	Get(ctx context.Context, key string) (value string, ok bool, err error)

	// Put stores value under key, replacing any previous value and expiry.
	Put(ctx context.Context, key, value string, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// ExpiredPruner is implemented by backends without native key expiry.
type ExpiredPruner interface {
	// DeleteExpired removes entries whose TTL elapsed before now
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// Pinger is implemented by backends that can report liveness.
type Pinger interface {
	Ping(ctx context.Context) error
}
