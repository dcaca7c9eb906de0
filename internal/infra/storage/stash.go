package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Stash binds a KVRepository to a single TTL.
type Stash struct {
	repo KVRepository
	ttl  time.Duration
}

func NewStash(repo KVRepository, ttl time.Duration) *Stash {
	return &Stash{repo: repo, ttl: ttl}
}

// TTL returns the expiry applied to every write.
func (s *Stash) TTL() time.Duration {
	return s.ttl
}

// Put stores value with the stash TTL.
func (s *Stash) Put(ctx context.Context, key, value string) error {
	if s.ttl <= 0 {
		return ErrInvalidTTL
	}
	if err := s.repo.Put(ctx, key, value, s.ttl); err != nil {
		return fmt.Errorf("stash %s: %w", key, err)
	}
	return nil
}

// FetchAndRefresh reads key and writes it back with the same TTL.
// The value is never removed by this call.
func (s *Stash) FetchAndRefresh(ctx context.Context, key string) (string, error) {
	value, ok, err := s.repo.Get(ctx, key)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", key, err)
	}
	if !ok {
		return "", ErrNotFound
	}
	if err := s.Put(ctx, key, value); err != nil {
		return "", err
	}
	return value, nil
}

// Delete removes key.
func (s *Stash) Delete(ctx context.Context, key string) error {
	if err := s.repo.Delete(ctx, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// PutJSON marshals v and stores it.
func (s *Stash) PutJSON(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	return s.Put(ctx, key, string(data))
}

// FetchJSON refreshes key and unmarshals it into v.
func (s *Stash) FetchJSON(ctx context.Context, key string, v any) error {
	raw, err := s.FetchAndRefresh(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("unmarshal %s: %w", key, err)
	}
	return nil
}
