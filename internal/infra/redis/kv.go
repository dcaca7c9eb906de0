package redis

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"

	"github.com/vietddude/schedrecovery/internal/infra/storage"
	"github.com/vietddude/schedrecovery/internal/metrics"
)

const backendName = "redis"

// KVRepo implements storage.KVRepository with SET EX / GET / DEL.
// Redis expires keys itself, so no pruning is needed.
type KVRepo struct {
	client     *Client
	maxElapsed time.Duration
}

var (
	_ storage.KVRepository = (*KVRepo)(nil)
	_ storage.Pinger       = (*KVRepo)(nil)
)

// NewKVRepo creates a Redis-backed key/value repository.
func NewKVRepo(client *Client) *KVRepo {
	return &KVRepo{client: client, maxElapsed: 2 * time.Second}
}

// WithRetryBudget bounds how long transient failures are retried.
// Zero disables retries.
func (r *KVRepo) WithRetryBudget(d time.Duration) *KVRepo {
	r.maxElapsed = d
	return r
}

func (r *KVRepo) Get(ctx context.Context, key string) (string, bool, error) {
	defer observe("get", time.Now())

	var (
		val   string
		found bool
	)
	err := r.retry(ctx, func() error {
		v, err := r.client.rdb.Get(ctx, r.client.key(key)).Result()
		if errors.Is(err, redis.Nil) {
			found = false
			return nil
		}
		if err != nil {
			return err
		}
		val, found = v, true
		return nil
	})
	if err != nil {
		return "", false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return val, found, nil
}

func (r *KVRepo) Put(ctx context.Context, key, value string, ttl time.Duration) error {
	defer observe("put", time.Now())

	if ttl <= 0 {
		return storage.ErrInvalidTTL
	}
	err := r.retry(ctx, func() error {
		return r.client.rdb.Set(ctx, r.client.key(key), value, ttl).Err()
	})
	if err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (r *KVRepo) Delete(ctx context.Context, key string) error {
	defer observe("delete", time.Now())

	err := r.retry(ctx, func() error {
		return r.client.rdb.Del(ctx, r.client.key(key)).Err()
	})
	if err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

func (r *KVRepo) Ping(ctx context.Context) error {
	return r.client.Ping(ctx)
}

// retry re-runs op on connection-level failures with exponential backoff.
func (r *KVRepo) retry(ctx context.Context, op func() error) error {
	if r.maxElapsed <= 0 {
		return op()
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 20 * time.Millisecond
	b.MaxInterval = 500 * time.Millisecond
	b.MaxElapsedTime = r.maxElapsed
	b.RandomizationFactor = 0.1

	return backoff.Retry(func() error {
		err := op()
		if err == nil || isTransient(err) {
			return err
		}
		return backoff.Permanent(err)
	}, backoff.WithContext(b, ctx))
}

func isTransient(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, redis.ErrClosed) {
		return false
	}
	var ne net.Error
	return errors.As(err, &ne) || errors.Is(err, io.EOF)
}

func observe(op string, start time.Time) {
	metrics.StoreOperationDuration.WithLabelValues(backendName, op).Observe(time.Since(start).Seconds())
}
