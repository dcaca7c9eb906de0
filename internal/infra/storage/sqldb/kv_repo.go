package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vietddude/schedrecovery/internal/infra/storage"
	"github.com/vietddude/schedrecovery/internal/metrics"
)

// KVRepo implements storage.KVRepository on the kv_entries table.
// Expired rows are hidden from reads and removed by DeleteExpired.
type KVRepo struct {
	db  *DB
	now func() time.Time

	getQuery    string
	upsertQuery string
	deleteQuery string
	pruneQuery  string
}

var (
	_ storage.KVRepository  = (*KVRepo)(nil)
	_ storage.ExpiredPruner = (*KVRepo)(nil)
	_ storage.Pinger        = (*KVRepo)(nil)
)

type kvRow struct {
	Value     string `db:"entry_value"`
	ExpiresAt int64  `db:"expires_at"`
}

// NewKVRepo creates a new SQL key/value repository.
func NewKVRepo(db *DB) *KVRepo {
	return &KVRepo{
		db:       db,
		now:      time.Now,
		getQuery: db.Rebind(`SELECT entry_value, expires_at FROM kv_entries WHERE entry_key = ?`),
		upsertQuery: db.Rebind(`INSERT INTO kv_entries (entry_key, entry_value, ttl_seconds, expires_at)
VALUES (?, ?, ?, ?)
ON CONFLICT (entry_key) DO UPDATE SET
    entry_value = excluded.entry_value,
    ttl_seconds = excluded.ttl_seconds,
    expires_at = excluded.expires_at`),
		deleteQuery: db.Rebind(`DELETE FROM kv_entries WHERE entry_key = ?`),
		pruneQuery:  db.Rebind(`DELETE FROM kv_entries WHERE expires_at <= ?`),
	}
}

// WithClock overrides the time source used for expiry.
func (r *KVRepo) WithClock(now func() time.Time) *KVRepo {
	r.now = now
	return r
}

func (r *KVRepo) Get(ctx context.Context, key string) (string, bool, error) {
	defer r.observe("get", time.Now())

	var row kvRow
	err := r.db.GetContext(ctx, &row, r.getQuery, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get entry %s: %w", key, err)
	}
	if row.ExpiresAt <= r.now().UnixMilli() {
		return "", false, nil
	}
	return row.Value, true, nil
}

func (r *KVRepo) Put(ctx context.Context, key, value string, ttl time.Duration) error {
	defer r.observe("put", time.Now())

	if ttl <= 0 {
		return storage.ErrInvalidTTL
	}
	expiresAt := r.now().Add(ttl).UnixMilli()
	err := withRetry(ctx, func() error {
		_, err := r.db.ExecContext(ctx, r.upsertQuery, key, value, int64(ttl/time.Second), expiresAt)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to put entry %s: %w", key, err)
	}
	return nil
}

func (r *KVRepo) Delete(ctx context.Context, key string) error {
	defer r.observe("delete", time.Now())

	err := withRetry(ctx, func() error {
		_, err := r.db.ExecContext(ctx, r.deleteQuery, key)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to delete entry %s: %w", key, err)
	}
	return nil
}

// DeleteExpired removes every entry whose deadline is at or before now.
func (r *KVRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	defer r.observe("prune", time.Now())

	res, err := r.db.ExecContext(ctx, r.pruneQuery, now.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to prune expired entries: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count pruned entries: %w", err)
	}
	return n, nil
}

func (r *KVRepo) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

func (r *KVRepo) observe(op string, start time.Time) {
	metrics.StoreOperationDuration.WithLabelValues(r.db.driver, op).Observe(time.Since(start).Seconds())
}
