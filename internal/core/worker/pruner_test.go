package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietddude/schedrecovery/internal/infra/storage/memory"
)

type countingPruner struct {
	calls atomic.Int32
	err   error
}

func (c *countingPruner) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	c.calls.Add(1)
	return 0, c.err
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPruner_RemovesExpiredEntries(t *testing.T) {
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	kv := memory.NewKVStore().WithClock(func() time.Time { return now })
	ctx := context.Background()

	require.NoError(t, kv.Put(ctx, "a", "1", time.Minute))
	require.NoError(t, kv.Put(ctx, "b", "2", time.Hour))

	p := NewPruner(time.Minute, kv, quietLogger())
	p.now = func() time.Time { return now.Add(2 * time.Minute) }

	assert.Equal(t, int64(1), p.Prune(ctx))
	assert.Equal(t, 1, kv.Len())
}

func TestPruner_ErrorIsSwallowed(t *testing.T) {
	store := &countingPruner{err: errors.New("db down")}
	p := NewPruner(time.Minute, store, quietLogger())
	assert.Zero(t, p.Prune(context.Background()))
	assert.Equal(t, int32(1), store.calls.Load())
}

func TestPruner_DisabledReturnsImmediately(t *testing.T) {
	store := &countingPruner{}
	done := make(chan struct{})
	go func() {
		NewPruner(0, store, quietLogger()).Start(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("disabled pruner did not return")
	}
	assert.Zero(t, store.calls.Load())
}

func TestPruner_StopsOnCancel(t *testing.T) {
	store := &countingPruner{}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		NewPruner(time.Hour, store, quietLogger()).Start(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return store.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("pruner did not stop")
	}
}
