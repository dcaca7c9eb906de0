package rollback

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietddude/schedrecovery/internal/core/domain"
	"github.com/vietddude/schedrecovery/internal/infra/storage"
	"github.com/vietddude/schedrecovery/internal/infra/storage/memory"
)

// =============================================================================
// Helpers
// =============================================================================

type failingRepo struct {
	storage.KVRepository
	failPut bool
}

func (r *failingRepo) Put(ctx context.Context, key, value string, ttl time.Duration) error {
	if r.failPut {
		return errors.New("store unavailable")
	}
	return r.KVRepository.Put(ctx, key, value, ttl)
}

func newStore(t *testing.T) (*Store, *memory.KVStore) {
	t.Helper()
	kv := memory.NewKVStore()
	return New(storage.NewStash(kv, DefaultTTL)), kv
}

func steps(points []domain.RollbackPoint) []string {
	out := make([]string, len(points))
	for i, p := range points {
		out[i] = p.OperationStep
	}
	return out
}

// =============================================================================
// Tests
// =============================================================================

func TestCreate_CapsAtFiveOldestEvicted(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)

	for i := 1; i <= 7; i++ {
		_, err := s.Create(ctx, "s1", fmt.Sprintf("step%d", i), map[string]int{"n": i}, "")
		require.NoError(t, err)
	}

	points := s.Points(ctx, "s1")
	require.Len(t, points, 5)
	assert.Equal(t, []string{"step3", "step4", "step5", "step6", "step7"}, steps(points))
}

func TestCreate_DeepClonesState(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)

	state := map[string]any{"title": "standup"}
	_, err := s.Create(ctx, "s1", "confirm", state, "before confirm")
	require.NoError(t, err)
	state["title"] = "mutated"

	res := s.RollbackToLast(ctx, "s1")
	require.True(t, res.Success)
	assert.JSONEq(t, `{"title":"standup"}`, string(res.State))
}

func TestCreate_RejectsUnserializableState(t *testing.T) {
	s, _ := newStore(t)
	_, err := s.Create(context.Background(), "s1", "x", make(chan int), "")
	require.Error(t, err)
	kind, ok := domain.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, domain.KindDataValidation, kind)
	assert.False(t, s.Has(context.Background(), "s1"))
}

func TestCreate_PersistFailureKeepsPoint(t *testing.T) {
	ctx := context.Background()
	repo := &failingRepo{KVRepository: memory.NewKVStore(), failPut: true}
	s := New(storage.NewStash(repo, DefaultTTL))

	id, err := s.Create(ctx, "s1", "step1", json.RawMessage(`{"a":1}`), "")
	require.Error(t, err)
	assert.NotEmpty(t, id)
	kind, _ := domain.KindOf(err)
	assert.Equal(t, domain.KindSystem, kind)
	assert.True(t, s.Has(ctx, "s1"))
}

func TestRollbackToLast_PopsNewest(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)

	_, _ = s.Create(ctx, "s1", "a", 1, "")
	_, _ = s.Create(ctx, "s1", "b", 2, "")

	res := s.RollbackToLast(ctx, "s1")
	assert.True(t, res.Success)
	assert.Equal(t, "b", res.OperationStep)
	assert.Equal(t, "2", string(res.State))
	assert.Equal(t, []string{"a"}, steps(s.Points(ctx, "s1")))

	_ = s.RollbackToLast(ctx, "s1")
	res = s.RollbackToLast(ctx, "s1")
	assert.False(t, res.Success)
	assert.NotEmpty(t, res.Message)
}

func TestRollbackToCheckpoint_KeepsStrictlyOlder(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)

	var ids []string
	for _, step := range []string{"a", "b", "c", "d"} {
		id, err := s.Create(ctx, "s1", step, step, "")
		require.NoError(t, err)
		ids = append(ids, id)
	}

	res := s.RollbackToCheckpoint(ctx, "s1", ids[1])
	require.True(t, res.Success)
	assert.Equal(t, "b", res.OperationStep)
	assert.Equal(t, []string{"a"}, steps(s.Points(ctx, "s1")))

	res = s.RollbackToCheckpoint(ctx, "s1", ids[3])
	assert.False(t, res.Success)
	assert.Equal(t, []string{"a"}, steps(s.Points(ctx, "s1")))
}

func TestRollbackToLast_HydratesFromStore(t *testing.T) {
	ctx := context.Background()
	kv := memory.NewKVStore()
	stash := storage.NewStash(kv, DefaultTTL)

	first := New(stash)
	_, _ = first.Create(ctx, "s1", "a", "x", "")
	_, _ = first.Create(ctx, "s1", "b", "y", "")

	// Simulate a restart with a fresh cache over the same store
	second := New(stash)
	res := second.RollbackToLast(ctx, "s1")
	require.True(t, res.Success)
	assert.Equal(t, "b", res.OperationStep)

	// The consumed point must not come back on the next restart
	third := New(stash)
	assert.Equal(t, []string{"a"}, steps(third.Points(ctx, "s1")))
}

func TestRollback_EmptyStackDeletesKey(t *testing.T) {
	ctx := context.Background()
	s, kv := newStore(t)

	_, _ = s.Create(ctx, "s1", "a", 1, "")
	_, ok, _ := kv.Get(ctx, Key("s1"))
	require.True(t, ok)

	s.RollbackToLast(ctx, "s1")
	_, ok, _ = kv.Get(ctx, Key("s1"))
	assert.False(t, ok)
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	s, kv := newStore(t)

	_, _ = s.Create(ctx, "s1", "a", 1, "")
	_, _ = s.Create(ctx, "s2", "a", 1, "")
	require.NoError(t, s.Clear(ctx, "s1"))

	assert.False(t, s.Has(ctx, "s1"))
	assert.True(t, s.Has(ctx, "s2"))
	_, ok, _ := kv.Get(ctx, Key("s1"))
	assert.False(t, ok)
}

func TestWithMaxPoints(t *testing.T) {
	ctx := context.Background()
	s := New(storage.NewStash(memory.NewKVStore(), time.Minute), WithMaxPoints(2))
	for i := 0; i < 4; i++ {
		_, _ = s.Create(ctx, "s", fmt.Sprint(i), i, "")
	}
	assert.Equal(t, []string{"2", "3"}, steps(s.Points(ctx, "s")))
}
