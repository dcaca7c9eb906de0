package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietddude/schedrecovery/internal/infra/storage"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *KVRepo) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return mr, NewKVRepo(NewClientFrom(rdb, "test:"))
}

func TestKVRepo_PutGetDelete(t *testing.T) {
	mr, repo := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, repo.Put(ctx, "rollback:s1", `[{"id":"rb_1"}]`, time.Hour))
	assert.True(t, mr.Exists("test:rollback:s1"))
	assert.Equal(t, time.Hour, mr.TTL("test:rollback:s1"))

	val, ok, err := repo.Get(ctx, "rollback:s1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[{"id":"rb_1"}]`, val)

	require.NoError(t, repo.Delete(ctx, "rollback:s1"))
	_, ok, err = repo.Get(ctx, "rollback:s1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestKVRepo_Expiry(t *testing.T) {
	mr, repo := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, repo.Put(ctx, "k", "v", time.Minute))
	mr.FastForward(2 * time.Minute)

	_, ok, err := repo.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestKVRepo_RejectsNonPositiveTTL(t *testing.T) {
	_, repo := setupTestRedis(t)
	err := repo.Put(context.Background(), "k", "v", 0)
	assert.ErrorIs(t, err, storage.ErrInvalidTTL)
}

func TestKVRepo_StashRefreshesTTL(t *testing.T) {
	mr, repo := setupTestRedis(t)
	ctx := context.Background()
	stash := storage.NewStash(repo, time.Hour)

	require.NoError(t, stash.Put(ctx, "k", "v"))
	mr.FastForward(50 * time.Minute)

	val, err := stash.FetchAndRefresh(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", val)
	assert.Equal(t, time.Hour, mr.TTL("test:k"))
}

func TestKVRepo_ConnectionFailure(t *testing.T) {
	mr, repo := setupTestRedis(t)
	repo.WithRetryBudget(50 * time.Millisecond)
	mr.Close()

	_, _, err := repo.Get(context.Background(), "k")
	assert.Error(t, err)
	assert.Error(t, repo.Ping(context.Background()))
}
