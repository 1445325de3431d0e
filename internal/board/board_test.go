package board

import (
	"context"
	"os"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseStore(t *testing.T, s Store, key string) {
	ctx := context.Background()

	empty, err := s.Snapshot(ctx, key)
	require.NoError(t, err)
	assert.Zero(t, empty.Invocation)
	assert.Empty(t, empty.Results)

	first, err := s.Begin(ctx, key, 3)
	require.NoError(t, err)
	snap, err := s.Snapshot(ctx, key)
	require.NoError(t, err)
	assert.True(t, snap.Loading)
	assert.Equal(t, first, snap.Invocation)
	require.Len(t, snap.Results, 3)
	for _, r := range snap.Results {
		assert.Equal(t, StatusLoading, r.Status)
	}

	second, err := s.Begin(ctx, key, 2)
	require.NoError(t, err)
	assert.Greater(t, second, first)

	stale := []Result{{Status: StatusReady, Image: "data:image/png;base64,AA==", Description: "old"}}
	assert.ErrorIs(t, s.Settle(ctx, key, first, stale), ErrStale)
	assert.ErrorIs(t, s.Fail(ctx, key, first, "Lỗi: old"), ErrStale)

	fresh := []Result{
		{Status: StatusReady, Image: "data:image/png;base64,AQ==", Description: "Studio"},
		{Status: StatusFailed, Description: FailedDescription},
	}
	require.NoError(t, s.Settle(ctx, key, second, fresh))

	snap, err = s.Snapshot(ctx, key)
	require.NoError(t, err)
	assert.False(t, snap.Loading)
	assert.Empty(t, snap.Error)
	assert.Equal(t, second, snap.Invocation)
	assert.Equal(t, fresh, snap.Results)
	assert.Equal(t, 1, snap.Ready())
	assert.Equal(t, 1, snap.Failed())

	third, err := s.Begin(ctx, key, 1)
	require.NoError(t, err)
	require.NoError(t, s.Fail(ctx, key, third, "Lỗi: quota"))
	snap, err = s.Snapshot(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "Lỗi: quota", snap.Error)
	assert.Empty(t, snap.Results)
	assert.False(t, snap.Loading)
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemory(), "chat-1")
}

func TestMemoryVersionAdvances(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	id, err := m.Begin(ctx, "k", 1)
	require.NoError(t, err)
	a, _ := m.Snapshot(ctx, "k")
	require.NoError(t, m.Settle(ctx, "k", id, []Result{{Status: StatusReady}}))
	b, _ := m.Snapshot(ctx, "k")
	assert.Greater(t, b.Version, a.Version)
}

func TestMemorySnapshotIsACopy(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	id, err := m.Begin(ctx, "k", 1)
	require.NoError(t, err)
	require.NoError(t, m.Settle(ctx, "k", id, []Result{{Status: StatusReady, Description: "a"}}))

	snap, _ := m.Snapshot(ctx, "k")
	snap.Results[0].Description = "mutated"
	again, _ := m.Snapshot(ctx, "k")
	assert.Equal(t, "a", again.Results[0].Description)
}

func TestMemoryConcurrentBegins(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	var wg sync.WaitGroup
	ids := make([]uint64, 50)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ids[i], _ = m.Begin(ctx, "k", 1)
		}(i)
	}
	wg.Wait()

	seen := map[uint64]bool{}
	var newest uint64
	for _, id := range ids {
		assert.False(t, seen[id], "duplicate invocation id %d", id)
		seen[id] = true
		newest = max(newest, id)
	}
	snap, _ := m.Snapshot(ctx, "k")
	assert.Equal(t, newest, snap.Invocation)
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	db, _ := strconv.Atoi(os.Getenv("REDIS_DB"))
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	rdb, err := Connect(ctx, addr, os.Getenv("REDIS_PASSWORD"), db)
	require.NoError(t, err)
	defer rdb.Close()

	store, err := NewRedis(RedisOptions{Client: rdb, Prefix: "test:board:", TTL: time.Minute})
	require.NoError(t, err)
	exerciseStore(t, store, uuid.NewString())

	t.Run("counter expired before board", func(t *testing.T) {
		key := uuid.NewString()
		first, err := store.Begin(ctx, key, 1)
		require.NoError(t, err)
		second, err := store.Begin(ctx, key, 1)
		require.NoError(t, err)

		require.NoError(t, rdb.Del(ctx, store.seqKey(key)).Err())

		third, err := store.Begin(ctx, key, 2)
		require.NoError(t, err)
		assert.Greater(t, third, second)
		assert.ErrorIs(t, store.Settle(ctx, key, first, nil), ErrStale)
		require.NoError(t, store.Settle(ctx, key, third, []Result{{Status: StatusFailed, Description: FailedDescription}}))

		snap, err := store.Snapshot(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, third, snap.Invocation)
		assert.False(t, snap.Loading)

		ttl, err := rdb.PTTL(ctx, store.seqKey(key)).Result()
		require.NoError(t, err)
		assert.Greater(t, ttl, time.Duration(0))
	})
}

func TestNewRedisRequiresClient(t *testing.T) {
	_, err := NewRedis(RedisOptions{})
	assert.Error(t, err)
}
