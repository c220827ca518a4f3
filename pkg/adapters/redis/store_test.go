package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/flowcharts/pkg/adapters/redis"
	"github.com/aretw0/flowcharts/pkg/domain"
	"github.com/aretw0/flowcharts/pkg/ports"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMiniredis(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := backend.NewClient(&backend.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisStore_Contract(t *testing.T) {
	_, client := newMiniredis(t)

	store := redis.NewFromClient(client)
	ports.RunFlowchartStoreContract(t, store)
}

func TestRedisStore_TTL_Expiration(t *testing.T) {
	mr, client := newMiniredis(t)

	store := redis.NewFromClient(client, redis.WithTTL(1*time.Second))
	ctx := context.Background()

	id, err := store.Create(ctx, domain.New([]domain.Node{{ID: "node1"}}, nil))
	require.NoError(t, err)

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Contains(t, ids, id)

	// Key expiration happens on miniredis' clock.
	mr.FastForward(2 * time.Second)

	_, err = store.Get(ctx, id)
	assert.ErrorIs(t, err, domain.ErrFlowchartNotFound)

	// Index pruning relies on the wall clock.
	time.Sleep(1200 * time.Millisecond)

	ids, err = store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestRedisStore_Prefix(t *testing.T) {
	mr, client := newMiniredis(t)

	store := redis.NewFromClient(client, redis.WithPrefix("custom:app:"))
	ctx := context.Background()

	id, err := store.Create(ctx, domain.New([]domain.Node{{ID: "start"}}, nil))
	require.NoError(t, err)

	assert.True(t, mr.Exists("custom:app:"+id), "Expected key with custom prefix to exist")
	assert.True(t, mr.Exists("custom:app:index"), "Expected index with custom prefix to exist")

	list, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{id}, list)
}

func TestRedisStore_UpdateInvalidWritesNothing(t *testing.T) {
	mr, client := newMiniredis(t)

	store := redis.NewFromClient(client)
	ctx := context.Background()

	id, err := store.Create(ctx, domain.New([]domain.Node{{ID: "a"}, {ID: "b"}}, []domain.Edge{{Source: "a", Target: "b"}}))
	require.NoError(t, err)

	raw, err := mr.Get("flowcharts:flowchart:" + id)
	require.NoError(t, err)

	_, err = store.Update(ctx, id, domain.New([]domain.Node{{ID: "a"}}, []domain.Edge{{Source: "a", Target: "b"}}))
	require.ErrorIs(t, err, domain.ErrInvalidFlowchart)

	after, err := mr.Get("flowcharts:flowchart:" + id)
	require.NoError(t, err)
	assert.Equal(t, raw, after)
}

func TestRedisStore_CreateIndexFailureWritesNothing(t *testing.T) {
	mr, client := newMiniredis(t)

	store := redis.NewFromClient(client)
	ctx := context.Background()

	// A string under the index key makes ZADD fail with WRONGTYPE.
	require.NoError(t, mr.Set("flowcharts:flowchart:index", "not a zset"))

	_, err := store.Create(ctx, domain.New([]domain.Node{{ID: "a"}}, nil))
	require.Error(t, err)

	assert.Equal(t, []string{"flowcharts:flowchart:index"}, mr.Keys())
}
