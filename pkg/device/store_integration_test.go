//go:build integration

package device

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newtron-network/cmdref/internal/testutil"
)

func newTestRedisStore(t *testing.T, rdb *testutil.Redis, device string) *RedisStore {
	t.Helper()
	store := NewRedisStore(rdb.Addr, testutil.TestDB, device)
	t.Cleanup(func() { store.Close() })
	require.NoError(t, store.Connect(testutil.Context(t)))
	return store
}

func TestRedisStore_SimDevice(t *testing.T) {
	rdb := testutil.NewRedis(t)
	ctx := testutil.Context(t)

	rdb.Seed(t, RedisKey("leaf1"), "feature bgp", "router bgp 65000", "  router-id 1.1.1.1")

	sim := NewSimDevice("leaf1", "N9K-C9396", newTestRedisStore(t, rdb, "leaf1"))
	out, err := sim.Query(ctx, "show running bgp")
	require.NoError(t, err)
	assert.Contains(t, out, "  router-id 1.1.1.1\n")

	require.NoError(t, sim.Configure(ctx, []string{"router bgp 65000", "no router-id", "end"}))
	assert.Equal(t, []string{"feature bgp", "router bgp 65000"}, rdb.List(t, RedisKey("leaf1")))

	// A second device over the same key sees the change.
	other := NewSimDevice("leaf1", "N9K-C9396", newTestRedisStore(t, rdb, "leaf1"))
	out, err = other.Query(ctx, "show running | i router-id")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestRedisStore_SaveEmpty(t *testing.T) {
	rdb := testutil.NewRedis(t)
	ctx := testutil.Context(t)
	store := newTestRedisStore(t, rdb, "leaf2")

	require.NoError(t, store.Save(ctx, []string{"feature vpc"}))
	require.NoError(t, store.Save(ctx, nil))
	lines, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestRedisStore_Missing(t *testing.T) {
	rdb := testutil.NewRedis(t)
	lines, err := newTestRedisStore(t, rdb, "nobody").Load(testutil.Context(t))
	require.NoError(t, err)
	assert.Empty(t, lines)
}
