package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campuspark/internal/domain"
)

func newTestClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestCacheStore_Spots(t *testing.T) {
	_, client := newTestClient(t)
	store := NewCacheStore(client)
	ctx := context.Background()

	spots, err := store.GetSpots(ctx)
	require.NoError(t, err)
	assert.Nil(t, spots)

	require.NoError(t, store.SaveSpots(ctx, domain.DefaultSpots()))

	spots, err = store.GetSpots(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultSpots(), spots)
}

func TestCacheStore_HiddenSpots(t *testing.T) {
	mr, client := newTestClient(t)
	store := NewCacheStore(client)
	ctx := context.Background()

	set, err := store.GetHiddenSpots(ctx)
	require.NoError(t, err)
	assert.Empty(t, set)

	require.NoError(t, store.ReplaceHiddenSpots(ctx, domain.NewHiddenSpotSet(3, 1)))
	set, err = store.GetHiddenSpots(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 3}, set.IDs())

	require.NoError(t, store.ReplaceHiddenSpots(ctx, domain.NewHiddenSpotSet(2)))
	set, err = store.GetHiddenSpots(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, set.IDs())

	require.NoError(t, store.ReplaceHiddenSpots(ctx, domain.NewHiddenSpotSet()))
	assert.False(t, mr.Exists(hiddenSpotsKey))
}

func TestCacheStore_HiddenSpotsSkipsGarbage(t *testing.T) {
	mr, client := newTestClient(t)
	store := NewCacheStore(client)

	_, err := mr.SAdd(hiddenSpotsKey, "7", "not-a-number")
	require.NoError(t, err)

	set, err := store.GetHiddenSpots(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int64{7}, set.IDs())
}

func TestCacheStore_Balance(t *testing.T) {
	mr, client := newTestClient(t)
	store := NewCacheStore(client)
	ctx := context.Background()

	_, ok, err := store.GetBalance(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.SetBalance(ctx, 12.5))

	v, ok, err := store.GetBalance(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 12.5, v)

	raw, err := mr.Get(balanceKey)
	require.NoError(t, err)
	assert.Equal(t, "12.50", raw)
}

func TestCacheStore_Vehicle(t *testing.T) {
	_, client := newTestClient(t)
	store := NewCacheStore(client)
	ctx := context.Background()

	v, err := store.GetVehicle(ctx)
	require.NoError(t, err)
	assert.Nil(t, v)

	sample := domain.SampleVehicle()
	require.NoError(t, store.SaveVehicle(ctx, &sample))

	v, err = store.GetVehicle(ctx)
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, sample, *v)
}

func TestCacheStore_ErrorsWhenServerDown(t *testing.T) {
	mr, client := newTestClient(t)
	store := NewCacheStore(client)
	mr.Close()

	_, _, err := store.GetBalance(context.Background())
	assert.Error(t, err)
}

func TestSpotLocationStore_FindNearbySpots(t *testing.T) {
	_, client := newTestClient(t)
	store := NewSpotLocationStore(client)
	ctx := context.Background()

	require.NoError(t, store.IndexSpots(ctx, domain.DefaultSpots()...))

	// Standing on the first spot.
	nearby, err := store.FindNearbySpots(ctx, -22.2328, -49.9762, 0.05)
	require.NoError(t, err)
	require.Len(t, nearby, 1)
	assert.Equal(t, int64(1), nearby[0].SpotID)

	all, err := store.FindNearbySpots(ctx, -22.2328, -49.9762, 1)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, int64(1), all[0].SpotID)
	assert.LessOrEqual(t, all[1].DistanceKm, all[2].DistanceKm)

	require.NoError(t, store.RemoveSpot(ctx, 1))
	nearby, err = store.FindNearbySpots(ctx, -22.2328, -49.9762, 0.05)
	require.NoError(t, err)
	assert.Empty(t, nearby)
}

func TestLockStore_BalanceLock(t *testing.T) {
	mr, client := newTestClient(t)
	store := NewLockStore(client)
	ctx := context.Background()

	ok, err := store.AcquireBalanceLock(ctx, 1, 5*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.AcquireBalanceLock(ctx, 1, 5*time.Second)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.ReleaseBalanceLock(ctx, 1))

	ok, err = store.AcquireBalanceLock(ctx, 1, 5*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)

	mr.FastForward(6 * time.Second)
	assert.False(t, mr.Exists("lock:balance:1"))
}
